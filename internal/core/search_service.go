package core

import (
	"context"
	"fmt"
	"log"

	"newshound/internal/store"
)

// ChatStore is the slice of the persistence gateway the pipeline needs.
type ChatStore interface {
	GetChatByID(ctx context.Context, username, chatID string) (*store.Chat, error)
	GetMessages(ctx context.Context, username, chatID string) ([]store.Message, error)
	AddMessage(ctx context.Context, username, chatID, role, body string, sources []store.WebSource) (*store.Message, error)
}

// SearchResult pairs the generated answer with the sources that grounded it.
// Response is nil when the completion backend produced nothing.
type SearchResult struct {
	Response *string           `json:"response"`
	Sources  []store.WebSource `json:"sources"`
}

// SearchService runs the answer-generation pipeline: fetch sources, assemble
// a grounded prompt with chat history, call the completion backend, and
// persist the exchange.
type SearchService struct {
	store       ChatStore
	fetcher     SourceFetcher
	llm         CompletionClient
	sourceLimit int
}

func NewSearchService(db ChatStore, fetcher SourceFetcher, llm CompletionClient, sourceLimit int) *SearchService {
	return &SearchService{
		store:       db,
		fetcher:     fetcher,
		llm:         llm,
		sourceLimit: sourceLimit,
	}
}

// Answer runs the pipeline with no chat context and no persistence.
func (s *SearchService) Answer(ctx context.Context, query string) (*SearchResult, error) {
	sources, err := s.fetchFiltered(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, query, nil, sources)
}

// AnswerInChat runs the pipeline inside a chat. The user message is persisted
// before the completion is attempted and is not rolled back if a later step
// fails. The prompt uses the history as loaded before that append, so the
// current query appears only as the final query segment.
func (s *SearchService) AnswerInChat(ctx context.Context, username, chatID, query string) (*SearchResult, error) {
	if _, err := s.store.GetChatByID(ctx, username, chatID); err != nil {
		return nil, err
	}

	history, err := s.store.GetMessages(ctx, username, chatID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.AddMessage(ctx, username, chatID, store.RoleUser, query, nil); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	sources, err := s.fetchFiltered(ctx, query)
	if err != nil {
		return nil, err
	}

	result, err := s.generate(ctx, query, history, sources)
	if err != nil {
		return nil, err
	}

	body := ""
	if result.Response != nil {
		body = *result.Response
	}
	if _, err := s.store.AddMessage(ctx, username, chatID, store.RoleAssistant, body, sources); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	return result, nil
}

func (s *SearchService) fetchFiltered(ctx context.Context, query string) ([]store.WebSource, error) {
	sources, err := s.fetcher.Fetch(ctx, query, s.sourceLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch web sources: %w", err)
	}
	return FilterSources(sources), nil
}

// generate assembles the prompt and calls the completion backend. Backend
// failures degrade to a result with a nil response and the sources intact;
// cancellation and deadline errors propagate so no assistant message is
// persisted for an abandoned request.
func (s *SearchService) generate(ctx context.Context, query string, history []store.Message, sources []store.WebSource) (*SearchResult, error) {
	segments := AssemblePrompt(query, history, sources)

	text, err := s.llm.Complete(ctx, SystemInstruction, segments)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Completion failed, returning result without response: %v", err)
		return &SearchResult{Sources: sources}, nil
	}

	return &SearchResult{Response: &text, Sources: sources}, nil
}
