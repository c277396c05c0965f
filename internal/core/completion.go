package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultCompletionModel = "gemini-2.5-flash"

var (
	// ErrMissingAPIKey is returned before any network call when the client
	// was constructed without a credential.
	ErrMissingAPIKey = errors.New("completion API key is not configured")

	// ErrNoContent means the backend answered but produced no usable text.
	// Distinct from transport errors.
	ErrNoContent = errors.New("completion backend returned no content")
)

// CompletionClient sends an assembled prompt to a generative backend.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt string, segments []string) (string, error)
}

// GeminiClient implements CompletionClient against the Gemini API. The
// credential is injected at construction; the underlying client is dialed
// lazily on first use so a missing key fails the request, not the process.
type GeminiClient struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey: apiKey,
		model:  defaultCompletionModel,
	}
}

func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
		c.client = nil
	}
}

func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.client = client
	return client, nil
}

func (c *GeminiClient) Complete(ctx context.Context, systemPrompt string, segments []string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("no prompt segments for completion")
	}

	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	parts := make([]genai.Part, len(segments))
	for i, segment := range segments {
		parts[i] = genai.Text(segment)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoContent
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", ErrNoContent
	}
	return responseText.String(), nil
}
