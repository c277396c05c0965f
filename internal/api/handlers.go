package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"newshound/internal/core"
	"newshound/internal/store"
)

type APIHandler struct {
	store           *store.SQLiteStore
	searchService   *core.SearchService
	pipelineTimeout time.Duration
}

func NewAPIHandler(db *store.SQLiteStore, ss *core.SearchService, pipelineTimeout time.Duration) *APIHandler {
	return &APIHandler{
		store:           db,
		searchService:   ss,
		pipelineTimeout: pipelineTimeout,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrAlreadyExists):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "upstream deadline exceeded"})
	default:
		log.Printf("%s: %v", fallback, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fallback})
	}
}

// pipelineContext bounds the network-bound pipeline endpoints so a hung
// upstream cannot hold a request open indefinitely.
func (h *APIHandler) pipelineContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.pipelineTimeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.pipelineTimeout)
}

// GetUsersHandler lists all users, or returns a single user when the
// username query parameter is present.
func (h *APIHandler) GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username != "" {
		user, err := h.store.GetUserByName(r.Context(), username)
		if err != nil {
			writeError(w, err, "Failed to get user")
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, err, "Failed to list users")
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *APIHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username query parameter is required"})
		return
	}

	user, err := h.store.CreateUser(r.Context(), username)
	if err != nil {
		writeError(w, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username query parameter is required"})
		return
	}

	user, err := h.store.GetUserByName(r.Context(), username)
	if err != nil {
		writeError(w, err, "Failed to resolve user")
		return
	}

	chat, err := h.store.CreateChat(r.Context(), user.ID)
	if err != nil {
		writeError(w, err, "Failed to create chat")
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username query parameter is required"})
		return
	}

	user, err := h.store.GetUserByName(r.Context(), username)
	if err != nil {
		writeError(w, err, "Failed to resolve user")
		return
	}

	chats, err := h.store.GetChatsByUserID(r.Context(), user.ID)
	if err != nil {
		writeError(w, err, "Failed to list chats")
		return
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

type SearchRequest struct {
	Query string `json:"query"`
}

// SearchHandler runs the standalone pipeline: no chat context, nothing
// persisted.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query cannot be empty"})
		return
	}

	ctx, cancel := h.pipelineContext(r)
	defer cancel()

	result, err := h.searchService.Answer(ctx, req.Query)
	if err != nil {
		writeError(w, err, "Failed to generate answer")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	chatID := r.URL.Query().Get("chat_id")
	if username == "" || chatID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and chat_id query parameters are required"})
		return
	}

	messages, err := h.store.GetMessages(r.Context(), username, chatID)
	if err != nil {
		writeError(w, err, "Failed to get messages")
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// PostMessageHandler runs the chat-mode pipeline: the query and the generated
// answer are appended to the chat as messages.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	chatID := r.URL.Query().Get("chat_id")
	if username == "" || chatID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and chat_id query parameters are required"})
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query cannot be empty"})
		return
	}

	ctx, cancel := h.pipelineContext(r)
	defer cancel()

	result, err := h.searchService.AnswerInChat(ctx, username, chatID, req.Query)
	if err != nil {
		writeError(w, err, "Failed to generate answer")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
