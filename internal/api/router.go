package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/users", apiHandler.GetUsersHandler)
	r.Post("/users", apiHandler.CreateUserHandler)

	r.Get("/chats", apiHandler.ListChatsHandler)
	r.Post("/chats", apiHandler.CreateChatHandler)

	r.Post("/search", apiHandler.SearchHandler)

	r.Get("/messages", apiHandler.GetMessagesHandler)
	r.Post("/messages", apiHandler.PostMessageHandler)

	return r
}
