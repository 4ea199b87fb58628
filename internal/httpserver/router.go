package httpserver

import (
	"log/slog"
	"net/http"

	"emaildraft/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Pages обработчики формы и её JSON-варианта.
type Pages interface {
	Index(w http.ResponseWriter, r *http.Request)
	Generate(w http.ResponseWriter, r *http.Request)
	CreateDraft(w http.ResponseWriter, r *http.Request)
}

type RouterDeps struct {
	Logger *slog.Logger
	Pages  Pages
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/", deps.Pages.Index)
	r.Post("/generate", deps.Pages.Generate)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/drafts", deps.Pages.CreateDraft)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
