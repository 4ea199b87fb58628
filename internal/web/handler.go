package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"emaildraft/internal/draft"
	"emaildraft/internal/httpserver"

	"github.com/gorilla/schema"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const maxFormBytes = 1 << 20

// Generator то, что нужно обработчику от сервиса черновиков.
type Generator interface {
	Generate(ctx context.Context, req draft.Request) draft.Draft
}

type Handler struct {
	generator Generator
	decoder   *schema.Decoder
	logger    *slog.Logger
}

func NewHandler(generator Generator, logger *slog.Logger) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		generator: generator,
		decoder:   decoder,
		logger:    logger,
	}
}

type pageData struct {
	Form        draft.Request
	Error       string
	Draft       *draft.Draft
	FileName    string
	DownloadURL template.URL
}

// Index отдаёт пустую форму.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageData{})
}

// Generate принимает форму, проверяет поля и показывает черновик.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "cannot parse form", http.StatusBadRequest)
		return
	}

	var req draft.Request
	if err := h.decoder.Decode(&req, r.PostForm); err != nil {
		http.Error(w, "cannot decode form", http.StatusBadRequest)
		return
	}

	if err := draft.Validate(req); err != nil {
		h.render(w, http.StatusUnprocessableEntity, pageData{Form: req, Error: draft.ValidationMessage})
		return
	}

	result := h.generator.Generate(r.Context(), req)
	h.render(w, http.StatusOK, pageData{
		Form:        req,
		Draft:       &result,
		FileName:    draft.FileName,
		DownloadURL: downloadURL(result.Text),
	})
}

type draftResponse struct {
	Email    string `json:"email"`
	Filename string `json:"filename"`
}

// CreateDraft JSON-вариант формы.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req draft.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err := dec.Decode(&req); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}

	if err := draft.Validate(req); err != nil {
		httpserver.WriteJSONError(w, http.StatusUnprocessableEntity, "validation_failed", draft.ValidationMessage)
		return
	}

	result := h.generator.Generate(r.Context(), req)
	if result.Failed {
		httpserver.WriteJSONError(w, http.StatusBadGateway, "generation_failed", result.Text)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, draftResponse{Email: result.Text, Filename: draft.FileName})
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.Error("render page failed", slog.String("error", err.Error()))
	}
}

// downloadURL кодирует текст в data URL, так что скачивается ровно показанный текст.
func downloadURL(text string) template.URL {
	return template.URL("data:text/plain;charset=utf-8," + url.PathEscape(text))
}
