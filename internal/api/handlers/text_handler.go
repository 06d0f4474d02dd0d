package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/davidokpare/extracta/internal/api/middlewares"
	"github.com/davidokpare/extracta/internal/services"
)

type TextHandler struct {
	texts *services.TextService
}

func NewTextHandler(texts *services.TextService) *TextHandler {
	return &TextHandler{texts: texts}
}

// Extract parses the named PDF for text on demand and returns the cache key
// it was stored under plus the text itself.
func (h *TextHandler) Extract(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	key, text, err := h.texts.Extract(r.Context(), actor, chi.URLParam(r, "file_name"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"cache_key": key,
		"text":      text,
	})
}

// RetrieveCached fetches previously extracted text by its cache key.
func (h *TextHandler) RetrieveCached(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	result, err := h.texts.RetrieveCached(r.Context(), actor, chi.URLParam(r, "file_key"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"ttl":  fmt.Sprintf("%d Seconds Left", int(result.TTL.Seconds())),
		"text": result.Text,
	})
}
