package handlers

import (
	"errors"
	"net/http"

	"github.com/davidokpare/extracta/internal/core"
)

// writeError maps the service error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, core.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, core.ErrConflict):
		http.Error(w, "file already exists", http.StatusConflict)
	case errors.Is(err, core.ErrUnsupportedType):
		http.Error(w, "unsupported file type", http.StatusUnsupportedMediaType)
	case errors.Is(err, core.ErrTooLarge):
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
