package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	appMiddleware "github.com/davidokpare/extracta/internal/api/middlewares"
	"github.com/davidokpare/extracta/internal/services"
)

type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// Upload stores a new PDF. The file does not get processed for text here;
// the poller or an explicit text request does that later.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read upload", http.StatusBadRequest)
		return
	}

	doc, err := h.docs.Upload(r.Context(), actor, header.Filename, content)
	if err != nil {
		log.Printf("upload %q for %s: %v", header.Filename, actor.ID, err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"info": fmt.Sprintf("file '%s' saved at '%s'", doc.Filename, doc.Location),
	})
}

// List returns the names of all files the actor has uploaded.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	files, err := h.docs.List(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"files": files})
}

// Metadata returns the registry record for one of the actor's files.
func (h *DocumentHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	doc, err := h.docs.Metadata(r.Context(), actor, chi.URLParam(r, "file_name"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"metadata": doc})
}

// Delete removes one of the actor's files and its registry record.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	fileName := chi.URLParam(r, "file_name")
	if err := h.docs.Delete(r.Context(), actor, fileName); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"info": fmt.Sprintf("%s deleted", fileName)})
}
