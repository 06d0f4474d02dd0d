package handlers

import (
	"encoding/json"
	"net/http"

	appMiddleware "github.com/davidokpare/extracta/internal/api/middlewares"
)

// Webhook is the default event sink: it accepts any JSON object and echoes
// it back. External consumers replace it via WEBHOOK_URL.
func Webhook(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// Health reports the authenticated actor, doubling as a token check.
func Health(w http.ResponseWriter, r *http.Request) {
	actor, ok := appMiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user": map[string]string{"id": actor.ID, "username": actor.Name},
	})
}
