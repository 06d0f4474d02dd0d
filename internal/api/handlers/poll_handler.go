package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/davidokpare/extracta/internal/core/scheduler"
	"github.com/davidokpare/extracta/internal/models"
)

// PollHandler triggers one scheduler pass over unprocessed documents.
type PollHandler struct {
	sched *scheduler.Scheduler
}

func NewPollHandler(sched *scheduler.Scheduler) *PollHandler {
	return &PollHandler{sched: sched}
}

// Run executes a pass and reports how many documents it iterated. The count
// does not distinguish per-document failures from successes.
func (h *PollHandler) Run(w http.ResponseWriter, r *http.Request) {
	n, err := h.sched.RunPass(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("%d documents processed by %s", n, models.SystemActorID),
	})
}
