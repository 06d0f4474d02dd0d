package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Document represents one uploaded PDF and its processing state.
// Processed starts false and only ever transitions to true; a failed
// extraction leaves it false so the poller picks it up again.
type Document struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Filename  string    `db:"filename" json:"filename"`
	Location  string    `db:"location" json:"location"`
	SizeMB    float64   `db:"size_mb" json:"size_mb"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Processed bool      `db:"processed" json:"processed"`
}

// Actor is the identity an extraction runs under: a real user or the
// synthetic system identity used by the scheduler.
type Actor struct {
	ID   string
	Name string
}

const SystemActorID = "SYSTEM"

// SystemActor is the identity the poller extracts under.
var SystemActor = Actor{ID: SystemActorID, Name: SystemActorID}

// OwnerID returns the actor's numeric user id. The system actor has no
// numeric id, so ok is false for it.
func (a Actor) OwnerID() (int64, bool) {
	id, err := strconv.ParseInt(a.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PageText maps a zero-based page index to the text lines on that page.
// Pages with no extractable text are absent from the map entirely.
type PageText map[int][]string

const (
	EventUpload        = "upload"
	EventTextExtracted = "text_extracted"
)

// Event is the lifecycle notification delivered to the webhook sink.
type Event struct {
	Event     string `json:"event"`
	ID        string `json:"id"`
	Username  string `json:"username"`
	Filename  string `json:"filename"`
	EventTime string `json:"event_time"`
}

func NewEvent(kind string, actor Actor, filename string) Event {
	return Event{
		Event:     kind,
		ID:        actor.ID,
		Username:  actor.Name,
		Filename:  filename,
		EventTime: time.Now().UTC().Format(time.RFC3339),
	}
}

// CanonicalFilename lowercases the name and collapses spaces, hyphens and
// slashes to underscores. This is the lookup key everywhere a filename is
// resolved. It is NOT injective: "Report Final.pdf", "report-final.pdf" and
// "REPORT/FINAL.pdf" all map to "report_final.pdf". The upload path relies
// on that collision to reject duplicates via the blob existence check.
func CanonicalFilename(name string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", "/", "_")
	return strings.ToLower(r.Replace(name))
}

// BlobLocation is the owner-scoped blob key a document is stored under.
// Immutable after upload.
func BlobLocation(ownerID int64, ownerName, canonical string) string {
	return fmt.Sprintf("%d_%s/%s", ownerID, ownerName, canonical)
}

// SizeInMB converts a byte count to fractional megabytes, one decimal place.
// Recorded once at upload time and never recomputed.
func SizeInMB(n int64) float64 {
	return math.Round(float64(n)/1024/1024*10) / 10
}
