package model

import "time"

// Photo is one approved guest photo eligible for a reel. Photos are
// read-only inputs sourced from the platform's photo API; the pipeline
// never writes them back.
type Photo struct {
	ID        string      `json:"id"`
	EventID   string      `json:"eventId"`
	FileName  string      `json:"fileName"`
	URL       string      `json:"url,omitempty"`
	LocalPath string      `json:"localPath,omitempty"`
	Status    PhotoStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Event is the slice of event metadata the pipeline needs: identity
// plus the slug used in artifact filenames.
type Event struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}
