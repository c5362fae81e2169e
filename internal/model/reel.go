package model

import "time"

// RenderOptions are the user-supplied knobs for a highlight reel.
type RenderOptions struct {
	Duration   int        `json:"duration" validate:"omitempty,min=1,max=30"`
	MaxPhotos  int        `json:"maxPhotos" validate:"omitempty,min=1,max=500"`
	Resolution Resolution `json:"resolution" validate:"omitempty,oneof=720p 1080p 4k"`
	Transition Transition `json:"transition" validate:"omitempty,oneof=fade zoom none"`
}

// ApplyDefaults fills zero-valued options with their defaults.
func (o *RenderOptions) ApplyDefaults() {
	if o.Duration == 0 {
		o.Duration = 3
	}
	if o.MaxPhotos == 0 {
		o.MaxPhotos = 50
	}
	if o.Resolution == "" {
		o.Resolution = Resolution1080p
	}
	if o.Transition == "" {
		o.Transition = TransitionNone
	}
}

// ReelJob is the registry record for one highlight-reel render.
// It is written only by the worker goroutine that owns the job.
type ReelJob struct {
	ID           string        `json:"jobId"`
	EventID      string        `json:"eventId"`
	EventSlug    string        `json:"-"`
	Status       JobStatus     `json:"status"`
	Progress     int           `json:"progress"`
	Message      string        `json:"message,omitempty"`
	Options      RenderOptions `json:"options"`
	ArtifactPath string        `json:"artifactPath,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// ReelJobPayload is the asynq task payload for a render job.
type ReelJobPayload struct {
	EventID   string        `json:"eventId"`
	EventSlug string        `json:"eventSlug"`
	Options   RenderOptions `json:"options"`
}

// SubmitReelRequest is the body of POST /api/events/:eventId/reel.
type SubmitReelRequest struct {
	RenderOptions
}

// SubmitReelResponse is returned when a render job is accepted.
type SubmitReelResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReelStatusResponse is the poll endpoint's view of a job.
type ReelStatusResponse struct {
	JobID        string        `json:"jobId"`
	EventID      string        `json:"eventId"`
	Status       JobStatus     `json:"status"`
	Progress     int           `json:"progress"`
	Message      string        `json:"message,omitempty"`
	Options      RenderOptions `json:"options"`
	ArtifactPath string        `json:"artifactPath,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// ListReelsResponse is the list endpoint's payload.
type ListReelsResponse struct {
	EventID string   `json:"eventId"`
	Reels   []string `json:"reels"`
}
