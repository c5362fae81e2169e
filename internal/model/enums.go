package model

// Job status. A job only ever moves forward through these phases;
// complete and error are terminal.
type JobStatus string

const (
	JobStatusPreparing   JobStatus = "preparing"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusEncoding    JobStatus = "encoding"
	JobStatusComplete    JobStatus = "complete"
	JobStatusError       JobStatus = "error"
)

// IsTerminal reports whether the status is a final state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// Resolution presets
type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	Resolution4K    Resolution = "4k"
)

var ValidResolutions = []Resolution{
	Resolution720p, Resolution1080p, Resolution4K,
}

// Transition styles
type Transition string

const (
	TransitionFade Transition = "fade"
	TransitionZoom Transition = "zoom"
	TransitionNone Transition = "none"
)

var ValidTransitions = []Transition{
	TransitionFade, TransitionZoom, TransitionNone,
}

// Photo moderation status
type PhotoStatus string

const (
	PhotoStatusPending  PhotoStatus = "pending"
	PhotoStatusApproved PhotoStatus = "approved"
	PhotoStatusRejected PhotoStatus = "rejected"
)
