// Package photos reads event and photo records from the platform's
// photo API. The pipeline only consumes them; moderation and uploads
// live in the main application.
package photos

import (
	"context"
	"errors"

	"github.com/eventlens/api/internal/model"
)

// ErrEventNotFound is returned when the platform knows no such event.
var ErrEventNotFound = errors.New("event not found")

// Library supplies the pipeline's read-only inputs.
type Library interface {
	// GetEvent returns the event's metadata or ErrEventNotFound.
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)

	// ListApproved returns approved photos for the event, newest
	// first, truncated to max. An existing event with no approved
	// photos yields an empty slice, not an error.
	ListApproved(ctx context.Context, eventID string, max int) ([]model.Photo, error)
}
