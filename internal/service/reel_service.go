package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/eventlens/api/internal/artifact"
	"github.com/eventlens/api/internal/jobstore"
	"github.com/eventlens/api/internal/model"
	"github.com/eventlens/api/internal/photos"
)

const TaskTypeReel = "reel:render"

// Enqueuer is the slice of asynq.Client the service needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReelService admits render jobs and answers the read-side operations:
// polling, listing and deleting reels. Render submission is
// fire-and-forget; everything after admission is observable only
// through the registry.
type ReelService struct {
	store      jobstore.Store
	library    photos.Library
	artifacts  *artifact.Store
	enqueuer   Enqueuer
	jobTimeout time.Duration
}

func NewReelService(store jobstore.Store, library photos.Library, artifacts *artifact.Store, enqueuer Enqueuer, jobTimeout time.Duration) *ReelService {
	return &ReelService{
		store:      store,
		library:    library,
		artifacts:  artifacts,
		enqueuer:   enqueuer,
		jobTimeout: jobTimeout,
	}
}

// SubmitReel validates the event synchronously, registers the job and
// queues it. The caller gets the job ID back before any pipeline phase
// runs.
func (s *ReelService) SubmitReel(ctx context.Context, eventID string, opts model.RenderOptions) (*model.SubmitReelResponse, error) {
	event, err := s.library.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	opts.ApplyDefaults()

	jobID := uuid.New().String()
	now := time.Now()
	job := &model.ReelJob{
		ID:        jobID,
		EventID:   eventID,
		EventSlug: event.Slug,
		Status:    model.JobStatusPreparing,
		Progress:  0,
		Message:   "Queued",
		Options:   opts,
		CreatedAt: now,
	}
	if err := s.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	task, err := newReelTask(jobID, model.ReelJobPayload{
		EventID:   eventID,
		EventSlug: event.Slug,
		Options:   opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// No retries: a failed render is re-submitted by the caller as a
	// brand-new job.
	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue("reel"),
		asynq.MaxRetry(0),
		asynq.Timeout(s.jobTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.SubmitReelResponse{
		JobID:     jobID,
		Status:    model.JobStatusPreparing,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the registry snapshot for a job.
func (s *ReelService) GetStatus(ctx context.Context, jobID string) (*model.ReelStatusResponse, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.ReelStatusResponse{
		JobID:        job.ID,
		EventID:      job.EventID,
		Status:       job.Status,
		Progress:     job.Progress,
		Message:      job.Message,
		Options:      job.Options,
		ArtifactPath: job.ArtifactPath,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}, nil
}

// ListReels returns the public paths of the event's finished reels.
func (s *ReelService) ListReels(ctx context.Context, eventID string) (*model.ListReelsResponse, error) {
	event, err := s.library.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	reels, err := s.artifacts.List(event.Slug)
	if err != nil {
		return nil, err
	}

	return &model.ListReelsResponse{EventID: eventID, Reels: reels}, nil
}

// DeleteReel removes one finished reel by file name.
func (s *ReelService) DeleteReel(ctx context.Context, eventID, filename string) error {
	if _, err := s.library.GetEvent(ctx, eventID); err != nil {
		return err
	}
	return s.artifacts.Delete(filename)
}

func newReelTask(jobID string, payload model.ReelJobPayload) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	taskPayload := map[string]interface{}{
		"jobId":   jobID,
		"payload": json.RawMessage(payloadBytes),
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeReel, data), nil
}
