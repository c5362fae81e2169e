package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/eventlens/api/internal/jobstore"
	"github.com/eventlens/api/internal/model"
	"github.com/eventlens/api/internal/photos"
	"github.com/eventlens/api/internal/reel"
	"github.com/eventlens/api/internal/websocket"
	"github.com/eventlens/api/internal/workspace"
)

const manifestName = "manifest.txt"

// Encoder renders a concat manifest plus filter chain into an output
// file, reporting progress as it goes.
type Encoder interface {
	Render(ctx context.Context, manifestPath, filter string, totalSeconds int, outputPath string, onProgress func(percent int)) error
}

// ArtifactSink receives the finished render.
type ArtifactSink interface {
	Finalize(srcPath, eventSlug string) (publicPath string, err error)
}

// ReelWorker runs the render pipeline for one job at a time. Each job
// moves through preparing, downloading, processing and encoding before
// landing on complete or error; every phase transition is written to
// the job registry and mirrored to the hub.
type ReelWorker struct {
	store      jobstore.Store
	library    photos.Library
	workspaces *workspace.Manager
	encoder    Encoder
	artifacts  ArtifactSink
	hub        *websocket.Hub
}

func NewReelWorker(store jobstore.Store, library photos.Library, workspaces *workspace.Manager, enc Encoder, artifacts ArtifactSink, hub *websocket.Hub) *ReelWorker {
	return &ReelWorker{
		store:      store,
		library:    library,
		workspaces: workspaces,
		encoder:    enc,
		artifacts:  artifacts,
		hub:        hub,
	}
}

// ProcessTask handles one reel render task.
func (w *ReelWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	var payload model.ReelJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reel payload: %w", err)
	}

	job, err := w.store.Get(ctx, taskPayload.JobID)
	if err != nil {
		if !errors.Is(err, jobstore.ErrNotFound) {
			return err
		}
		// Registry record expired before the task ran; rebuild it
		// from the payload so progress is still observable.
		job = &model.ReelJob{
			ID:        taskPayload.JobID,
			EventID:   payload.EventID,
			Status:    model.JobStatusPreparing,
			Options:   payload.Options,
			CreatedAt: time.Now(),
		}
	}
	job.EventSlug = payload.EventSlug

	log.Printf("Starting reel job %s for event %s", job.ID, job.EventID)
	return w.run(ctx, job)
}

func (w *ReelWorker) run(ctx context.Context, job *model.ReelJob) error {
	now := time.Now()
	job.StartedAt = &now
	w.setStatus(ctx, job, model.JobStatusPreparing, 0, "Preparing workspace")

	ws, err := w.workspaces.Create(job.ID)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("Failed to prepare workspace: %v", err))
	}
	// Exactly one removal per job, whatever path we exit through.
	defer w.workspaces.Destroy(ws)

	selected, err := w.library.ListApproved(ctx, job.EventID, job.Options.MaxPhotos)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("Failed to list photos: %v", err))
	}
	if len(selected) == 0 {
		return w.fail(ctx, job, "No eligible photos for this event")
	}

	w.setStatus(ctx, job, model.JobStatusDownloading, 10, "Collecting photos")
	total := len(selected)
	paths := w.workspaces.Materialize(ctx, ws, selected, func(index int) {
		pct := 10 + (index+1)*30/total
		w.setStatus(ctx, job, model.JobStatusDownloading, pct,
			fmt.Sprintf("Collecting photos (%d/%d)", index+1, total))
	})
	if len(paths) == 0 {
		return w.fail(ctx, job, "No eligible photos for this event")
	}

	w.setStatus(ctx, job, model.JobStatusProcessing, 40, "Building render plan")
	plan := reel.Build(paths, job.Options)
	manifestPath := filepath.Join(ws.Dir, manifestName)
	if err := writeManifest(manifestPath, plan); err != nil {
		return w.fail(ctx, job, fmt.Sprintf("Failed to write manifest: %v", err))
	}

	w.setStatus(ctx, job, model.JobStatusEncoding, 50, "Encoding video")
	outputPath := filepath.Join(ws.Dir, "reel.mp4")
	err = w.encoder.Render(ctx, manifestPath, plan.Filter, plan.TotalSeconds(), outputPath, func(percent int) {
		w.setStatus(ctx, job, model.JobStatusEncoding, percent, "Encoding video")
	})
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("Encoding failed: %v", err))
	}

	publicPath, err := w.artifacts.Finalize(outputPath, job.EventSlug)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("Failed to store reel: %v", err))
	}

	job.ArtifactPath = publicPath
	done := time.Now()
	job.CompletedAt = &done
	w.setStatus(ctx, job, model.JobStatusComplete, 100, "Reel ready")
	if w.hub != nil {
		w.hub.BroadcastComplete(job.ID, publicPath)
	}

	log.Printf("Reel job %s complete: %s", job.ID, publicPath)
	return nil
}

func writeManifest(path string, plan *reel.Plan) error {
	return os.WriteFile(path, []byte(plan.Manifest()), 0o644)
}

// setStatus writes a phase transition to the registry and mirrors it
// to the hub. Progress never regresses within a job; stale updates are
// clamped to the high-water mark.
func (w *ReelWorker) setStatus(ctx context.Context, job *model.ReelJob, status model.JobStatus, progress int, message string) {
	if progress < job.Progress && status != model.JobStatusError {
		progress = job.Progress
	}
	job.Status = status
	job.Progress = progress
	job.Message = message

	if err := w.store.Put(ctx, job); err != nil {
		log.Printf("Failed to update job %s: %v", job.ID, err)
	}
	if w.hub != nil {
		w.hub.BroadcastProgress(job.ID, status, progress, message)
	}
}

// fail records the terminal error status. Workspace cleanup is owned
// by the deferred Destroy in run.
func (w *ReelWorker) fail(ctx context.Context, job *model.ReelJob, message string) error {
	done := time.Now()
	job.CompletedAt = &done
	w.setStatus(ctx, job, model.JobStatusError, 0, message)
	if w.hub != nil {
		w.hub.BroadcastError(job.ID, "RENDER_FAILED", message)
	}
	log.Printf("Reel job %s failed: %s", job.ID, message)
	return fmt.Errorf("reel job %s: %s", job.ID, message)
}
