package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/eventlens/api/internal/artifact"
	"github.com/eventlens/api/internal/jobstore"
	"github.com/eventlens/api/internal/model"
	"github.com/eventlens/api/internal/workspace"
)

// stubLibrary serves a fixed photo set.
type stubLibrary struct {
	photos []model.Photo
}

func (l *stubLibrary) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return &model.Event{ID: eventID, Slug: "sara-wedding"}, nil
}

func (l *stubLibrary) ListApproved(ctx context.Context, eventID string, max int) ([]model.Photo, error) {
	photos := l.photos
	if max > 0 && len(photos) > max {
		photos = photos[:max]
	}
	return photos, nil
}

// stubEncoder writes a fake video instead of running ffmpeg.
type stubEncoder struct {
	fail bool

	mu       sync.Mutex
	manifest string
	filter   string
}

func (e *stubEncoder) Render(ctx context.Context, manifestPath, filter string, totalSeconds int, outputPath string, onProgress func(int)) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.manifest = string(data)
	e.filter = filter
	e.mu.Unlock()

	onProgress(65)
	onProgress(95)
	if e.fail {
		return fmt.Errorf("encoder exited with code 1: broken input")
	}
	return os.WriteFile(outputPath, []byte("mp4data"), 0o644)
}

// recordingStore wraps a Store and keeps every written snapshot.
type recordingStore struct {
	jobstore.Store
	mu      sync.Mutex
	history []model.ReelJob
}

func (s *recordingStore) Put(ctx context.Context, job *model.ReelJob) error {
	s.mu.Lock()
	s.history = append(s.history, *job)
	s.mu.Unlock()
	return s.Store.Put(ctx, job)
}

type workerFixture struct {
	worker    *ReelWorker
	store     *recordingStore
	artifacts *artifact.Store
	encoder   *stubEncoder
	workRoot  string
}

func newWorkerFixture(t *testing.T, library *stubLibrary, enc *stubEncoder) *workerFixture {
	t.Helper()
	store := &recordingStore{Store: jobstore.NewMemoryStore(time.Hour)}
	artifacts, err := artifact.NewStore(t.TempDir(), "/reels")
	if err != nil {
		t.Fatalf("failed to create artifact store: %v", err)
	}
	workRoot := t.TempDir()
	w := NewReelWorker(store, library, workspace.NewManager(workRoot), enc, artifacts, nil)
	return &workerFixture{worker: w, store: store, artifacts: artifacts, encoder: enc, workRoot: workRoot}
}

func newReelTask(t *testing.T, jobID string, payload model.ReelJobPayload) *asynq.Task {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(map[string]interface{}{
		"jobId":   jobID,
		"payload": json.RawMessage(payloadBytes),
	})
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask("reel:render", data)
}

func localPhotos(t *testing.T, n int) []model.Photo {
	t.Helper()
	dir := t.TempDir()
	photos := make([]model.Photo, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("guest%d.jpg", i)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("jpegdata"), 0o644); err != nil {
			t.Fatal(err)
		}
		photos = append(photos, model.Photo{
			ID:        fmt.Sprintf("p%d", i),
			FileName:  name,
			LocalPath: path,
			Status:    model.PhotoStatusApproved,
		})
	}
	return photos
}

func defaultOptions() model.RenderOptions {
	return model.RenderOptions{Duration: 3, MaxPhotos: 20, Resolution: model.Resolution720p}
}

func TestPipeline_NoEligiblePhotos(t *testing.T) {
	f := newWorkerFixture(t, &stubLibrary{}, &stubEncoder{})

	task := newReelTask(t, "job-a", model.ReelJobPayload{
		EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
	})
	if err := f.worker.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected pipeline error for empty photo set")
	}

	job, err := f.store.Get(context.Background(), "job-a")
	if err != nil {
		t.Fatalf("job record missing: %v", err)
	}
	if job.Status != model.JobStatusError {
		t.Errorf("expected error status, got %s", job.Status)
	}
	if !strings.Contains(strings.ToLower(job.Message), "no eligible photos") {
		t.Errorf("message should say no eligible photos: %q", job.Message)
	}
	if f.encoder.manifest != "" {
		t.Error("encoder must never run for an empty photo set")
	}
	reels, _ := f.artifacts.List("sara-wedding")
	if len(reels) != 0 {
		t.Errorf("no artifact may be produced: %v", reels)
	}
}

func TestPipeline_Success(t *testing.T) {
	f := newWorkerFixture(t, &stubLibrary{photos: localPhotos(t, 5)}, &stubEncoder{})

	task := newReelTask(t, "job-b", model.ReelJobPayload{
		EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
	})
	if err := f.worker.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	job, err := f.store.Get(context.Background(), "job-b")
	if err != nil {
		t.Fatalf("job record missing: %v", err)
	}
	if job.Status != model.JobStatusComplete || job.Progress != 100 {
		t.Errorf("expected complete/100, got %s/%d", job.Status, job.Progress)
	}
	if job.ArtifactPath == "" || !strings.Contains(job.ArtifactPath, "sara-wedding") {
		t.Errorf("artifact path must carry the event slug: %q", job.ArtifactPath)
	}
	if job.CompletedAt == nil {
		t.Error("completedAt must be set on terminal jobs")
	}

	reels, err := f.artifacts.List("sara-wedding")
	if err != nil {
		t.Fatal(err)
	}
	if len(reels) != 1 {
		t.Fatalf("expected exactly one artifact, got %d", len(reels))
	}

	// All five photos fit under maxPhotos=20, so all appear in the manifest.
	if got := strings.Count(f.encoder.manifest, "duration 3"); got != 5 {
		t.Errorf("expected 5 manifest slides, got %d:\n%s", got, f.encoder.manifest)
	}
	if !strings.HasPrefix(f.encoder.filter, "scale=1280:720") {
		t.Errorf("filter must target 720p: %s", f.encoder.filter)
	}
}

func TestPipeline_ProgressNeverRegresses(t *testing.T) {
	f := newWorkerFixture(t, &stubLibrary{photos: localPhotos(t, 5)}, &stubEncoder{})

	task := newReelTask(t, "job-m", model.ReelJobPayload{
		EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
	})
	if err := f.worker.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	prev := -1
	for _, snap := range f.store.history {
		if snap.Progress < prev {
			t.Fatalf("progress regressed: %d -> %d (%s)", prev, snap.Progress, snap.Status)
		}
		prev = snap.Progress
	}
	statuses := make([]model.JobStatus, 0, len(f.store.history))
	for _, snap := range f.store.history {
		if len(statuses) == 0 || statuses[len(statuses)-1] != snap.Status {
			statuses = append(statuses, snap.Status)
		}
	}
	want := []model.JobStatus{
		model.JobStatusPreparing,
		model.JobStatusDownloading,
		model.JobStatusProcessing,
		model.JobStatusEncoding,
		model.JobStatusComplete,
	}
	if len(statuses) != len(want) {
		t.Fatalf("unexpected phase sequence: %v", statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("phase %d: expected %s, got %s (full: %v)", i, want[i], statuses[i], statuses)
		}
	}
}

func TestPipeline_EncoderFailure(t *testing.T) {
	f := newWorkerFixture(t, &stubLibrary{photos: localPhotos(t, 2)}, &stubEncoder{fail: true})

	task := newReelTask(t, "job-f", model.ReelJobPayload{
		EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
	})
	if err := f.worker.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected pipeline error")
	}

	job, _ := f.store.Get(context.Background(), "job-f")
	if job.Status != model.JobStatusError {
		t.Errorf("expected error status, got %s", job.Status)
	}
	if !strings.Contains(job.Message, "Encoding failed") {
		t.Errorf("message should surface the encoder failure: %q", job.Message)
	}
	reels, _ := f.artifacts.List("sara-wedding")
	if len(reels) != 0 {
		t.Errorf("failed jobs must not leave artifacts: %v", reels)
	}
}

func TestPipeline_WorkspaceAlwaysDestroyed(t *testing.T) {
	cases := []struct {
		name string
		enc  *stubEncoder
	}{
		{"success", &stubEncoder{}},
		{"encoder failure", &stubEncoder{fail: true}},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWorkerFixture(t, &stubLibrary{photos: localPhotos(t, 2)}, tc.enc)
			jobID := fmt.Sprintf("job-ws-%d", i)
			task := newReelTask(t, jobID, model.ReelJobPayload{
				EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
			})
			f.worker.ProcessTask(context.Background(), task)

			if _, err := os.Stat(filepath.Join(f.workRoot, "reel-"+jobID)); !os.IsNotExist(err) {
				t.Errorf("workspace must be removed after the job: %v", err)
			}
		})
	}
}

func TestPipeline_ConcurrentJobsDistinctArtifacts(t *testing.T) {
	lib := &stubLibrary{photos: localPhotos(t, 3)}
	f := newWorkerFixture(t, lib, &stubEncoder{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task := newReelTask(t, fmt.Sprintf("job-c%d", i), model.ReelJobPayload{
				EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
			})
			if err := f.worker.ProcessTask(context.Background(), task); err != nil {
				t.Errorf("pipeline failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	reels, err := f.artifacts.List("sara-wedding")
	if err != nil {
		t.Fatal(err)
	}
	if len(reels) != 2 {
		t.Fatalf("expected two artifacts, got %v", reels)
	}
	if reels[0] == reels[1] {
		t.Errorf("concurrent jobs must produce distinct artifact names: %v", reels)
	}
}

func TestPipeline_TerminalPollIsStable(t *testing.T) {
	f := newWorkerFixture(t, &stubLibrary{photos: localPhotos(t, 2)}, &stubEncoder{})

	task := newReelTask(t, "job-i", model.ReelJobPayload{
		EventID: "evt-1", EventSlug: "sara-wedding", Options: defaultOptions(),
	})
	if err := f.worker.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	first, err := f.store.Get(context.Background(), "job-i")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := f.store.Get(context.Background(), "job-i")
		if err != nil {
			t.Fatal(err)
		}
		if *again != *first {
			t.Fatalf("terminal record drifted between polls: %+v vs %+v", again, first)
		}
	}
}
