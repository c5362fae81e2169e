// Package workspace manages the ephemeral per-job directory holding
// copied assets and the concat manifest. A workspace belongs to exactly
// one job and never outlives it.
package workspace

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eventlens/api/internal/model"
)

// Workspace is a job-exclusive scratch directory.
type Workspace struct {
	JobID string
	Dir   string
}

// Manager creates, fills and destroys workspaces under a common root.
type Manager struct {
	root       string
	httpClient *http.Client
}

func NewManager(root string) *Manager {
	return &Manager{
		root: root,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Create allocates a fresh empty directory named by the job ID.
func (m *Manager) Create(jobID string) (*Workspace, error) {
	dir := filepath.Join(m.root, "reel-"+jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{JobID: jobID, Dir: dir}, nil
}

// Materialize copies or downloads each photo into the workspace under a
// zero-padded sequence name keeping the original extension. A photo
// whose byte-source cannot be resolved is skipped, not fatal. Returned
// paths keep the input order. onProgress is called with the index of
// each photo as it is handled, resolved or not.
func (m *Manager) Materialize(ctx context.Context, ws *Workspace, photos []model.Photo, onProgress func(index int)) []string {
	var paths []string
	for i, photo := range photos {
		dest := filepath.Join(ws.Dir, fmt.Sprintf("%04d%s", i+1, photoExt(photo)))

		var err error
		switch {
		case photo.LocalPath != "":
			err = copyFile(photo.LocalPath, dest)
		case photo.URL != "":
			err = m.download(ctx, photo.URL, dest)
		default:
			err = fmt.Errorf("photo %s has no byte source", photo.ID)
		}

		if err != nil {
			log.Printf("Skipping photo %s for job %s: %v", photo.ID, ws.JobID, err)
		} else {
			paths = append(paths, dest)
		}

		if onProgress != nil {
			onProgress(i)
		}
	}
	return paths
}

// Destroy removes the workspace directory. Best effort: a failure is
// logged and swallowed so it can never mask the job's real outcome.
func (m *Manager) Destroy(ws *Workspace) {
	if ws == nil {
		return
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		log.Printf("Failed to remove workspace %s: %v", ws.Dir, err)
	}
}

func (m *Manager) download(ctx context.Context, srcURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}

func photoExt(photo model.Photo) string {
	name := photo.FileName
	if name == "" {
		if photo.LocalPath != "" {
			name = photo.LocalPath
		} else {
			name = photo.URL
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}
