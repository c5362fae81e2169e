// Package artifact manages the durable, publicly served directory of
// finished reels.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const videoExt = ".mp4"

// ErrNotFound is returned when a delete targets a file that is not in
// the store.
var ErrNotFound = errors.New("artifact not found")

// Store is the reel output directory plus the URL prefix it is served
// under.
type Store struct {
	dir          string
	publicPrefix string
}

func NewStore(dir, publicPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &Store{dir: dir, publicPrefix: strings.TrimSuffix(publicPrefix, "/")}, nil
}

// Finalize moves a finished render into the store under a fresh name
// built from the event slug, a timestamp and a random suffix, and
// returns its public path. The random suffix keeps two same-second
// renders of one event from colliding.
func (s *Store) Finalize(srcPath, eventSlug string) (string, error) {
	name := fmt.Sprintf("%s_%s_%s%s",
		eventSlug,
		time.Now().Format("20060102-150405"),
		uuid.New().String()[:8],
		videoExt,
	)
	dest := filepath.Join(s.dir, name)

	if err := moveFile(srcPath, dest); err != nil {
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return s.publicPath(name), nil
}

// List returns the public paths of all reels for the event, matched by
// slug substring and extension. Order is not guaranteed.
func (s *Store) List(eventSlug string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact dir: %w", err)
	}

	reels := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, eventSlug) && strings.HasSuffix(name, videoExt) {
			reels = append(reels, s.publicPath(name))
		}
	}
	return reels, nil
}

// Delete removes one reel by file name. The name is reduced to its
// base so traversal components cannot escape the store; a missing file
// is an error, not a no-op.
func (s *Store) Delete(filename string) error {
	base := filepath.Base(filename)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ErrNotFound
	}

	err := os.Remove(filepath.Join(s.dir, base))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

func (s *Store) publicPath(name string) string {
	return path.Join(s.publicPrefix, name)
}

// moveFile renames when possible and falls back to copy+remove for
// cross-device moves (workspaces usually live on tmpfs).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

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
	return os.Remove(src)
}
