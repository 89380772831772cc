// Package download names and saves exported spreadsheets and record images.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/qsurvey/internal/model"
)

const defaultBatchLimit = 4

// ExportFilename names the spreadsheet for a date range.
func ExportFilename(from, to string) string {
	return fmt.Sprintf("survey-data-%s-to-%s.xlsx", from, to)
}

// ImageFilename names the file saved for a record's images: the image's own
// extension for a single file, an archive for several.
func ImageFilename(resultID string, files []string) string {
	base := sanitize(resultID)
	if len(files) == 1 {
		return base + model.ImageExt(files[0])
	}
	return base + ".zip"
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "record"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
}

// Save writes body to dir/name through a temp file so no partial file is
// ever left behind. It returns the final path and the bytes written.
func Save(dir, name string, body []byte) (string, int, error) {
	if dir == "" {
		return "", 0, fmt.Errorf("download directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create download directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	tmpFile, err := os.CreateTemp(dir, ".qsurvey-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(body); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", 0, fmt.Errorf("failed to save %s: %w", name, err)
	}
	return path, len(body), nil
}

// Tracker records which rows have a download in flight.
type Tracker struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{busy: map[string]struct{}{}}
}

// Begin marks id busy. It returns false when id already has a download in flight.
func (t *Tracker) Begin(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.busy[id]; ok {
		return false
	}
	t.busy[id] = struct{}{}
	return true
}

// Done clears id.
func (t *Tracker) Done(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.busy, id)
}

// Busy reports whether id has a download in flight.
func (t *Tracker) Busy(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.busy[id]
	return ok
}

// Len returns the number of downloads in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.busy)
}

// Result is the outcome of one download in a batch.
type Result struct {
	ID   string
	Path string
	Size int
	Err  error
}

// Fetcher downloads and saves one row, returning the saved path and size.
type Fetcher func(ctx context.Context, id string) (string, int, error)

// Batch runs fn for every id with at most limit downloads at once. A failed
// row does not stop the others; results keep the order of ids.
func Batch(ctx context.Context, ids []string, limit int, fn Fetcher) []Result {
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	results := make([]Result, len(ids))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		i, id := i, id // per-iteration copy (go.mod targets go 1.21)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{ID: id, Err: err}
				return nil
			}
			path, size, err := fn(ctx, id)
			results[i] = Result{ID: id, Path: path, Size: size, Err: err}
			return nil
		})
	}
	// Workers never return an error; failures are carried per row.
	_ = g.Wait()
	return results
}
