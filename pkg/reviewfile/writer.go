// Package reviewfile persists rendered review documents.
package reviewfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// DefaultDir is where review documents are written when no directory is
// configured.
const DefaultDir = "output/meeting-reviews"

const (
	prefix    = "PENDING_REVIEW_"
	extension = ".txt"

	// LockDir holds the per-meeting lock files, apart from the documents.
	LockDir = ".locks"

	lockRetryDelay = 50 * time.Millisecond
)

// FileName returns the review document name for a meeting ID.
func FileName(meetingID string) string {
	return prefix + meetingID + extension
}

// IsReviewFile reports whether name looks like a generated review document.
func IsReviewFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, prefix) && strings.HasSuffix(base, extension)
}

// Writer writes review documents into Dir.
type Writer struct {
	Dir string
}

// NewWriter returns a Writer for dir, or DefaultDir when dir is empty.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{Dir: dir}
}

// LockPath returns the lock file guarding writes for meetingID.
func (w *Writer) LockPath(meetingID string) string {
	return filepath.Join(w.Dir, LockDir, meetingID+".lock")
}

// Path returns where the document for meetingID is written.
func (w *Writer) Path(meetingID string) string {
	return filepath.Join(w.Dir, FileName(meetingID))
}

// Write stores content as the review document for meetingID, replacing any
// previous version. Concurrent writers for the same meeting are serialized
// through a lock file, and readers only ever see a complete document.
func (w *Writer) Write(ctx context.Context, meetingID, content string) (string, error) {
	if strings.TrimSpace(meetingID) == "" || strings.ContainsAny(meetingID, `/\`) {
		return "", fmt.Errorf("invalid meeting id %q", meetingID)
	}
	if err := os.MkdirAll(filepath.Join(w.Dir, LockDir), 0o755); err != nil {
		return "", fmt.Errorf("create review dir: %w", err)
	}

	lock := flock.New(w.LockPath(meetingID))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("acquire review lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("acquire review lock: %s is busy", lock.Path())
	}
	defer lock.Unlock()

	dest := w.Path(meetingID)
	tmp, err := os.CreateTemp(w.Dir, "."+FileName(meetingID)+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp review: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write review: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync review: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close review: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod review: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move review into place: %w", err)
	}
	return dest, nil
}
