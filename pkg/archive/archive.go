// Package archive stores raw transcripts as zstd files next to the review
// documents generated from them.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Subdir is the directory under the output dir that holds archives.
const Subdir = "archive"

const suffix = ".txt.zst"

// Path returns the deterministic archive path for a meeting ID.
func Path(outputDir, meetingID string) string {
	return filepath.Join(outputDir, Subdir, meetingID+suffix)
}

// Write compresses transcript into outputDir/archive/<meetingID>.txt.zst,
// replacing any previous archive for the same meeting. Returns the path.
func Write(outputDir, meetingID, transcript string) (string, error) {
	if strings.TrimSpace(meetingID) == "" || strings.ContainsAny(meetingID, `/\`) {
		return "", fmt.Errorf("invalid meeting id %q", meetingID)
	}

	dest := Path(outputDir, meetingID)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+meetingID+"-*.zst")
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(encoder, strings.NewReader(transcript)); err != nil {
		encoder.Close()
		tmp.Close()
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("finalize compression: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move archive into place: %w", err)
	}
	return dest, nil
}

// Decompress reads an archive back into the original transcript.
func Decompress(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return "", fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoder); err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	return buf.String(), nil
}

// Exists reports whether an archive exists for meetingID.
func Exists(outputDir, meetingID string) bool {
	_, err := os.Stat(Path(outputDir, meetingID))
	return err == nil
}
