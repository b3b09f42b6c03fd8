package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NewTranscript opens a fresh transcript file for one probe run under dir and
// returns the writer plus the file path. Each run gets its own file named
// probe-<UTC timestamp>-<runID>.log; a one-shot tool has no use for rotation.
// If dir is empty or "-", output goes to io.Discard and the path is empty.
func NewTranscript(dir, runID string) (io.WriteCloser, string, error) {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(dir) == "-" {
		return nopWriteCloser{w: io.Discard}, "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("logging: create transcript dir: %w", err)
	}
	name := fmt.Sprintf("probe-%s-%s.log", time.Now().UTC().Format("20060102-150405"), runID)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("logging: open transcript: %w", err)
	}
	return f, path, nil
}

type nopWriteCloser struct {
	w io.Writer
}

func (n nopWriteCloser) Write(p []byte) (int, error) { return n.w.Write(p) }
func (n nopWriteCloser) Close() error                { return nil }
