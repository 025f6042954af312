// Package sink converts records to newline-delimited JSON and routes
// them to append-only day files.
package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
)

// Router appends one JSON line per record to a file named by
// (stream, calendar day) under the root path. Every write opens,
// appends and closes the destination so an abrupt restart never leaves
// a corrupt in-flight handle; directories are created on demand.
type Router struct {
	root   string
	logger *slog.Logger

	// Serializes writes so concurrent hosts cannot interleave lines
	// within a file.
	mu sync.Mutex
}

// NewRouter creates a router writing under root.
func NewRouter(root string, logger *slog.Logger) (*Router, error) {
	if root == "" {
		return nil, fmt.Errorf("sink root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create sink root: %w", err)
	}
	return &Router{
		root:   root,
		logger: logger.With("component", "sink"),
	}, nil
}

// Path returns the destination file for a stream on a calendar day.
func (r *Router) Path(stream string, day time.Time) string {
	name := fmt.Sprintf("%s_%s.jsonl", stream, day.UTC().Format("20060102"))
	return filepath.Join(r.root, name)
}

// Write appends one record. The caller decides whether a failure is
// logged-and-dropped; Write itself never retries.
func (r *Router) Write(stream string, day time.Time, rec model.Emitted) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", rec.RecordType(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(stream, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sink dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open sink %s: %w", path, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("append sink %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close sink %s: %w", path, err)
	}
	return nil
}

// WriteDropping appends one record, logging and dropping it on failure.
// The stream stays available whatever happens to a single line.
func (r *Router) WriteDropping(stream string, day time.Time, rec model.Emitted) {
	if err := r.Write(stream, day, rec); err != nil {
		r.logger.Error("sink_write_dropped",
			"stream", stream,
			"record_type", rec.RecordType(),
			"error", err,
		)
	}
}
