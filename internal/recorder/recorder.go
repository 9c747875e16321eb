// Package recorder provides the best-effort logging collaborator. Records are
// appended as JSON lines; failures are swallowed after a single warning so
// the response path is never blocked.
package recorder

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// FileRecorder appends plan records to a JSONL file.
type FileRecorder struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	enc      *json.Encoder
	warnOnce sync.Once
}

// NewFileRecorder opens (or creates) the record file in append mode.
func NewFileRecorder(path string) (*FileRecorder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, peaceagent.NewConfigurationError("failed to open record file", err)
	}
	return &FileRecorder{
		path: path,
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record appends one plan record. Errors are logged once and then swallowed.
func (r *FileRecorder) Record(ctx context.Context, record peaceagent.PlanRecord) error {
	if err := ctx.Err(); err != nil {
		return nil
	}
	r.mu.Lock()
	err := r.enc.Encode(record)
	r.mu.Unlock()
	if err != nil {
		r.warnOnce.Do(func() {
			log.Printf("Recorder: failed to append to %s, further errors suppressed: %v", r.path, err)
		})
	}
	return nil
}

// Close releases the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
