package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    string    `json:"action"`
	Radio     string    `json:"radio"`
	Outcome   string    `json:"outcome"`
	LatencyMs int64     `json:"latencyMs"`
}

// Logger appends audit entries to <dir>/audit.jsonl.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	log  zerolog.Logger
}

// NewLogger creates the audit log directory and opens the log file for
// append-only writing.
func NewLogger(dir string, log zerolog.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create audit log directory")
	}

	path := filepath.Join(dir, "audit.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open audit log file")
	}

	return &Logger{file: f, log: log}, nil
}

// LogAction records one backend invocation. Write failures are logged
// and absorbed; audit must never fail the coordinator.
func (l *Logger) LogAction(ctx context.Context, action, radio, outcome string, latency time.Duration) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Radio:     radio,
		Outcome:   outcome,
		LatencyMs: latency.Milliseconds(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		l.log.Error().Err(err).Msg("marshal audit entry")
		return
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		l.log.Error().Err(err).Msg("write audit entry")
	}
}

// Close syncs and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Sync(); err != nil {
		return errors.Wrap(err, "sync audit log")
	}
	return l.file.Close()
}
