package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bzd-chat/gateway/internal/config"
)

// Outcome values.
const (
	OutcomeSuccess  = "SUCCESS"
	OutcomeRejected = "REJECTED" // 4xx
	OutcomeError    = "ERROR"    // 5xx
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	RequestID string    `json:"request_id"`
	User      string    `json:"user"`
	Method    string    `json:"method"`
	Route     string    `json:"route"`
	Status    int       `json:"status"`
	Outcome   string    `json:"outcome"`
	Code      string    `json:"code,omitempty"`
	LatencyMs float64   `json:"latency_ms"`
}

// OutcomeFor classifies an HTTP status code.
func OutcomeFor(status int) string {
	switch {
	case status >= 500:
		return OutcomeError
	case status >= 400:
		return OutcomeRejected
	default:
		return OutcomeSuccess
	}
}

// Logger appends entries as JSON lines. It is safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	filePath string
}

// NewLogger creates a rotating file logger from configuration. It returns
// nil, nil when no audit file is configured.
func NewLogger(cfg config.LogConfig) (*Logger, error) {
	if cfg.AuditFile == "" {
		return nil, nil
	}

	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.AuditFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	return &Logger{
		out: &lumberjack.Logger{
			Filename:   cfg.AuditFile,
			MaxSize:    cfg.AuditMaxSizeMB,
			MaxBackups: cfg.AuditMaxBackups,
		},
		filePath: cfg.AuditFile,
	}, nil
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Record writes one entry. A zero Timestamp is set to now and a missing
// Outcome is derived from Status. Write failures go to stderr; auditing never
// fails a request.
func (l *Logger) Record(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeFor(entry.Status)
	}
	if entry.User == "" {
		entry.User = "anonymous"
	}

	line, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal audit entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.out.Write(append(line, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit entry: %v\n", err)
	}
}

// FilePath returns the audit file path, empty for writer loggers.
func (l *Logger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Rotate starts a new audit file. It is a no-op for writer loggers.
func (l *Logger) Rotate() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if r, ok := l.out.(interface{ Rotate() error }); ok {
		if err := r.Rotate(); err != nil {
			return fmt.Errorf("failed to rotate audit log: %w", err)
		}
	}
	return nil
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
