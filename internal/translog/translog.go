// Package translog appends conversation turns to a newline-delimited JSON
// file, one object per line. The file is the durable, human-inspectable twin
// of the conversation_turns table: it survives database resets and can be
// tailed or shipped as-is.
//
// Writes are serialized with a mutex and use O_APPEND so concurrent turns
// never interleave bytes. Non-ASCII text (Arabic replies in particular) is
// written verbatim; encoding/json does not escape it.
package translog

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Entry is one logged conversation turn.
type Entry struct {
	TurnID    string    `json:"turn_id"`
	Timestamp time.Time `json:"timestamp"`
	InputText string    `json:"input_text"`
	Language  string    `json:"language"`
	Intent    string    `json:"intent"`
	Items     []string  `json:"items"`
	ReplyText string    `json:"reply_text"`
	AudioPath string    `json:"audio_path,omitempty"`
}

// Logger appends entries to a single NDJSON file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open opens (or creates) the log file for appending.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := &Logger{file: f}
	l.enc = json.NewEncoder(f)
	l.enc.SetEscapeHTML(false)
	return l, nil
}

// Append writes one entry as a single JSON line and syncs it to disk before
// returning. Entries from concurrent callers never interleave.
func (l *Logger) Append(e Entry) error {
	if e.Items == nil {
		e.Items = []string{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(e); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close closes the underlying file. Append must not be called afterwards.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
