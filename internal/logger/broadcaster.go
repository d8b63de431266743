package logger

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// tailSize is how many entries the in-memory log tail keeps for the
// /api/v1/logs backfill.
const tailSize = 500

// Broadcaster is where parsed entries get re-published; the shell hub
// satisfies it.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// LogEntry is one parsed log line, shaped for the shell's log view.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBroadcaster sits in the zerolog writer chain: every entry lands in a
// bounded tail for backfill and is re-emitted to the shell as a logs:entry
// event. The launcher runs hidden most of its life, so this is the main
// way to see what the background monitor has been doing.
type LogBroadcaster struct {
	mu   sync.RWMutex
	hub  Broadcaster
	tail *logTail
}

// NewLogBroadcaster creates the broadcaster. hub may be nil until the
// shell hub exists; entries still accumulate in the tail.
func NewLogBroadcaster(hub Broadcaster, size int) *LogBroadcaster {
	if size <= 0 {
		size = tailSize
	}
	return &LogBroadcaster{hub: hub, tail: newLogTail(size)}
}

// SetHub attaches the shell hub once it exists.
func (b *LogBroadcaster) SetHub(hub Broadcaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hub = hub
}

// Write implements io.Writer against zerolog's JSON output. Malformed
// lines are swallowed; a logging problem must never become a log-write
// error loop.
func (b *LogBroadcaster) Write(p []byte) (int, error) {
	entry, err := parseEntry(p)
	if err != nil {
		return len(p), nil
	}

	b.tail.push(entry)

	b.mu.RLock()
	hub := b.hub
	b.mu.RUnlock()
	if hub != nil {
		_ = hub.Broadcast("logs:entry", entry)
	}
	return len(p), nil
}

// RecentLogs returns the buffered entries, oldest first.
func (b *LogBroadcaster) RecentLogs() []LogEntry {
	return b.tail.snapshot()
}

// parseEntry lifts zerolog's well-known keys out of one JSON line and
// keeps whatever remains as free-form fields.
func parseEntry(p []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return LogEntry{}, err
	}

	take := func(key string) string {
		s, _ := raw[key].(string)
		delete(raw, key)
		return s
	}

	entry := LogEntry{
		Timestamp: take(zerolog.TimestampFieldName),
		Level:     take(zerolog.LevelFieldName),
		Message:   take(zerolog.MessageFieldName),
		Component: take("component"),
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, nil
}
