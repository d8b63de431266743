package logger

import "sync"

// logTail keeps the most recent log entries in a fixed-size circular buffer
// so a shell connecting mid-run can backfill its log view with what the
// launcher did before the window opened.
type logTail struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	wrapped bool
}

func newLogTail(capacity int) *logTail {
	return &logTail{entries: make([]LogEntry, capacity)}
}

// push records one entry, overwriting the oldest once the buffer is full.
func (t *logTail) push(e LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[t.next] = e
	t.next = (t.next + 1) % len(t.entries)
	if t.next == 0 {
		t.wrapped = true
	}
}

// snapshot returns the buffered entries, oldest first.
func (t *logTail) snapshot() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.wrapped {
		out := make([]LogEntry, t.next)
		copy(out, t.entries[:t.next])
		return out
	}

	out := make([]LogEntry, 0, len(t.entries))
	out = append(out, t.entries[t.next:]...)
	out = append(out, t.entries[:t.next]...)
	return out
}

// size reports how many entries are currently buffered.
func (t *logTail) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.wrapped {
		return len(t.entries)
	}
	return t.next
}
