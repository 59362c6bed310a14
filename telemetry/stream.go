// Package telemetry buffers timestamped sensor readings for downstream
// consumers with bounded memory. The buffer is single-writer (the simulation
// loop) and multi-reader; each consumer tracks its own cursor and never
// blocks the producer.
package telemetry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// ErrCursorEvicted is returned when a consumer's cursor points at history
// that has been evicted under pressure. Consumers resume explicitly from
// OldestCursor rather than silently from an arbitrary point.
var ErrCursorEvicted = errors.New("telemetry: cursor evicted past available history")

// Stream is a bounded append-only ring buffer of sensor readings.
//
// Cursors are absolute offsets into the full history of the stream: cursor N
// addresses the N+1th reading ever appended. Append and eviction are atomic
// with respect to readers.
type Stream struct {
	mu sync.RWMutex

	buf  []model.SensorReading
	head int    // index of the oldest retained entry in buf
	size int    // retained entries
	base uint64 // absolute offset of the oldest retained entry

	evicted uint64
	onEvict func(n int)
}

// Option configures a Stream.
type Option func(*Stream)

// WithEvictionHook registers a callback invoked (under the writer lock) with
// the number of entries evicted by an append. Used to drive an observability
// counter.
func WithEvictionHook(fn func(n int)) Option {
	return func(s *Stream) { s.onEvict = fn }
}

// NewStream creates a stream retaining at most capacity readings.
func NewStream(capacity int, opts ...Option) *Stream {
	if capacity <= 0 {
		capacity = 1
	}
	s := &Stream{buf: make([]model.SensorReading, capacity)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds readings in order, evicting the oldest entries when full.
// Writer-side only; the simulation loop is the single caller.
func (s *Stream) Append(readings ...model.SensorReading) {
	if len(readings) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for _, r := range readings {
		if s.size == len(s.buf) {
			// Overwrite the oldest entry.
			s.head = (s.head + 1) % len(s.buf)
			s.base++
			s.size--
			dropped++
		}
		s.buf[(s.head+s.size)%len(s.buf)] = r
		s.size++
	}
	if dropped > 0 {
		s.evicted += uint64(dropped)
		if s.onEvict != nil {
			s.onEvict(dropped)
		}
	}
}

// ReadFrom returns up to limit readings starting at the given cursor, plus
// the cursor to resume from. limit <= 0 means no limit. A cursor pointing at
// evicted history fails with ErrCursorEvicted; a cursor at the end of the
// stream returns an empty batch.
func (s *Stream) ReadFrom(cursor uint64, limit int) ([]model.SensorReading, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cursor < s.base {
		return nil, cursor, fmt.Errorf("%w: oldest retained cursor is %d", ErrCursorEvicted, s.base)
	}
	end := s.base + uint64(s.size)
	if cursor >= end {
		return nil, cursor, nil
	}

	n := int(end - cursor)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]model.SensorReading, n)
	start := int(cursor - s.base)
	for i := 0; i < n; i++ {
		out[i] = s.buf[(s.head+start+i)%len(s.buf)]
	}
	return out, cursor + uint64(n), nil
}

// Latest returns copies of the most recent n readings in order.
func (s *Stream) Latest(n int) []model.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]model.SensorReading, n)
	start := s.size - n
	for i := 0; i < n; i++ {
		out[i] = s.buf[(s.head+start+i)%len(s.buf)]
	}
	return out
}

// OldestCursor returns the cursor of the oldest retained reading.
func (s *Stream) OldestCursor() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// EndCursor returns the cursor one past the newest reading; reading from it
// yields an empty batch until the next append.
func (s *Stream) EndCursor() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base + uint64(s.size)
}

// Len returns the number of retained readings.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Evictions returns the total number of readings evicted under pressure.
func (s *Stream) Evictions() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}
