// Package playback sequences decoded model audio for gapless output.
//
// The scheduler keeps a monotonic cursor: the earliest output-clock time at
// which the next chunk may begin. Chunks are scheduled back-to-back against
// that cursor rather than against their arrival time, so decode or network
// jitter never opens gaps between them.
package playback

import (
	"sync"

	"github.com/rs/zerolog"
)

// OutputContext is the audio output boundary: a monotonic clock plus a
// factory for playable units. Implementations must tolerate Close being
// called while sources are still playing.
type OutputContext interface {
	// Now returns the output clock time in seconds.
	Now() float64

	// NewSource builds a playable unit from normalized mono samples.
	NewSource(samples []float32, sampleRate int) (Source, error)

	// Close releases the output device. Idempotent.
	Close() error
}

// Source is one scheduled-but-not-yet-finished playback unit.
type Source interface {
	// PlayAt begins playback at the given output-clock time, calling done
	// exactly once when playback ends naturally. done is never called after
	// Stop.
	PlayAt(when float64, done func())

	// Stop halts playback immediately. Idempotent.
	Stop()

	// Duration returns the unit's play length in seconds.
	Duration() float64
}

// Scheduler owns the playback cursor and the set of in-flight sources.
type Scheduler struct {
	out OutputContext
	log zerolog.Logger

	mu     sync.Mutex
	cursor float64
	active map[int64]Source
	nextID int64
}

// NewScheduler creates a scheduler over the given output context.
func NewScheduler(out OutputContext, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		out:    out,
		log:    log,
		active: make(map[int64]Source),
	}
}

// Schedule queues one decoded chunk for gapless playback. The chunk starts
// at max(cursor, now); the cursor advances by the chunk's duration
// immediately so the next chunk queues contiguously regardless of when it
// arrives. Returns the scheduled start time.
func (s *Scheduler) Schedule(samples []float32, sampleRate int) (float64, error) {
	src, err := s.out.NewSource(samples, sampleRate)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if now := s.out.Now(); s.cursor < now {
		s.cursor = now
	}
	start := s.cursor
	s.cursor += src.Duration()

	id := s.nextID
	s.nextID++
	s.active[id] = src
	s.mu.Unlock()

	src.PlayAt(start, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	})

	s.log.Trace().Float64("start", start).Float64("duration", src.Duration()).Msg("scheduled audio chunk")
	return start, nil
}

// Interrupt stops every in-flight source, clears the active set, and resets
// the cursor to zero. Safe to call with an empty set.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stopped := make([]Source, 0, len(s.active))
	for id, src := range s.active {
		stopped = append(stopped, src)
		delete(s.active, id)
	}
	s.cursor = 0
	s.mu.Unlock()

	for _, src := range stopped {
		src.Stop()
	}
	if len(stopped) > 0 {
		s.log.Debug().Int("stopped", len(stopped)).Msg("playback interrupted")
	}
}

// Cursor returns the next playable time.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// ActiveCount returns the number of in-flight sources.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
