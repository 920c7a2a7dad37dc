package playback

import (
	"testing"

	"github.com/rs/zerolog"
)

// fakeOutput is a deterministic OutputContext with a manually advanced clock.
type fakeOutput struct {
	now     float64
	closed  bool
	created []*fakeSource
}

func (f *fakeOutput) Now() float64 { return f.now }

func (f *fakeOutput) NewSource(samples []float32, sampleRate int) (Source, error) {
	src := &fakeSource{duration: float64(len(samples)) / float64(sampleRate)}
	f.created = append(f.created, src)
	return src, nil
}

func (f *fakeOutput) Close() error {
	f.closed = true
	return nil
}

func (f *fakeOutput) sources(t *testing.T) []*fakeSource {
	t.Helper()
	if len(f.created) == 0 {
		t.Fatal("no sources were created")
	}
	return f.created
}

type fakeSource struct {
	duration float64
	startAt  float64
	played   bool
	stopped  bool
	done     func()
}

func (s *fakeSource) PlayAt(when float64, done func()) {
	s.startAt = when
	s.played = true
	s.done = done
}

func (s *fakeSource) Stop() { s.stopped = true }

func (s *fakeSource) Duration() float64 { return s.duration }

func chunk(seconds float64, sampleRate int) []float32 {
	return make([]float32, int(seconds*float64(sampleRate)))
}

func TestSchedule_BackToBackStartTimes(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	s := NewScheduler(out, zerolog.Nop())

	// Output clock stays behind the cursor throughout.
	durations := []float64{0.5, 0.3, 0.2}
	wantStarts := []float64{0.0, 0.5, 0.8}
	for i, d := range durations {
		start, err := s.Schedule(chunk(d, 24000), 24000)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if start != wantStarts[i] {
			t.Fatalf("chunk %d start = %v, want %v", i, start, wantStarts[i])
		}
	}
	if got := s.Cursor(); got != 1.0 {
		t.Errorf("cursor = %v, want 1.0", got)
	}
	if got := s.ActiveCount(); got != 3 {
		t.Errorf("active = %d, want 3", got)
	}
}

func TestSchedule_CursorCatchesUpToClock(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	s := NewScheduler(out, zerolog.Nop())

	if _, err := s.Schedule(chunk(0.5, 24000), 24000); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// A long silence: the clock overtakes the cursor before the next chunk.
	out.now = 4.25
	start, err := s.Schedule(chunk(0.25, 24000), 24000)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if start != 4.25 {
		t.Errorf("start = %v, want 4.25", start)
	}
	if got := s.Cursor(); got != 4.5 {
		t.Errorf("cursor = %v, want 4.5", got)
	}
}

func TestSchedule_CursorMonotonicWithoutInterrupt(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	s := NewScheduler(out, zerolog.Nop())

	var prevStart, prevDuration float64
	clocks := []float64{0, 0.1, 0.05, 2.0, 1.9}
	for i, now := range clocks {
		out.now = now
		start, err := s.Schedule(chunk(0.3, 24000), 24000)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if i > 0 && start < prevStart+prevDuration {
			t.Fatalf("chunk %d starts at %v, before previous end %v", i, start, prevStart+prevDuration)
		}
		prevStart, prevDuration = start, 0.3
	}
}

func TestSchedule_NaturalCompletionRemovesFromActiveSet(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	s := NewScheduler(out, zerolog.Nop())

	if _, err := s.Schedule(chunk(0.5, 24000), 24000); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	cursorBefore := s.Cursor()

	// Natural completion only removes the unit; the cursor stays put.
	out.sources(t)[0].done()
	if got := s.ActiveCount(); got != 0 {
		t.Errorf("active after completion = %d, want 0", got)
	}
	if got := s.Cursor(); got != cursorBefore {
		t.Errorf("cursor after completion = %v, want %v", got, cursorBefore)
	}
}

func TestInterrupt_ClearsStateAndStopsSources(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	s := NewScheduler(out, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := s.Schedule(chunk(0.4, 24000), 24000); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}

	s.Interrupt()
	if got := s.ActiveCount(); got != 0 {
		t.Errorf("active after interrupt = %d, want 0", got)
	}
	if got := s.Cursor(); got != 0 {
		t.Errorf("cursor after interrupt = %v, want 0", got)
	}
	for i, src := range out.sources(t) {
		if !src.stopped {
			t.Errorf("source %d not stopped", i)
		}
	}
}

func TestInterrupt_EmptySetIsNoOp(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&fakeOutput{}, zerolog.Nop())
	s.Interrupt()
	s.Interrupt()
	if got := s.Cursor(); got != 0 {
		t.Errorf("cursor = %v, want 0", got)
	}
	if got := s.ActiveCount(); got != 0 {
		t.Errorf("active = %d, want 0", got)
	}
}
