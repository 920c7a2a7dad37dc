package voice

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleygo/parley/pkg/audio"
	"github.com/parleygo/parley/pkg/live"
	"github.com/parleygo/parley/pkg/playback"
)

// Reducer folds the inbound event stream into playback scheduling and
// finalized messages. Transcript fragments accumulate in named buffers on
// the reducer itself and flush only on turn completion; an interruption
// discards whatever partial text both sides had spoken.
//
// Handle must be called from a single goroutine.
type Reducer struct {
	scheduler *playback.Scheduler
	emit      func(Message)
	alive     func() bool
	log       zerolog.Logger

	inputTranscript  strings.Builder
	outputTranscript strings.Builder
}

// NewReducer creates a reducer. alive reports whether the playback path is
// still usable; audio arriving after it turns false is dropped.
func NewReducer(scheduler *playback.Scheduler, emit func(Message), alive func() bool, log zerolog.Logger) *Reducer {
	return &Reducer{
		scheduler: scheduler,
		emit:      emit,
		alive:     alive,
		log:       log,
	}
}

// Handle applies one inbound event.
func (r *Reducer) Handle(event live.Event) {
	switch e := event.(type) {
	case live.InputTranscriptEvent:
		r.inputTranscript.WriteString(e.Text)

	case live.OutputTranscriptEvent:
		r.outputTranscript.WriteString(e.Text)

	case live.AudioChunkEvent:
		if r.alive != nil && !r.alive() {
			r.log.Debug().Msg("dropping audio chunk after playback teardown")
			return
		}
		samples := audio.DecodeFrame(e.Data)
		if len(samples) == 0 {
			return
		}
		if _, err := r.scheduler.Schedule(samples, audio.PlaybackConfig().SampleRate); err != nil {
			r.log.Warn().Err(err).Msg("dropping unschedulable audio chunk")
		}

	case live.InterruptedEvent:
		r.scheduler.Interrupt()
		r.DiscardPartial()

	case live.TurnCompleteEvent:
		r.flushTurn()

	case live.GoAwayEvent:
		r.log.Warn().Str("time_left", e.TimeLeft).Msg("remote announced connection shutdown")
	}
}

// flushTurn finalizes the accumulated transcripts into at most one USER and
// one MODEL message, then resets the buffers.
func (r *Reducer) flushTurn() {
	if text := r.inputTranscript.String(); text != "" {
		r.emit(Message{Role: RoleUser, Text: text, At: time.Now()})
	}
	if text := r.outputTranscript.String(); text != "" {
		r.emit(Message{Role: RoleModel, Text: text, At: time.Now()})
	}
	r.inputTranscript.Reset()
	r.outputTranscript.Reset()
}

// DiscardPartial drops accumulated transcript fragments without emitting
// messages. Used on interruption and on session teardown.
func (r *Reducer) DiscardPartial() {
	r.inputTranscript.Reset()
	r.outputTranscript.Reset()
}
