package playback

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/parleygo/parley/pkg/audio"
)

// NewOtoContext opens the speaker through oto. The returned context's clock
// starts at zero when the device becomes ready.
func NewOtoContext(sampleRate, channels int) (OutputContext, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		// ~100ms device buffer keeps latency low without underruns.
		BufferSize: time.Millisecond * 100,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}
	<-ready
	return &otoContext{ctx: ctx, epoch: time.Now(), sampleRate: sampleRate}, nil
}

type otoContext struct {
	ctx        *oto.Context
	epoch      time.Time
	sampleRate int

	mu     sync.Mutex
	closed bool
}

func (c *otoContext) Now() float64 {
	return time.Since(c.epoch).Seconds()
}

func (c *otoContext) NewSource(samples []float32, sampleRate int) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("audio output is closed")
	}
	if sampleRate != c.sampleRate {
		return nil, fmt.Errorf("source sample rate %d does not match output rate %d", sampleRate, c.sampleRate)
	}
	pcm := audio.EncodeFrame(samples)
	return &otoSource{
		parent:   c,
		pcm:      pcm,
		duration: float64(len(samples)) / float64(sampleRate),
	}, nil
}

func (c *otoContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	// oto contexts cannot be closed; suspending stops all playback.
	return c.ctx.Suspend()
}

type otoSource struct {
	parent   *otoContext
	pcm      []byte
	duration float64

	mu        sync.Mutex
	player    *oto.Player
	playTimer *time.Timer
	doneTimer *time.Timer
	stopped   bool
}

func (s *otoSource) Duration() float64 { return s.duration }

func (s *otoSource) PlayAt(when float64, done func()) {
	delay := time.Duration((when - s.parent.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.playTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.player = s.parent.ctx.NewPlayer(bytes.NewReader(s.pcm))
		s.player.Play()
		s.doneTimer = time.AfterFunc(time.Duration(s.duration*float64(time.Second)), func() {
			s.mu.Lock()
			finished := !s.stopped
			if player := s.player; player != nil {
				s.player = nil
				s.mu.Unlock()
				_ = player.Close()
			} else {
				s.mu.Unlock()
			}
			if finished {
				done()
			}
		})
		s.mu.Unlock()
	})
}

func (s *otoSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.playTimer != nil {
		s.playTimer.Stop()
	}
	if s.doneTimer != nil {
		s.doneTimer.Stop()
	}
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player != nil {
		player.Pause()
		_ = player.Close()
	}
}
