package capture

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/parleygo/parley/pkg/audio"
)

// FrameSize is the number of samples per processing tick.
const FrameSize = 4096

// SendFunc transmits one encoded PCM frame. It must not block on network
// acknowledgement; sends are fire-and-forget from the pipeline's view.
type SendFunc func(pcm []byte) error

// Pipeline accumulates captured samples into fixed-size frames, encodes
// each full frame to 16-bit PCM, and hands it to the send function. The
// pipeline has no stop method of its own: it goes inert when the device
// feeding it is stopped by its owner.
type Pipeline struct {
	send SendFunc
	log  zerolog.Logger

	mu  sync.Mutex
	buf []float32
}

// NewPipeline creates a pipeline pushing encoded frames through send.
func NewPipeline(send SendFunc, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		send: send,
		log:  log,
		buf:  make([]float32, 0, FrameSize),
	}
}

// Push accepts captured samples, emitting one encoded frame per FrameSize
// samples accumulated. Safe to call from the audio driver callback.
func (p *Pipeline) Push(samples []float32) {
	p.mu.Lock()
	p.buf = append(p.buf, samples...)
	var frames [][]float32
	for len(p.buf) >= FrameSize {
		frame := make([]float32, FrameSize)
		copy(frame, p.buf[:FrameSize])
		p.buf = p.buf[FrameSize:]
		frames = append(frames, frame)
	}
	p.mu.Unlock()

	for _, frame := range frames {
		if err := p.send(audio.EncodeFrame(frame)); err != nil {
			p.log.Warn().Err(err).Msg("dropping capture frame")
		}
	}
}

// Buffered returns the number of samples waiting for a full frame.
func (p *Pipeline) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}
