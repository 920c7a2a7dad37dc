// Package voice runs real-time voice conversations: it owns the microphone,
// the playback path, and one live session at a time, folds the session's
// event stream into conversation messages, and guarantees deterministic
// teardown on stop, remote close, and error.
package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleygo/parley/pkg/audio"
	"github.com/parleygo/parley/pkg/capture"
	"github.com/parleygo/parley/pkg/kb"
	"github.com/parleygo/parley/pkg/live"
	"github.com/parleygo/parley/pkg/playback"
)

// State is the controller lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRecording
	StateStopping
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateStarting:
		return "STARTING"
	case StateRecording:
		return "RECORDING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// SessionHandle is the slice of the live session the controller drives.
type SessionHandle interface {
	Events() <-chan live.Event
	SendRealtimeInput(pcm []byte) error
	Close() error
	Err() error
}

// ConnectFunc opens a live session.
type ConnectFunc func(ctx context.Context, cfg live.Config) (SessionHandle, error)

// ContextSource supplies the knowledge selection composed into the session's
// system instruction.
type ContextSource interface {
	ActiveContext(ctx context.Context) (kb.Context, error)
}

// Config configures a controller.
type Config struct {
	APIKey    string
	Model     string
	VoiceName string

	// Endpoint overrides the live websocket URL. Optional.
	Endpoint string

	// SystemPrompt is the base instruction prepended to knowledge context.
	SystemPrompt string

	Logger zerolog.Logger
}

// Deps are the controller's injectable boundaries. Zero-value fields get
// production defaults, except Capture which is required.
type Deps struct {
	// Capture owns the microphone backend.
	Capture capture.Context

	// NewOutput opens the playback device. Defaults to the speaker backend.
	NewOutput func() (playback.OutputContext, error)

	// Connect opens the live session. Defaults to live.Connect.
	Connect ConnectFunc

	// Knowledge supplies grounding context for the system instruction.
	// Optional.
	Knowledge ContextSource
}

// Controller manages at most one voice session at a time.
//
// Start acquires resources in a fixed order (microphone, playback output,
// live session) and releases everything it acquired on any failure. The
// session terminates through exactly one teardown, whether triggered by
// Stop, by remote close, or by a transport error, and the controller is
// restartable afterwards.
type Controller struct {
	cfg       Config
	deps      Deps
	onMessage func(Message)
	log       zerolog.Logger

	outputLive atomic.Bool
	pipe       atomic.Pointer[capture.Pipeline]

	mu        sync.Mutex
	state     State
	session   SessionHandle
	device    capture.Device
	output    playback.OutputContext
	scheduler *playback.Scheduler
	cleaned   bool
	runDone   chan struct{}
}

// NewController creates a controller. onMessage receives finalized
// conversation messages; it is invoked from the controller's event
// goroutine and must not block.
func NewController(cfg Config, deps Deps, onMessage func(Message)) *Controller {
	if deps.Connect == nil {
		deps.Connect = func(ctx context.Context, lcfg live.Config) (SessionHandle, error) {
			return live.Connect(ctx, lcfg)
		}
	}
	if deps.NewOutput == nil {
		deps.NewOutput = func() (playback.OutputContext, error) {
			pb := audio.PlaybackConfig()
			return playback.NewOtoContext(pb.SampleRate, pb.Channels)
		}
	}
	return &Controller{
		cfg:       cfg,
		deps:      deps,
		onMessage: onMessage,
		log:       cfg.Logger,
		state:     StateStopped,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires the microphone, the playback output, and a live session,
// then begins streaming. A start while a session is active fails without
// touching any resource. On any acquisition failure everything already
// acquired is released before Start returns.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateStopped {
		c.mu.Unlock()
		return NewStateError("voice session already active")
	}
	c.state = StateStarting
	c.cleaned = false
	c.mu.Unlock()

	instruction, err := c.composeInstruction(ctx)
	if err != nil {
		c.failStart()
		return fmt.Errorf("compose system instruction: %w", err)
	}

	device, err := c.deps.Capture.OpenCapture(capture.DefaultConfig(), func(samples []float32) {
		if p := c.pipe.Load(); p != nil {
			p.Push(samples)
		}
	})
	if err != nil {
		c.failStart()
		return NewPermissionError("acquire microphone", err)
	}

	output, err := c.deps.NewOutput()
	if err != nil {
		device.Close()
		c.failStart()
		return NewDeviceError("open audio output", err)
	}
	scheduler := playback.NewScheduler(output, c.log)

	session, err := c.deps.Connect(ctx, live.Config{
		Endpoint:          c.cfg.Endpoint,
		APIKey:            c.cfg.APIKey,
		Model:             c.cfg.Model,
		SystemInstruction: instruction,
		VoiceName:         c.cfg.VoiceName,
		Logger:            c.log,
	})
	if err != nil {
		device.Close()
		_ = output.Close()
		c.failStart()
		return NewConnectionError("connect live session", err)
	}

	c.pipe.Store(capture.NewPipeline(session.SendRealtimeInput, c.log))
	c.outputLive.Store(true)
	reducer := NewReducer(scheduler, c.emitMessage, c.outputLive.Load, c.log)
	runDone := make(chan struct{})

	c.mu.Lock()
	c.session = session
	c.device = device
	c.output = output
	c.scheduler = scheduler
	c.runDone = runDone
	c.mu.Unlock()

	if err := device.Start(); err != nil {
		_ = session.Close()
		c.teardown()
		return NewDeviceError("start microphone", err)
	}

	c.mu.Lock()
	c.state = StateRecording
	c.mu.Unlock()

	go c.run(session, reducer, runDone)
	c.log.Info().Str("model", c.cfg.Model).Msg("voice session started")
	return nil
}

// failStart reverts a Start that failed before any state was committed.
func (c *Controller) failStart() {
	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()
}

func (c *Controller) composeInstruction(ctx context.Context) (string, error) {
	if c.deps.Knowledge == nil {
		return c.cfg.SystemPrompt, nil
	}
	kc, err := c.deps.Knowledge.ActiveContext(ctx)
	if err != nil {
		return "", err
	}
	return ComposeSystemInstruction(c.cfg.SystemPrompt, kc), nil
}

// run consumes session events until the channel closes, then performs the
// terminal teardown and emits exactly one SYSTEM status message.
func (c *Controller) run(session SessionHandle, reducer *Reducer, done chan struct{}) {
	defer close(done)

	for event := range session.Events() {
		reducer.Handle(event)
	}
	err := session.Err()

	reducer.DiscardPartial()
	c.teardown()

	if err != nil {
		c.log.Error().Err(err).Msg("voice session terminated")
		c.emitMessage(Message{Role: RoleSystem, Text: "voice session error: " + err.Error(), At: time.Now()})
	} else {
		c.log.Info().Msg("voice session closed")
		c.emitMessage(Message{Role: RoleSystem, Text: "voice session closed", At: time.Now()})
	}
}

// Stop ends the active session. It silences playback immediately, requests
// session close, and returns once teardown has completed.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return NewStateError("no active voice session")
	}
	c.state = StateStopping
	session := c.session
	runDone := c.runDone
	// Halt capture and playback under the lock: a concurrent remote close
	// runs teardown under the same lock, so the device cannot be released
	// between the state check and these calls.
	c.device.Stop()
	c.scheduler.Interrupt()
	c.mu.Unlock()

	_ = session.Close()
	<-runDone
	return nil
}

// Cleanup forces resource release regardless of state. It is idempotent and
// safe to call concurrently with normal termination.
func (c *Controller) Cleanup() {
	c.mu.Lock()
	session := c.session
	runDone := c.runDone
	c.mu.Unlock()

	if session != nil {
		_ = session.Close()
		if runDone != nil {
			<-runDone
		}
		return
	}
	c.teardown()
}

// teardown releases every held resource exactly once and returns the
// controller to StateStopped. Device and output calls stay under c.mu so a
// concurrent Stop cannot touch a handle this goroutine is releasing; nothing
// on the audio driver callback path takes c.mu.
func (c *Controller) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cleaned {
		return
	}
	c.cleaned = true

	c.outputLive.Store(false)
	c.pipe.Store(nil)

	if c.device != nil {
		c.device.Stop()
		c.device.Close()
	}
	if c.scheduler != nil {
		c.scheduler.Interrupt()
	}
	if c.output != nil {
		_ = c.output.Close()
	}
	c.session = nil
	c.device = nil
	c.output = nil
	c.scheduler = nil
	c.runDone = nil
	c.state = StateStopped
}

func (c *Controller) emitMessage(m Message) {
	if c.onMessage != nil {
		c.onMessage(m)
	}
}

// ComposeSystemInstruction renders the base prompt plus the active knowledge
// selection into one instruction string.
func ComposeSystemInstruction(base string, kc kb.Context) string {
	var b strings.Builder
	if base = strings.TrimSpace(base); base != "" {
		b.WriteString(base)
	}
	if len(kc.URLs) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Ground your answers in these reference URLs:\n")
		for _, u := range kc.URLs {
			b.WriteString("- ")
			b.WriteString(u)
			b.WriteString("\n")
		}
	}
	for _, f := range kc.Files {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Reference document %q:\n%s", f.Name, f.Content)
	}
	return b.String()
}
