// Package live implements the duplex voice session: a websocket connection
// over which captured audio frames stream up and interleaved audio,
// transcript, turn, and interruption events stream down.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parleygo/parley/pkg/audio"
	"github.com/parleygo/parley/pkg/live/protocol"
)

// DefaultEndpoint is the production live websocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

const inputMIMEType = "audio/pcm;rate=16000"

// State is the session connection state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Config configures a live session.
type Config struct {
	// Endpoint overrides the websocket URL. Defaults to DefaultEndpoint.
	Endpoint string

	// APIKey authenticates the connection.
	APIKey string

	// Model is the live model identifier.
	Model string

	// SystemInstruction is the composed grounding context for this session.
	SystemInstruction string

	// VoiceName selects the synthesized output voice. Optional.
	VoiceName string

	Logger zerolog.Logger
}

// Session is one live duplex connection.
//
// Inbound events are decoded by a single read loop and delivered in arrival
// order through Events. The channel closes when the session terminates;
// Err reports the terminal error, if any.
type Session struct {
	conn *websocket.Conn
	log  zerolog.Logger

	events chan Event
	done   chan struct{}
	stop   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	stateMu sync.Mutex
	state   State

	errMu sync.Mutex
	err   error
}

// Connect opens a live session: it dials the websocket, sends the setup
// frame, and waits for the remote's setup acknowledgement.
//
// Connection establishment honors ctx's deadline; no additional timeout is
// imposed, so a Connect with a background context can block indefinitely if
// the remote never answers.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("live model must not be empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid live endpoint: %w", err)
	}
	if cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", cfg.APIKey)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial live endpoint: %w", err)
	}

	setup := buildSetup(model, cfg.SystemInstruction, cfg.VoiceName)
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send live setup: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read setup ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	var first protocol.ServerMessage
	if err := json.Unmarshal(payload, &first); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("decode setup ack: %w", err)
	}
	if first.SetupComplete == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first live frame")
	}

	s := &Session{
		conn:   conn,
		log:    cfg.Logger,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		state:  StateOpen,
	}
	go s.readLoop()
	return s, nil
}

func buildSetup(model, systemInstruction, voiceName string) protocol.ClientSetup {
	setup := protocol.Setup{
		Model: model,
		GenerationConfig: &protocol.GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if voiceName = strings.TrimSpace(voiceName); voiceName != "" {
		setup.GenerationConfig.SpeechConfig = &protocol.SpeechConfig{
			VoiceConfig: &protocol.VoiceConfig{
				PrebuiltVoiceConfig: &protocol.PrebuiltVoiceConfig{VoiceName: voiceName},
			},
		}
	}
	if systemInstruction = strings.TrimSpace(systemInstruction); systemInstruction != "" {
		setup.SystemInstruction = &protocol.Content{
			Parts: []protocol.Part{{Text: systemInstruction}},
		}
	}
	return protocol.ClientSetup{Setup: setup}
}

// State returns the current connection state.
func (s *Session) State() State {
	if s == nil {
		return StateIdle
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Events yields inbound session events in arrival order. The channel is
// closed when the session terminates.
func (s *Session) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.events
}

// SendRealtimeInput queues one encoded capture frame for transmission.
// It is valid only while the session is open; sends are fire-and-forget
// and expose no delivery acknowledgement.
func (s *Session) SendRealtimeInput(pcm []byte) error {
	if s == nil {
		return fmt.Errorf("session must not be nil")
	}
	if s.closed.Load() {
		return fmt.Errorf("live session is closed")
	}
	msg := protocol.ClientRealtimeInput{
		RealtimeInput: protocol.RealtimeInput{
			MediaChunks: []protocol.Blob{{
				MIMEType: inputMIMEType,
				Data:     audio.EncodeBase64(pcm),
			}},
		},
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Close requests session shutdown. It is idempotent; the first call sends a
// close frame and tears down the connection, later calls are no-ops. Close
// returns once the read loop has drained.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.setState(StateClosing)
		close(s.stop)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal session error, or nil on a clean close. It blocks
// until the session has terminated.
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.setState(StateClosed)
				return
			}
			s.setErr(err)
			s.setState(StateError)
			return
		}

		var msg protocol.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped; the session continues.
			s.log.Warn().Err(err).Msg("dropping malformed live frame")
			continue
		}
		for _, event := range decodeServerMessage(msg, s.log) {
			if !s.emit(event) {
				return
			}
		}
	}
}

// emit delivers an event in order, blocking until the consumer accepts it or
// the session is closed. Returns false when the session is shutting down.
func (s *Session) emit(event Event) bool {
	select {
	case s.events <- event:
		return true
	case <-s.stop:
		return false
	}
}

// decodeServerMessage expands one inbound frame into zero or more events,
// preserving the remote's field ordering: transcripts first, then audio,
// then interruption/turn signals.
func decodeServerMessage(msg protocol.ServerMessage, log zerolog.Logger) []Event {
	if msg.GoAway != nil {
		return []Event{GoAwayEvent{TimeLeft: msg.GoAway.TimeLeft}}
	}
	sc := msg.ServerContent
	if sc == nil {
		return nil
	}

	var events []Event
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, InputTranscriptEvent{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, OutputTranscriptEvent{Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := audio.DecodeBase64(part.InlineData.Data)
			if err != nil {
				// Skip the malformed payload, keep the session alive.
				log.Warn().Err(err).Msg("dropping undecodable audio payload")
				continue
			}
			events = append(events, AudioChunkEvent{Data: pcm})
		}
	}
	if sc.Interrupted {
		events = append(events, InterruptedEvent{})
	}
	if sc.TurnComplete {
		events = append(events, TurnCompleteEvent{})
	}
	return events
}
