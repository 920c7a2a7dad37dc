package live

// Event is an inbound session event. Events are delivered through
// Session.Events in the order the remote emitted them.
type Event interface {
	liveEventType() string
}

// InputTranscriptEvent is a partial transcript of the user's speech.
type InputTranscriptEvent struct {
	Text string
}

func (e InputTranscriptEvent) liveEventType() string { return "input_transcript" }

// OutputTranscriptEvent is a partial transcript of the model's speech.
type OutputTranscriptEvent struct {
	Text string
}

func (e OutputTranscriptEvent) liveEventType() string { return "output_transcript" }

// TurnCompleteEvent marks the end of one utterance exchange.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) liveEventType() string { return "turn_complete" }

// AudioChunkEvent carries decoded 16-bit little-endian PCM model audio
// at 24 kHz mono.
type AudioChunkEvent struct {
	Data []byte
}

func (e AudioChunkEvent) liveEventType() string { return "audio_chunk" }

// InterruptedEvent signals that the user spoke over the model's output and
// local playback must be flushed immediately.
type InterruptedEvent struct{}

func (e InterruptedEvent) liveEventType() string { return "interrupted" }

// GoAwayEvent warns that the remote will close the connection soon.
type GoAwayEvent struct {
	TimeLeft string
}

func (e GoAwayEvent) liveEventType() string { return "go_away" }
