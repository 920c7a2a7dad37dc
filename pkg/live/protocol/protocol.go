// Package protocol defines the JSON wire shapes exchanged over the live
// bidirectional voice websocket. Field names follow the remote API's
// camelCase convention.
package protocol

// ClientSetup is the first message sent after the websocket opens. The
// remote answers with a SetupComplete frame once the session is usable.
type ClientSetup struct {
	Setup Setup `json:"setup"`
}

// Setup configures the live session.
type Setup struct {
	Model                    string            `json:"model"`
	GenerationConfig         *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *Content          `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

// GenerationConfig selects the response modality and voice.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// SpeechConfig selects the synthesized output voice.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// VoiceConfig names a prebuilt voice.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig carries the voice name.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// Content is an ordered list of parts with an optional role.
type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

// Part is either text or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64-encoded binary data with a MIME type. Audio payloads
// declare their sample rate in the MIME type, e.g. "audio/pcm;rate=16000".
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ClientRealtimeInput streams captured media to the remote.
type ClientRealtimeInput struct {
	RealtimeInput RealtimeInput `json:"realtimeInput"`
}

// RealtimeInput carries one or more media chunks.
type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks,omitempty"`
}

// ServerMessage is the envelope for all inbound frames. Exactly one of the
// pointer fields is set per frame.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
}

// SetupComplete acknowledges ClientSetup.
type SetupComplete struct{}

// ServerContent carries interleaved transcript, audio, turn, and
// interruption fields. Any combination may be present in one frame.
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// Transcription is a partial transcript chunk.
type Transcription struct {
	Text string `json:"text"`
}

// GoAway warns that the remote will close the connection.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}
