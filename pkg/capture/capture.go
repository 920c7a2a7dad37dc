// Package capture acquires the microphone and taps the input stream in
// fixed-size frames for transmission to the live session.
package capture

// DataCallback receives normalized float samples as they are captured.
// It is invoked from the audio driver's thread and must not block.
type DataCallback func(samples []float32)

// Config fixes the capture format.
type Config struct {
	SampleRate uint32
	Channels   uint32
}

// DefaultConfig is the session capture format: 16 kHz mono.
func DefaultConfig() Config {
	return Config{SampleRate: 16000, Channels: 1}
}

// Device is an exclusive hardware audio input handle.
type Device interface {
	// Start begins delivering samples to the registered callback.
	Start() error

	// Stop halts sample delivery. Idempotent.
	Stop()

	// Close releases the hardware handle. The device is unusable afterwards.
	Close()
}

// Context owns the platform audio backend and opens capture devices.
type Context interface {
	// OpenCapture acquires the default input device in the given format.
	OpenCapture(cfg Config, cb DataCallback) (Device, error)

	// Close releases the backend.
	Close()
}
