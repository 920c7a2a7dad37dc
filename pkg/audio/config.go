package audio

// Config specifies audio format parameters.
type Config struct {
	// SampleRate in Hz. Common values: 16000, 24000, 44100, 48000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// CaptureConfig is the fixed microphone format: 16 kHz mono 16-bit.
func CaptureConfig() Config {
	return Config{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// PlaybackConfig is the fixed model output format: 24 kHz mono 16-bit.
func PlaybackConfig() Config {
	return Config{SampleRate: 24000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the audio byte rate.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationSeconds returns the playback duration of the given byte count.
func (c Config) DurationSeconds(bytes int) float64 {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return float64(bytes) / float64(bps)
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c Config) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}

// FrameCount returns the number of sample frames represented by a PCM byte
// buffer in this format.
func (c Config) FrameCount(bytes int) int {
	if c.Channels == 0 || c.BitsPerSample == 0 {
		return 0
	}
	return bytes / (c.BitsPerSample / 8) / c.Channels
}
