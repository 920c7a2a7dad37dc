package audio

import (
	"bytes"
	"math"
	"testing"
)

func TestEncodeFrame_ScaleAndClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sample  float32
		want    int16
	}{
		{name: "zero", sample: 0, want: 0},
		{name: "positive full scale", sample: 1, want: 32767},
		{name: "negative full scale", sample: -1, want: -32768},
		{name: "positive half", sample: 0.5, want: 16384}, // round(0.5 * 32767)
		{name: "negative half", sample: -0.5, want: -16384},
		{name: "clamped above", sample: 1.5, want: 32767},
		{name: "clamped below", sample: -2, want: -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EncodeFrame([]float32{tt.sample})
			if len(out) != 2 {
				t.Fatalf("encoded %d bytes, want 2", len(out))
			}
			got := int16(out[0]) | int16(out[1])<<8
			if got != tt.want {
				t.Errorf("encoded %v as %d, want %d", tt.sample, got, tt.want)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 16000))
	}

	decoded := DecodeFrame(EncodeFrame(samples))
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	// Positive samples encode by 32767 but decode by 32768, adding up to
	// 1/32768 of skew on top of the 0.5 LSB rounding error.
	const tolerance = 1.5 / 32768
	for i := range samples {
		if diff := math.Abs(float64(decoded[i] - samples[i])); diff > tolerance {
			t.Fatalf("sample %d: decoded %v, original %v, diff %v exceeds %v",
				i, decoded[i], samples[i], diff, tolerance)
		}
	}
}

func TestDecodeFrame_FrameCount(t *testing.T) {
	t.Parallel()

	data := make([]byte, 8192)
	got := DecodeFrame(data)
	if len(got) != 4096 {
		t.Errorf("decoded %d samples from %d bytes, want 4096", len(got), len(data))
	}
}

func TestBase64RoundTrip(t *testing.T) {
	t.Parallel()

	tests := [][]byte{
		nil,
		{},
		{0x00},
		{0xff, 0x7f, 0x00, 0x80},
		bytes.Repeat([]byte{0xab, 0xcd}, 1000),
	}
	for _, in := range tests {
		out, err := DecodeBase64(EncodeBase64(in))
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("round trip mismatch: in=%d bytes, out=%d bytes", len(in), len(out))
		}
	}
}

func TestConfigMath(t *testing.T) {
	t.Parallel()

	cfg := PlaybackConfig()
	if got := cfg.BytesPerSecond(); got != 48000 {
		t.Errorf("BytesPerSecond = %d, want 48000", got)
	}
	if got := cfg.DurationSeconds(24000); got != 0.5 {
		t.Errorf("DurationSeconds(24000) = %v, want 0.5", got)
	}
	if got := cfg.FrameCount(48000); got != 24000 {
		t.Errorf("FrameCount(48000) = %d, want 24000", got)
	}
	if got := CaptureConfig().BytesForDurationMs(256); got != 8192 {
		t.Errorf("BytesForDurationMs(256) = %d, want 8192", got)
	}
}
