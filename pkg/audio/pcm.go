package audio

import (
	"encoding/base64"
	"math"
)

// EncodeFrame converts normalized float samples in [-1, 1] to 16-bit signed
// little-endian PCM bytes. Samples are clamped before conversion. Positive
// and negative samples use different scale factors (32767 / 32768) so that
// both ends of the integer range are reachable without overflow.
func EncodeFrame(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s >= 0 {
			v = int16(math.Round(float64(s) * 32767))
		} else {
			v = int16(math.Round(float64(s) * 32768))
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(uint16(v) >> 8)
	}
	return out
}

// DecodeFrame converts 16-bit signed little-endian PCM bytes back to
// normalized float samples. A trailing odd byte is ignored.
func DecodeFrame(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		out[i] = float32(v) / 32768.0
	}
	return out
}

// EncodeBase64 encodes PCM bytes for text transport.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes text-transported PCM back to bytes.
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
