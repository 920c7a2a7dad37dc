package audio

import "encoding/binary"

// EncodeWAV serializes 16-bit little-endian PCM into a WAV container.
// The header fields (chunk sizes, byte rate, block alignment) are derived
// from the payload length and the given format, so the result is always
// internally consistent.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const headerSize = 44
	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign

	out := make([]byte, headerSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerSize:], pcm)
	return out
}

// EncodeWAVFrames serializes normalized float frames into a mono WAV container.
func EncodeWAVFrames(frames [][]float32, sampleRate int) []byte {
	var total int
	for _, f := range frames {
		total += len(f)
	}
	pcm := make([]byte, 0, total*2)
	for _, f := range frames {
		pcm = append(pcm, EncodeFrame(f)...)
	}
	return EncodeWAV(pcm, sampleRate, 1)
}
