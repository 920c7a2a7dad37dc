package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestEncodeWAV_HeaderConsistency(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 32000) // 1s of 16 kHz mono 16-bit
	buf := EncodeWAV(pcm, 16000, 1)

	if len(buf) != 44+len(pcm) {
		t.Fatalf("container is %d bytes, want %d", len(buf), 44+len(pcm))
	}
	if riffSize := binary.LittleEndian.Uint32(buf[4:8]); riffSize != uint32(36+len(pcm)) {
		t.Errorf("RIFF chunk size = %d, want %d", riffSize, 36+len(pcm))
	}
	if byteRate := binary.LittleEndian.Uint32(buf[28:32]); byteRate != 32000 {
		t.Errorf("byte rate = %d, want 32000", byteRate)
	}
	if blockAlign := binary.LittleEndian.Uint16(buf[32:34]); blockAlign != 2 {
		t.Errorf("block align = %d, want 2", blockAlign)
	}
	if dataSize := binary.LittleEndian.Uint32(buf[40:44]); dataSize != uint32(len(pcm)) {
		t.Errorf("data chunk size = %d, want %d", dataSize, len(pcm))
	}
}

func TestEncodeWAVFrames_DecodesWithReferenceDecoder(t *testing.T) {
	t.Parallel()

	frames := [][]float32{
		{0, 0.25, 0.5, 0.75},
		{-0.25, -0.5, -0.75, -1},
	}
	buf := EncodeWAVFrames(frames, 16000)

	dec := wav.NewDecoder(bytes.NewReader(buf))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		t.Fatal("reference decoder rejected container")
	}
	if dec.SampleRate != 16000 {
		t.Errorf("decoded sample rate = %d, want 16000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("decoded channels = %d, want 1", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Errorf("decoded bit depth = %d, want 16", dec.BitDepth)
	}

	pcmBuf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if got, want := len(pcmBuf.Data), 8; got != want {
		t.Fatalf("decoded %d samples, want %d", got, want)
	}
	wantFormat := gaudio.Format{NumChannels: 1, SampleRate: 16000}
	if pcmBuf.Format == nil || *pcmBuf.Format != wantFormat {
		t.Errorf("decoded format = %+v, want %+v", pcmBuf.Format, wantFormat)
	}
	if pcmBuf.Data[3] != 24575 { // round(0.75 * 32767)
		t.Errorf("sample 3 = %d, want 24575", pcmBuf.Data[3])
	}
	if pcmBuf.Data[7] != -32768 {
		t.Errorf("sample 7 = %d, want -32768", pcmBuf.Data[7])
	}
}
