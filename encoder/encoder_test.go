package encoder

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func sinePCM(durationS float64) []byte {
	n := int(durationS * SampleRate)
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		s := int16(math.Sin(2*math.Pi*440*t) * 0.5 * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestWAVHeader(t *testing.T) {
	pcm := sinePCM(0.25)
	wav := WAV(pcm)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != SampleRate {
		t.Errorf("sample rate %d, want %d", rate, SampleRate)
	}
	if ch := binary.LittleEndian.Uint16(wav[22:24]); ch != Channels {
		t.Errorf("channels %d, want %d", ch, Channels)
	}
	if sz := binary.LittleEndian.Uint32(wav[40:44]); sz != uint32(len(pcm)) {
		t.Errorf("data size %d, want %d", sz, len(pcm))
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Error("payload differs from input PCM")
	}
}

func TestWAVEmpty(t *testing.T) {
	wav := WAV(nil)
	if len(wav) != 44 {
		t.Fatalf("empty wav length %d, want 44", len(wav))
	}
	if sz := binary.LittleEndian.Uint32(wav[40:44]); sz != 0 {
		t.Errorf("data size %d, want 0", sz)
	}
}

func TestFLACEncodes(t *testing.T) {
	pcm := sinePCM(1.0)
	out, err := FLAC(pcm)
	if err != nil {
		t.Fatalf("FLAC: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty flac output")
	}
	if string(out[0:4]) != "fLaC" {
		t.Error("missing fLaC magic")
	}
}

func TestFLACPartialBlock(t *testing.T) {
	// Fewer samples than one block must still flush cleanly.
	pcm := sinePCM(0.01)
	out, err := FLAC(pcm)
	if err != nil {
		t.Fatalf("FLAC: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty flac output for partial block")
	}
}
