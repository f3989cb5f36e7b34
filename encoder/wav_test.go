package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWavHeader(t *testing.T) {
	samples := sine(3000)
	pcm := pcmOf(samples)
	data, err := EncodePCM(NewWav(), pcm)
	if err != nil {
		t.Fatal(err)
	}

	if len(data) != wavHeaderSize+len(pcm) {
		t.Fatalf("len = %d, want %d", len(data), wavHeaderSize+len(pcm))
	}
	for _, tt := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(data[tt.off : tt.off+4]); got != tt.want {
			t.Errorf("tag at %d = %q, want %q", tt.off, got, tt.want)
		}
	}

	le := binary.LittleEndian
	if got := le.Uint32(data[4:]); got != uint32(36+len(pcm)) {
		t.Errorf("RIFF size = %d", got)
	}
	if got := le.Uint16(data[20:]); got != 1 {
		t.Errorf("format = %d, want PCM", got)
	}
	if got := le.Uint16(data[22:]); got != Channels {
		t.Errorf("channels = %d", got)
	}
	if got := le.Uint32(data[24:]); got != SampleRate {
		t.Errorf("sample rate = %d", got)
	}
	if got := le.Uint32(data[28:]); got != SampleRate*2 {
		t.Errorf("byte rate = %d", got)
	}
	if got := le.Uint16(data[34:]); got != BitsPerSample {
		t.Errorf("bits per sample = %d", got)
	}
	if got := le.Uint32(data[40:]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
	if !bytes.Equal(data[wavHeaderSize:], pcm) {
		t.Error("payload differs from input PCM")
	}
}

func TestSamplesIgnoresOddByte(t *testing.T) {
	got := Samples([]byte{0x01, 0x00, 0xff, 0xff, 0x7f})
	if len(got) != 2 || got[0] != 1 || got[1] != -1 {
		t.Errorf("Samples = %v, want [1 -1]", got)
	}
}

func TestNewUnknownFormat(t *testing.T) {
	for _, f := range []string{"wav", "flac"} {
		enc, err := New(f)
		if err != nil || enc.Ext() != f {
			t.Errorf("New(%q) = %v, %v", f, enc, err)
		}
	}
	if _, err := New("ogg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
