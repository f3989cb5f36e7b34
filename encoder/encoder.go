package encoder

import (
	"encoding/binary"
	"fmt"
)

const (
	SampleRate     = 16000
	Channels       = 1
	BitsPerSample  = 16
	BytesPerSample = BitsPerSample / 8
	BlockSize      = 4096
)

// Encoder turns 16 kHz mono PCM into an uploadable container. Blocks are
// fed in order and Bytes is valid once Close has returned.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	ContentType() string
	Ext() string
}

// New returns an encoder for the named container, "wav" or "flac".
func New(format string) (Encoder, error) {
	switch format {
	case "wav":
		return NewWav(), nil
	case "flac":
		return NewFlac()
	default:
		return nil, fmt.Errorf("unknown audio format: %q", format)
	}
}

// Samples decodes little-endian 16-bit PCM. A trailing odd byte is ignored.
func Samples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// EncodePCM feeds raw PCM through enc in BlockSize blocks, closes it and
// returns the encoded bytes.
func EncodePCM(enc Encoder, pcm []byte) ([]byte, error) {
	samples := Samples(pcm)
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing %s encoder: %w", enc.Ext(), err)
	}
	return enc.Bytes(), nil
}
