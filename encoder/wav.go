package encoder

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// WavEncoder writes an uncompressed RIFF/WAVE container. The header needs
// the data length, so samples are buffered until Close.
type WavEncoder struct {
	pcm    bytes.Buffer
	out    []byte
	frames uint64
}

func NewWav() *WavEncoder { return &WavEncoder{} }

func (e *WavEncoder) EncodeBlock(block []int16) error {
	var b [2]byte
	for _, s := range block {
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		e.pcm.Write(b[:])
	}
	e.frames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	dataLen := uint32(e.pcm.Len())
	byteRate := uint32(SampleRate * Channels * BytesPerSample)

	out := make([]byte, 0, wavHeaderSize+int(dataLen))
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, 36+dataLen)
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, Channels)
	out = binary.LittleEndian.AppendUint32(out, SampleRate)
	out = binary.LittleEndian.AppendUint32(out, byteRate)
	out = binary.LittleEndian.AppendUint16(out, Channels*BytesPerSample)
	out = binary.LittleEndian.AppendUint16(out, BitsPerSample)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, dataLen)
	e.out = append(out, e.pcm.Bytes()...)
	return nil
}

func (e *WavEncoder) Bytes() []byte       { return e.out }
func (e *WavEncoder) TotalFrames() uint64 { return e.frames }
func (e *WavEncoder) ContentType() string { return "audio/wav" }
func (e *WavEncoder) Ext() string         { return "wav" }
