package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"limbo/encoder"
)

const (
	// ChunkFrames is the number of samples in one captured chunk.
	ChunkFrames = 1024
	ChunkBytes  = ChunkFrames * encoder.BytesPerSample

	defaultQueueBlocks = 512
)

var (
	ErrDevice           = errors.New("capture device unavailable")
	ErrAlreadyRecording = errors.New("recorder already started")
)

// Config returns the capture format the rest of the pipeline expects.
func Config() CaptureConfig {
	return CaptureConfig{SampleRate: encoder.SampleRate, Channels: encoder.Channels}
}

// Recorder owns a capture device for the duration of one dictation and
// collects its PCM into fixed-size chunks.
//
// The backend callback never blocks: blocks go through a bounded queue and
// are dropped and counted when the collector falls behind.
type Recorder struct {
	device    CaptureDevice
	queueSize int

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	chunks  [][]byte
	dropped atomic.Uint64
}

func NewRecorder(device CaptureDevice) *Recorder {
	return &Recorder{device: device, queueSize: defaultQueueBlocks}
}

// DeviceName returns the name of the underlying capture device.
func (r *Recorder) DeviceName() string { return r.device.DeviceName() }

// Start opens the device and begins buffering. A failure to open the
// device is reported as ErrDevice.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRecording
	}

	r.dropped.Store(0)
	blocks := make(chan []byte, r.queueSize)
	r.device.SetCallback(func(data []byte, _ uint32) {
		if len(data) == 0 {
			return
		}
		pcm := make([]byte, len(data))
		copy(pcm, data)
		select {
		case blocks <- pcm:
		default:
			r.dropped.Add(1)
		}
	})

	if err := r.device.Start(); err != nil {
		r.device.ClearCallback()
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}

	r.chunks = nil
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.running = true
	go r.collect(blocks, r.stop, r.done)
	return nil
}

// Stop closes the device and returns every chunk captured since Start, in
// order. The final chunk may be shorter than ChunkBytes. Stop on a
// recorder that is not running returns nil.
func (r *Recorder) Stop() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}

	r.device.Stop()
	r.device.ClearCallback()
	close(r.stop)
	<-r.done
	r.running = false

	chunks := r.chunks
	r.chunks = nil
	return chunks
}

// Recording reports whether the device is currently open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Dropped returns the number of backend blocks discarded during the
// current or most recent recording.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

func (r *Recorder) collect(blocks <-chan []byte, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	var pending []byte
	for {
		select {
		case b := <-blocks:
			pending = r.split(append(pending, b...))
		case <-stop:
			for {
				select {
				case b := <-blocks:
					pending = r.split(append(pending, b...))
				default:
					if len(pending) > 0 {
						r.chunks = append(r.chunks, pending)
					}
					return
				}
			}
		}
	}
}

// split moves every full chunk from buf into r.chunks and returns the
// remainder.
func (r *Recorder) split(buf []byte) []byte {
	for len(buf) >= ChunkBytes {
		chunk := make([]byte, ChunkBytes)
		copy(chunk, buf[:ChunkBytes])
		r.chunks = append(r.chunks, chunk)
		buf = buf[ChunkBytes:]
	}
	if len(buf) == 0 {
		return nil
	}
	rest := make([]byte, len(buf))
	copy(rest, buf)
	return rest
}
