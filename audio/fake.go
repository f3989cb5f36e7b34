package audio

import (
	"os"
	"sync"
	"time"

	"limbo/encoder"
)

// FakeContext replays a WAV file as if it came from a microphone.
type FakeContext struct {
	pcm   []byte
	paced bool
}

// NewFakeContext loads a 16 kHz mono 16-bit WAV file. When paced is set the
// samples are delivered at the real sample rate, otherwise as fast as the
// consumer accepts them.
func NewFakeContext(wavPath string, paced bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return &FakeContext{pcm: data, paced: paced}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, paced: f.paced}, nil
}

// FakeCapture feeds the loaded PCM once per Start, then goes quiet until
// stopped. A quiet device delivers no blocks at all.
type FakeCapture struct {
	pcm   []byte
	paced bool

	mu   sync.Mutex
	cb   DataCallback
	stop chan struct{}
	done chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Start() error {
	if f.stop != nil {
		return nil
	}
	f.stop = make(chan struct{})
	f.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		interval := time.Duration(ChunkFrames) * time.Second / time.Duration(encoder.SampleRate)
		for pos := 0; pos < len(f.pcm); pos += ChunkBytes {
			select {
			case <-stop:
				return
			default:
			}
			end := min(pos+ChunkBytes, len(f.pcm))
			if cb := f.callback(); cb != nil {
				cb(f.pcm[pos:end], uint32((end-pos)/encoder.BytesPerSample))
			}
			if f.paced {
				select {
				case <-stop:
					return
				case <-time.After(interval):
				}
			}
		}
	}(f.stop, f.done)
	return nil
}

func (f *FakeCapture) Stop() {
	if f.stop == nil {
		return
	}
	close(f.stop)
	<-f.done
	f.stop, f.done = nil, nil
}

func (f *FakeCapture) Close() { f.Stop() }
