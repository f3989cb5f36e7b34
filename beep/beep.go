// Package beep plays short audible cues when dictation starts, stops or
// fails.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

// Cue names one of the sounds.
type Cue int

const (
	Start Cue = iota
	Stop
	Fail
)

const sampleRate = 44100

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	repeat   int
	gap      float64
}

var tones = map[Cue]tone{
	// high and short
	Start: {freq: 1200, duration: startDuration, volume: 0.5, decay: 60, repeat: 1},
	Stop:  {freq: 900, duration: stopDuration, volume: 0.5, decay: 40, repeat: 1},
	// low double beep
	Fail: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: 2, gap: 0.05},
}

// Samples renders a cue as mono signed 16-bit PCM at the package sample rate.
func Samples(c Cue) []int16 {
	t, ok := tones[c]
	if !ok {
		return nil
	}
	n := int(float64(sampleRate) * t.duration)
	gap := int(float64(sampleRate) * t.gap)
	out := make([]int16, 0, t.repeat*n+(t.repeat-1)*gap)
	for r := 0; r < t.repeat; r++ {
		if r > 0 {
			out = append(out, make([]int16, gap)...)
		}
		for i := 0; i < n; i++ {
			x := float64(i) / float64(sampleRate)
			env := math.Exp(-x * t.decay)
			out = append(out, int16(math.Sin(2*math.Pi*t.freq*x)*32767*t.volume*env))
		}
	}
	return out
}

// Play plays a cue without blocking. It does nothing once Disable has been
// called or when no output device is available.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	play(c)
}
