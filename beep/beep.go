// Package beep plays short audio cues marking capture start, capture
// end, and failures. Cues are fire-and-forget; playback problems are
// swallowed.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

const (
	sampleRate = 44100

	// Capture start: high pitch, snappy
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Capture end: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Failure: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

func tick(freq, duration, volume, decay float64, channels int) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = s
		}
	}
	return samples
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64, channels int) []int16 {
	beep := tick(freq, beepDur, volume, decay, channels)
	gap := make([]int16, int(sampleRate*gapDur)*channels)
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

func PlayStart() {
	if disabled.Load() {
		return
	}
	playStart()
}

func PlayEnd() {
	if disabled.Load() {
		return
	}
	playEnd()
}

func PlayError() {
	if disabled.Load() {
		return
	}
	playError()
}
