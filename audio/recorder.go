package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDeviceBusy is returned by Start while another capture session
// holds the microphone. The device is never shared between sessions.
var ErrDeviceBusy = errors.New("microphone already in use")

// MinCaptureDuration is the shortest press treated as a real
// recording. Anything shorter is an accidental tap and is discarded
// without transcription.
const MinCaptureDuration = 150 * time.Millisecond

// levelSmoothing is the EMA coefficient for the live amplitude level.
const levelSmoothing = 0.3

// Buffer is finalized capture audio: 16-bit little-endian mono PCM.
type Buffer struct {
	PCM      []byte
	Duration time.Duration
}

// Empty reports whether the capture was discarded (sub-threshold or
// no frames).
func (b Buffer) Empty() bool { return len(b.PCM) == 0 }

// Recorder turns a CaptureDevice into a start/stop recording session
// with an accumulating buffer and a smoothed RMS level for live
// feedback. At most one session is active at a time.
type Recorder struct {
	capture     CaptureDevice
	sampleRate  uint32
	minDuration time.Duration

	active atomic.Bool
	level  atomic.Uint64 // math.Float64bits of smoothed RMS in [0,1]

	// vad is nil when the detector could not be initialized; speech
	// queries then report true so nobody gets nagged by a broken VAD.
	vad *vadProcessor

	bufMu   sync.Mutex
	buf     []byte
	frames  uint64
	stopped bool
}

func NewRecorder(capture CaptureDevice, sampleRate uint32) *Recorder {
	vad, err := newVADProcessor()
	if err != nil {
		vad = nil
	}
	return &Recorder{
		capture:     capture,
		sampleRate:  sampleRate,
		minDuration: MinCaptureDuration,
		vad:         vad,
	}
}

// Start opens a new capture session. It fails with ErrDeviceBusy if a
// session is already active.
func (r *Recorder) Start() error {
	if !r.active.CompareAndSwap(false, true) {
		return ErrDeviceBusy
	}

	r.bufMu.Lock()
	r.buf = nil
	r.frames = 0
	r.stopped = false
	r.bufMu.Unlock()
	r.level.Store(0)
	if r.vad != nil {
		r.vad.Reset()
	}

	r.capture.SetCallback(r.onData)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.active.Store(false)
		return fmt.Errorf("starting capture: %w", err)
	}
	return nil
}

func (r *Recorder) onData(data []byte, frameCount uint32) {
	r.bufMu.Lock()
	if r.stopped {
		r.bufMu.Unlock()
		return
	}
	r.buf = append(r.buf, data...)
	r.frames += uint64(frameCount)
	r.bufMu.Unlock()

	if len(data) > 1 {
		var sumSquares float64
		n := 0
		for i := 0; i+1 < len(data); i += 2 {
			sample := int16(uint16(data[i]) | uint16(data[i+1])<<8)
			normalized := float64(sample) / 32768.0
			sumSquares += normalized * normalized
			n++
		}
		rms := math.Sqrt(sumSquares / float64(n))
		prev := math.Float64frombits(r.level.Load())
		r.level.Store(math.Float64bits(prev + levelSmoothing*(rms-prev)))

		if r.vad != nil {
			r.vad.Process(data)
		}
	}
}

// VoiceDetected reports whether speech was confirmed at any point in
// the active session. Always true when VAD is unavailable.
func (r *Recorder) VoiceDetected() bool {
	if r.vad == nil {
		return true
	}
	return r.vad.VoiceDetected()
}

// HasSpeechTick reports whether the capture since the previous call
// contained speech. Always true when VAD is unavailable.
func (r *Recorder) HasSpeechTick() bool {
	if r.vad == nil {
		return true
	}
	return r.vad.HasSpeechTick()
}

// Level returns the smoothed amplitude of the active session in
// [0,1]. Zero when idle.
func (r *Recorder) Level() float64 {
	return math.Float64frombits(r.level.Load())
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool { return r.active.Load() }

// Stop finalizes the session and returns the accumulated audio. A
// capture shorter than the minimum duration returns an empty Buffer.
// Stopping an idle recorder returns an empty Buffer.
func (r *Recorder) Stop() Buffer {
	if !r.active.Load() {
		return Buffer{}
	}

	// Freeze the buffer before stopping the device so late callbacks
	// from the audio thread are dropped, not appended.
	r.bufMu.Lock()
	r.stopped = true
	pcm := r.buf
	frames := r.frames
	r.buf = nil
	r.bufMu.Unlock()

	r.capture.Stop()
	r.capture.ClearCallback()
	r.level.Store(0)
	r.active.Store(false)

	dur := time.Duration(float64(frames) / float64(r.sampleRate) * float64(time.Second))
	if dur < r.minDuration {
		return Buffer{}
	}
	return Buffer{PCM: pcm, Duration: dur}
}

// Abort stops the session and discards everything captured so far.
func (r *Recorder) Abort() {
	if !r.active.Load() {
		return
	}
	r.bufMu.Lock()
	r.stopped = true
	r.buf = nil
	r.bufMu.Unlock()

	r.capture.Stop()
	r.capture.ClearCallback()
	r.level.Store(0)
	r.active.Store(false)
}
