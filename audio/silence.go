package audio

import "time"

const (
	// TickInterval is how often a capture loop should poll the monitor.
	TickInterval = 100 * time.Millisecond

	silenceWarnEvery = 8 * time.Second
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear, for hysteresis
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no voice detected while the key is held
	SilenceWarnClear              // speech resumed after a warning
)

// SilenceMonitor watches per-tick speech flags during a hold and
// raises a warning when the microphone hears nothing for a while, so
// a muted or broken mic is noticed before the key is released.
type SilenceMonitor struct {
	warnAt   int
	windowSz int

	ticks  int
	window []bool
	warned bool
}

func NewSilenceMonitor() *SilenceMonitor {
	warnAt := int(silenceWarnEvery / TickInterval)
	windowSz := warnAt * 2
	return &SilenceMonitor{
		warnAt:   warnAt,
		windowSz: windowSz,
		window:   make([]bool, windowSz),
	}
}

func (m *SilenceMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *SilenceMonitor) Tick(hasSpeech bool) SilenceEvent {
	m.window[m.ticks%m.windowSz] = hasSpeech
	m.ticks++

	r := m.ratio(m.warnAt)

	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		return SilenceWarn
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return SilenceWarnClear
	}

	return SilenceNone
}
