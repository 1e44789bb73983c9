//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	soundOnce    sync.Once
)

func initSound() {
	// 200ms tails keep the PulseAudio buffer filled through the decay.
	startSamples = tick(startFreq, 0.2, startVolume, startDecay, 2)
	endSamples = tick(endFreq, 0.2, endVolume, endDecay, 2)
	errorSamples = doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay, 2)
}

func playSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func playStart() {
	soundOnce.Do(initSound)
	go playSamples(startSamples)
}

func playEnd() {
	soundOnce.Do(initSound)
	go playSamples(endSamples)
}

func playError() {
	soundOnce.Do(initSound)
	go playSamples(errorSamples)
}
