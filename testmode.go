package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"vox/audio"
	"vox/beep"
	"vox/config"
	"vox/coordinator"
	"vox/encoder"
	"vox/hotkey"
	"vox/notify"
	"vox/rewrite"
	"vox/selection"
	"vox/transcriber"
)

// scriptedPCM synthesizes ten seconds of tone so scripted runs do not
// need a WAV fixture on disk.
func scriptedPCM() []byte {
	n := 10 * encoder.SampleRate
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / encoder.SampleRate
		s := int16(12000 * math.Sin(2*math.Pi*220*t))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// runScripted drives the full pipeline headless from stdin commands,
// with fakes in place of the hotkey backend, microphone, models, and
// selection bridge. Commands:
//
//	PRESS <action>      press a hotkey (defaults to speech)
//	RELEASE <action>    release a hotkey
//	WAIT                block until the next session finishes, print it
//	WAIT_AUDIO_DONE     block until the fake capture runs out of audio
//	SLEEP <ms>          pause the script
//	QUIT                exit
func runScripted(cfg config.Config) {
	beep.Disable()

	var fctx *audio.FakeContext
	if args := flag.Args(); len(args) > 0 {
		var err error
		fctx, err = audio.NewFakeContextFromWAV(args[0], encoder.SampleRate, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			os.Exit(1)
		}
	} else {
		fctx = audio.NewFakeContext(scriptedPCM(), encoder.SampleRate, true)
	}

	capture, err := fctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate, Channels: encoder.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)
	rec := audio.NewRecorder(capture, encoder.SampleRate)

	bridge := selection.NewFakeBridge("teh quick brown fox")
	rewriter := rewrite.NewFake("The quick brown fox.", nil)
	tr := transcriber.NewFake("hello world", nil)
	notifier := notify.New(false)

	registry, backend := hotkey.NewFakeRegistry()
	defer registry.Close()
	outcomes := make(chan coordinator.Outcome, 16)

	var coordinators []*coordinator.Coordinator
	for _, a := range actions() {
		combo, err := cfg.Combo(a.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		handle, err := registry.Register(a.Name, combo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error registering %s: %v\n", a.Name, err)
			os.Exit(1)
		}
		c := coordinator.New(coordinator.Config{
			Action:      a,
			Bridge:      bridge,
			Rewriter:    rewriter,
			Recorder:    rec,
			Transcriber: tr,
			Language:    cfg.Language,
			Hooks: coordinator.Hooks{
				Finished: func(o coordinator.Outcome) {
					outcomes <- o
				},
			},
		})
		coordinators = append(coordinators, c)
		go serve(handle, c, rec, notifier, a.Kind == coordinator.KindSpeech)
	}
	defer func() {
		for _, c := range coordinators {
			c.Close()
		}
	}()

	action := func(fields []string) string {
		if len(fields) > 1 {
			return fields[1]
		}
		return config.ActionSpeech
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "PRESS":
			backend.SimPress(action(fields))
		case "RELEASE":
			backend.SimRelease(action(fields))
		case "WAIT":
			o := <-outcomes
			fmt.Printf("RESULT action=%s label=%s text=%q\n", o.Action.Name, o.Label(), o.Text)
		case "WAIT_AUDIO_DONE":
			<-fakeCapture.AudioDone()
		case "SLEEP":
			if len(fields) > 1 {
				if ms, err := strconv.Atoi(fields[1]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		case "QUIT":
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
		}
	}
}
