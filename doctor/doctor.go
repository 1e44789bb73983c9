// Package doctor runs interactive diagnostics for every collaborator
// the pipeline depends on: hotkeys, microphone, keystroke injection,
// clipboard, and the two model backends.
package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"vox/audio"
	"vox/config"
	"vox/encoder"
	"vox/hotkey"
	"vox/rewrite"
	"vox/selection"
	"vox/transcriber"
)

// Run executes the checks and returns an exit code (0=all pass).
func Run(cfg config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("vox doctor - interactive system diagnostics")
	fmt.Println("===========================================")

	allPass := true

	if !checkHotkey(cfg) {
		allPass = false
	}
	if allPass && !checkMicrophone(cfg) {
		allPass = false
	}
	if allPass && !checkKeystrokes() {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}
	if allPass && !checkTranscriber(cfg) {
		allPass = false
	}
	if allPass && !checkRewrite(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[1/6] Hotkey detection")

	combo, err := cfg.Combo(config.ActionSpeech)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("Press %s...\n", combo)

	reg, err := hotkey.New()
	if err != nil {
		fmt.Printf("  FAIL: could not open hotkey backend: %v\n", err)
		if diag, derr := hotkey.Diagnose(); derr == nil {
			fmt.Println(diag)
		}
		return false
	}
	defer reg.Close()

	h, err := reg.Register(config.ActionSpeech, combo)
	if err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-h.Events():
			if ev.Edge == hotkey.Pressed {
				fmt.Println("  PASS: hotkey press detected")
				// Drain the release so it cannot leak into later checks.
				select {
				case <-h.Events():
				case <-time.After(5 * time.Second):
				}
				resetTerminal()
				return true
			}
		case <-deadline:
			fmt.Println("  FAIL: timeout waiting for hotkey")
			return false
		}
	}
}

func checkMicrophone(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[2/6] Microphone capture")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	device, err := audio.FindDevice(ctx, cfg.Device)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if device != nil {
		fmt.Printf("Using device: %s\n", device.Name)
		if audio.IsBluetooth(device.Name) {
			fmt.Println("  Warning: Bluetooth microphone; expect degraded quality")
		}
	}

	capture, err := ctx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open capture device: %v\n", err)
		return false
	}
	defer capture.Close()

	rec := audio.NewRecorder(capture, encoder.SampleRate)
	fmt.Print("Speak for 2 seconds... ")
	if err := rec.Start(); err != nil {
		fmt.Printf("\n  FAIL: %v\n", err)
		return false
	}
	time.Sleep(2 * time.Second)
	peak := rec.Level()
	buf := rec.Stop()
	fmt.Println("done")

	if buf.Empty() {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	fmt.Printf("  PASS: captured %.1fs of audio (level %.3f)\n", buf.Duration.Seconds(), peak)
	if peak == 0 {
		fmt.Println("  Warning: amplitude was zero; check the input volume")
	}
	return true
}

func checkKeystrokes() bool {
	fmt.Println()
	fmt.Println("[3/6] Keystroke injection")

	msg, err := selection.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		printKeystrokeHint()
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/6] Clipboard round trip")

	testStr := fmt.Sprintf("vox-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.WriteAll(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.ReadAll()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung?)")
		return false
	}
}

func checkTranscriber(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[5/6] Transcription backend")

	switch cfg.Transcriber {
	case "whisper":
		wh := transcriber.NewWhisper(cfg.WhisperURL)
		if err := wh.Health(context.Background()); err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			fmt.Println("  Start a whisper.cpp server, e.g.: whisper-server --port 8090 -m <model>")
			return false
		}
		fmt.Printf("  PASS: whisper server healthy at %s\n", cfg.WhisperURL)
	case "remote":
		if cfg.RemoteAudioKey == "" {
			fmt.Println("  FAIL: remote transcriber selected but no API key configured")
			return false
		}
		fmt.Println("  PASS: remote transcriber configured")
	}
	return true
}

func checkRewrite(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[6/6] Rewrite credentials")

	if cfg.APIKey == "" {
		fmt.Println("  FAIL: no API key configured (run vox -setup or set VOX_API_KEY)")
		return false
	}

	client := rewrite.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.CheckCredentials(ctx); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s accepted the key (model %s)\n", cfg.BaseURL, cfg.Model)
	return true
}
