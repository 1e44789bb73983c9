package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"vox/audio"
	"vox/beep"
	"vox/config"
	"vox/coordinator"
	"vox/doctor"
	"vox/encoder"
	"vox/hotkey"
	"vox/log"
	"vox/notify"
	"vox/rewrite"
	"vox/selection"
	"vox/shutdown"
	"vox/transcriber"
)

var version = "dev"

// actions lists every hotkey-triggerable pipeline: one rewrite action
// per preset plus push-to-talk dictation. Each gets its own
// coordinator so a dictation in flight never blocks a rewrite.
func actions() []coordinator.Action {
	var out []coordinator.Action
	for _, p := range rewrite.Presets {
		out = append(out, coordinator.Action{
			Name:   string(p),
			Kind:   coordinator.KindRewrite,
			Preset: p,
		})
	}
	out = append(out, coordinator.Action{
		Name: config.ActionSpeech,
		Kind: coordinator.KindSpeech,
	})
	return out
}

// sessionClock records when each generation started so the session
// end log line can carry elapsed time.
type sessionClock struct {
	mu sync.Mutex
	at map[uint64]time.Time
}

func newSessionClock() *sessionClock {
	return &sessionClock{at: make(map[uint64]time.Time)}
}

func (s *sessionClock) start(gen uint64) {
	s.mu.Lock()
	s.at[gen] = time.Now()
	s.mu.Unlock()
}

func (s *sessionClock) elapsed(gen uint64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.at[gen]
	if !ok {
		return 0
	}
	delete(s.at, gen)
	return time.Since(t)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// metered decorates a transcriber with a per-call network breakdown
// in the diagnostics log.
type metered struct {
	inner transcriber.Transcriber
}

func (m metered) Name() string { return m.inner.Name() }

func (m metered) Transcribe(ctx context.Context, pcm []byte, opts transcriber.Options) (transcriber.Result, error) {
	res, err := m.inner.Transcribe(ctx, pcm, opts)
	if err == nil && res.Metrics != nil {
		log.Transform(log.TransformMetrics{
			Backend:    m.inner.Name(),
			AudioS:     res.AudioLen,
			PayloadKB:  float64(len(pcm)) / 1024,
			DNSMs:      ms(res.Metrics.DNS),
			TLSMs:      ms(res.Metrics.TLS),
			TTFBMs:     ms(res.Metrics.TTFB),
			TotalMs:    ms(res.Metrics.Total),
			ConnReused: res.Metrics.ConnReused,
			RateLimit:  res.RateLimit,
		})
	}
	return res, err
}

func buildTranscriber(cfg config.Config) transcriber.Transcriber {
	switch cfg.Transcriber {
	case "remote":
		r := transcriber.NewRemote(cfg.RemoteAudioURL, cfg.RemoteAudioKey, cfg.TranscribeModel)
		go r.Warm(context.Background())
		return metered{inner: r}
	default:
		w := transcriber.NewWhisper(cfg.WhisperURL)
		go func() {
			if err := w.Health(context.Background()); err != nil {
				log.Warnf("whisper server not reachable: %v", err)
			}
		}()
		return metered{inner: w}
	}
}

// failureNotice maps an outcome label to a short desktop notification.
// Cancelled sessions stay quiet; the user superseded them on purpose.
func failureNotice(label string) (title, message string, ok bool) {
	switch label {
	case "no_selection":
		return "No text selected", "Select text first, then press the hotkey.", true
	case "target_stale":
		return "Selection changed", "The text changed while rewriting, so nothing was replaced.", true
	case "device_unavailable":
		return "Microphone busy", "Another recording is already using the microphone.", true
	case "auth_error":
		return "Authentication failed", "Check your API key in settings.", true
	case "rate_limited":
		return "Rate limited", "The model refused the request. Try again in a moment.", true
	case "model_unavailable":
		return "Model unavailable", "The transcription or rewrite backend is not responding.", true
	case "network_error":
		return "Network error", "Could not reach the model. Check your connection.", true
	case "cancelled":
		return "", "", false
	default:
		return "Request failed", "The model returned an error. See the diagnostics log.", true
	}
}

func hooks(a coordinator.Action, clock *sessionClock, notifier *notify.Notifier) coordinator.Hooks {
	return coordinator.Hooks{
		Started: func(_ coordinator.Action, gen uint64) {
			clock.start(gen)
			log.SessionStart(a.Name, gen)
		},
		Finished: func(o coordinator.Outcome) {
			label := o.Label()
			log.SessionEnd(a.Name, o.Gen, label, clock.elapsed(o.Gen))
			if o.Err != nil {
				log.Errorf("%s: %v", a.Name, o.Err)
				go beep.PlayError()
				if title, message, ok := failureNotice(label); ok {
					notifier.Error(title, message)
				}
				return
			}
			if o.Text != "" {
				log.OutputText(o.Text)
			}
		},
	}
}

// watchSilence nags once when a held dictation key picks up no voice,
// which usually means a muted or wrongly selected microphone.
func watchSilence(rec *audio.Recorder, notifier *notify.Notifier, stop <-chan struct{}) {
	monitor := audio.NewSilenceMonitor()
	ticker := time.NewTicker(audio.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			switch monitor.Tick(rec.HasSpeechTick()) {
			case audio.SilenceWarn:
				log.Warn("no voice detected while recording")
				go beep.PlayError()
				notifier.Error("No voice detected", "Check that your microphone is not muted.")
			case audio.SilenceWarnClear:
				log.Info("voice detected again")
			}
		}
	}
}

// serve forwards one hotkey's edges into its coordinator. Runs until
// the handle is unregistered.
func serve(h *hotkey.Handle, c *coordinator.Coordinator, rec *audio.Recorder, notifier *notify.Notifier, speech bool) {
	var stopSilence chan struct{}
	for ev := range h.Events() {
		switch ev.Edge {
		case hotkey.Pressed:
			if speech {
				go beep.PlayStart()
				stopSilence = make(chan struct{})
				go watchSilence(rec, notifier, stopSilence)
			}
			c.Press()
		case hotkey.Released:
			if speech {
				if stopSilence != nil {
					close(stopSilence)
					stopSilence = nil
				}
				go beep.PlayEnd()
			}
			c.Release()
		}
	}
	if stopSilence != nil {
		close(stopSilence)
	}
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device and save it to settings")
	deviceFlag := flag.String("device", "", "Use named microphone device for this run")
	configFlag := flag.String("config", "", "Settings file path (default: OS-specific location)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	langFlag := flag.String("lang", "", "Override transcription language (e.g. en, es). Empty = auto-detect")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Scripted mode (headless, stdin-driven)")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("vox %s\n", version)
		os.Exit(0)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath, err = config.Path()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid settings: %v\n", err)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if *setupFlag {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := audio.SelectDevice(actx)
		actx.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
		} else if dev != nil {
			cfg.Device = dev.Name
			if err := config.Save(cfgPath, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save settings: %v\n", err)
			} else {
				fmt.Printf("Saved microphone %q to %s\n", dev.Name, cfgPath)
			}
		}
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *testFlag {
		runScripted(cfg)
		return
	}

	if !cfg.Sounds {
		beep.Disable()
	}
	notifier := notify.New(cfg.Notifications)

	bridge, err := selection.NewClipboardBridge()
	if err != nil {
		log.Errorf("selection bridge init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: cannot inject keystrokes: %v\n", err)
		fmt.Fprintln(os.Stderr, "On Linux fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		os.Exit(1)
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	dev, err := audio.FindDevice(actx, cfg.Device)
	if err != nil {
		log.Warnf("device lookup failed, using default: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: %v, using default device\n", err)
		dev = nil
	}
	if dev != nil && audio.IsBluetooth(dev.Name) {
		log.Warn("bluetooth microphone selected, capture quality may be reduced: " + dev.Name)
	}

	capture, err := actx.NewCapture(dev, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	rec := audio.NewRecorder(capture, encoder.SampleRate)

	rewriter := rewrite.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	tr := buildTranscriber(cfg)

	registry, err := hotkey.New()
	if err != nil {
		log.Errorf("hotkey backend init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: hotkeys unavailable: %v\n", err)
		if hint, derr := hotkey.Diagnose(); derr == nil && hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
	defer registry.Close()

	clock := newSessionClock()
	var coordinators []*coordinator.Coordinator
	for _, a := range actions() {
		combo, err := cfg.Combo(a.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		handle, err := registry.Register(a.Name, combo)
		if err != nil {
			log.Errorf("hotkey register error for %s: %v", a.Name, err)
			fmt.Fprintf(os.Stderr, "Error registering %s for %s: %v\n", combo, a.Name, err)
			os.Exit(1)
		}
		c := coordinator.New(coordinator.Config{
			Action:      a,
			Bridge:      bridge,
			Rewriter:    rewriter,
			Recorder:    rec,
			Transcriber: tr,
			Language:    cfg.Language,
			Hooks:       hooks(a, clock, notifier),
		})
		coordinators = append(coordinators, c)
		go serve(handle, c, rec, notifier, a.Kind == coordinator.KindSpeech)
		log.Info("bound " + combo.String() + " to " + a.Name)
	}

	fmt.Printf("vox %s ready. Press ctrl+c to quit.\n", version)

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	<-sigChan

	log.Info("shutting down")
	registry.Close()
	for _, c := range coordinators {
		c.Close()
	}
}
