// Package coordinator sequences one hotkey-triggered action from edge
// to replaced text: edge detection, acquisition of the ephemeral
// input (selected text or held-key audio), the model transformation,
// and the write back at the original target. Each action owns its own
// Coordinator; a generation counter makes superseded sessions inert.
package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"vox/audio"
	"vox/fault"
	"vox/rewrite"
	"vox/selection"
	"vox/transcriber"
)

// DefaultTransformTimeout bounds the model call. Past it the session
// fails as a network error rather than hanging Replacing forever.
const DefaultTransformTimeout = 30 * time.Second

// Kind discriminates the two pipeline shapes.
type Kind int

const (
	// KindRewrite fires on the press edge: read selection, call the
	// rewrite model, write back over the selection.
	KindRewrite Kind = iota
	// KindSpeech is hold-to-capture: audio accumulates between press
	// and release, then transcription, then insert at the cursor.
	KindSpeech
)

// Action is one logical user-triggerable operation.
type Action struct {
	Name   string
	Kind   Kind
	Preset rewrite.Preset // rewrite actions only
}

// State of a Coordinator. Transitions only move forward within a
// generation; a superseding press resets to Acquiring under a new one.
type State int

const (
	Idle State = iota
	Acquiring
	Transforming
	Replacing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Transforming:
		return "transforming"
	case Replacing:
		return "replacing"
	}
	return "unknown"
}

// Outcome is the terminal result of one session.
type Outcome struct {
	Action Action
	Gen    uint64
	// Text is the delivered replacement on success.
	Text string
	// Empty means the session resolved without output and without
	// error: a sub-threshold capture or a model answer with no text.
	Empty bool
	Err   error
}

// Label returns a short stable classification for logs and
// notifications.
func (o Outcome) Label() string {
	switch {
	case o.Err == nil && o.Empty:
		return "empty"
	case o.Err == nil:
		return "ok"
	case errors.Is(o.Err, selection.ErrNoSelection):
		return "no_selection"
	case errors.Is(o.Err, selection.ErrTargetStale):
		return "target_stale"
	case errors.Is(o.Err, audio.ErrDeviceBusy):
		return "device_unavailable"
	default:
		return fault.Kind(o.Err)
	}
}

// Hooks observe session boundaries. Nil funcs are skipped. Finished
// fires exactly once per session that was not superseded; superseded
// sessions vanish silently, their generation already overwritten.
type Hooks struct {
	Started  func(a Action, gen uint64)
	Finished func(o Outcome)
}

// Config wires one Coordinator. Bridge is required; Rewriter for
// KindRewrite, Recorder and Transcriber for KindSpeech.
type Config struct {
	Action           Action
	Bridge           selection.Bridge
	Rewriter         rewrite.Rewriter
	Recorder         *audio.Recorder
	Transcriber      transcriber.Transcriber
	Language         string
	TransformTimeout time.Duration
	Hooks            Hooks
}

type Coordinator struct {
	cfg Config

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	closed bool

	wg sync.WaitGroup
}

func New(cfg Config) *Coordinator {
	if cfg.TransformTimeout <= 0 {
		cfg.TransformTimeout = DefaultTransformTimeout
	}
	return &Coordinator{cfg: cfg}
}

// State returns the current machine state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the id of the most recent session.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Press handles a press edge. Repeats without an intervening release
// never reach here; the hotkey layer swallows them. A press while a
// previous session is still Transforming or Replacing supersedes it:
// the old session is cancelled and its results are discarded.
func (c *Coordinator) Press() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cfg.Action.Kind == KindSpeech && c.state == Acquiring {
		// The hold itself. Nothing to restart.
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	gen := c.gen
	c.state = Acquiring
	a := c.cfg.Action

	switch a.Kind {
	case KindRewrite:
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.wg.Add(1)
		c.mu.Unlock()
		c.started(a, gen)
		go func() {
			defer c.wg.Done()
			c.runRewrite(ctx, gen)
		}()

	case KindSpeech:
		c.mu.Unlock()
		c.started(a, gen)
		if err := c.cfg.Recorder.Start(); err != nil {
			c.finish(gen, Outcome{Err: err})
		}
	}
}

// Release handles a release edge. For rewrite actions it is a no-op.
// For speech it ends the capture and submits it; a release with no
// live capture (including after a failed device open) is a no-op.
func (c *Coordinator) Release() {
	c.mu.Lock()
	if c.closed || c.cfg.Action.Kind != KindSpeech || c.state != Acquiring {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.state = Transforming
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	// Stop outside the lock; the device teardown can block briefly.
	buf := c.cfg.Recorder.Stop()
	if buf.Empty() {
		cancel()
		c.wg.Done()
		c.finish(gen, Outcome{Empty: true})
		return
	}

	// The insertion point is pinned now, before the model call, so a
	// focus change during transcription cannot redirect the paste.
	target := c.cfg.Bridge.Cursor()

	go func() {
		defer c.wg.Done()
		c.runSpeech(ctx, gen, buf, target)
	}()
}

// Close cancels any in-flight session and waits for its goroutine.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	abort := c.cfg.Action.Kind == KindSpeech && c.state == Acquiring
	c.state = Idle
	c.mu.Unlock()

	if abort {
		c.cfg.Recorder.Abort()
	}
	c.wg.Wait()
}

func (c *Coordinator) runRewrite(ctx context.Context, gen uint64) {
	snap, err := c.cfg.Bridge.Read()
	if err != nil {
		c.finish(gen, Outcome{Err: err})
		return
	}
	if strings.TrimSpace(snap.Text) == "" {
		c.finish(gen, Outcome{Empty: true})
		return
	}
	if !c.advance(gen, Transforming) {
		return
	}

	tctx, tcancel := context.WithTimeout(ctx, c.cfg.TransformTimeout)
	defer tcancel()
	out, err := c.cfg.Rewriter.Rewrite(tctx, snap.Text, c.cfg.Action.Preset)
	if err != nil {
		c.finish(gen, Outcome{Err: err})
		return
	}
	if strings.TrimSpace(out) == "" {
		c.finish(gen, Outcome{Empty: true})
		return
	}

	if !c.advance(gen, Replacing) {
		return
	}
	if err := c.cfg.Bridge.Write(snap.Target, out); err != nil {
		c.finish(gen, Outcome{Err: err})
		return
	}
	c.finish(gen, Outcome{Text: out})
}

func (c *Coordinator) runSpeech(ctx context.Context, gen uint64, buf audio.Buffer, target selection.Target) {
	tctx, tcancel := context.WithTimeout(ctx, c.cfg.TransformTimeout)
	defer tcancel()
	res, err := c.cfg.Transcriber.Transcribe(tctx, buf.PCM, transcriber.Options{Language: c.cfg.Language})
	if err != nil {
		c.finish(gen, Outcome{Err: err})
		return
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		c.finish(gen, Outcome{Empty: true})
		return
	}

	if !c.advance(gen, Replacing) {
		return
	}
	if err := c.cfg.Bridge.Write(target, text); err != nil {
		c.finish(gen, Outcome{Err: err})
		return
	}
	c.finish(gen, Outcome{Text: text})
}

// advance moves to the next state if gen is still current. A false
// return means the session was superseded; the caller must stop
// touching shared state and drop its result.
func (c *Coordinator) advance(gen uint64, s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.closed {
		return false
	}
	c.state = s
	return true
}

// finish resolves the session: back to Idle plus exactly one Finished
// hook, unless a newer generation already took over.
func (c *Coordinator) finish(gen uint64, o Outcome) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.state = Idle
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	o.Action = c.cfg.Action
	o.Gen = gen
	if c.cfg.Hooks.Finished != nil {
		c.cfg.Hooks.Finished(o)
	}
}

func (c *Coordinator) started(a Action, gen uint64) {
	if c.cfg.Hooks.Started != nil {
		c.cfg.Hooks.Started(a, gen)
	}
}
