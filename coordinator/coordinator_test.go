package coordinator

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"vox/audio"
	"vox/encoder"
	"vox/fault"
	"vox/rewrite"
	"vox/selection"
	"vox/transcriber"
)

func pcmMillis(ms int) []byte {
	samples := encoder.SampleRate * ms / 1000
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i%8000))
	}
	return pcm
}

func newRecorder(t *testing.T, ms int) *audio.Recorder {
	t.Helper()
	fctx := audio.NewFakeContext(pcmMillis(ms), encoder.SampleRate, false)
	fctx.DisableTailSilence()
	capture, err := fctx.NewCapture(nil, audio.CaptureConfig{SampleRate: encoder.SampleRate})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	return audio.NewRecorder(capture, encoder.SampleRate)
}

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session outcome")
		return Outcome{}
	}
}

func expectNoOutcome(t *testing.T, ch <-chan Outcome) {
	t.Helper()
	select {
	case o := <-ch:
		t.Fatalf("unexpected outcome: %+v", o)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitIdle(t *testing.T, c *Coordinator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.State() != Idle {
		if time.Now().After(deadline) {
			t.Fatalf("coordinator stuck in %v", c.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func newRewriteCoordinator(bridge selection.Bridge, rw rewrite.Rewriter, finished chan Outcome) *Coordinator {
	return New(Config{
		Action:   Action{Name: "fix-grammar", Kind: KindRewrite, Preset: rewrite.FixGrammar},
		Bridge:   bridge,
		Rewriter: rw,
		Hooks:    Hooks{Finished: func(o Outcome) { finished <- o }},
	})
}

func newSpeechCoordinator(bridge selection.Bridge, rec *audio.Recorder, tr transcriber.Transcriber, finished chan Outcome) *Coordinator {
	return New(Config{
		Action:      Action{Name: "speech", Kind: KindSpeech},
		Bridge:      bridge,
		Recorder:    rec,
		Transcriber: tr,
		Hooks:       Hooks{Finished: func(o Outcome) { finished <- o }},
	})
}

func TestRewriteHappyPath(t *testing.T) {
	bridge := selection.NewFakeBridge("teh cat sat")
	rw := rewrite.NewFake("The cat sat", nil)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	o := waitOutcome(t, finished)

	if o.Err != nil {
		t.Fatalf("outcome error: %v", o.Err)
	}
	if o.Text != "The cat sat" {
		t.Errorf("Text = %q", o.Text)
	}
	writes := bridge.Writes()
	if len(writes) != 1 || writes[0].Text != "The cat sat" {
		t.Fatalf("writes = %+v", writes)
	}
	if !writes[0].Target.Selection {
		t.Error("rewrite must target the selection, not the cursor")
	}
	if got := c.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
}

func TestRewriteNoSelection(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	bridge.NoSelection = true
	rw := rewrite.NewFake("unused", nil)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	o := waitOutcome(t, finished)

	if o.Label() != "no_selection" {
		t.Errorf("label = %q, want no_selection", o.Label())
	}
	if len(rw.Calls()) != 0 {
		t.Error("rewriter must not be called without a selection")
	}
	waitIdle(t, c)
}

func TestRewriteFailureLeavesSelectionUntouched(t *testing.T) {
	bridge := selection.NewFakeBridge("original text")
	rw := rewrite.NewFake("", fault.ErrNetwork)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	o := waitOutcome(t, finished)

	if o.Label() != "network_error" {
		t.Errorf("label = %q, want network_error", o.Label())
	}
	if len(bridge.Writes()) != 0 {
		t.Error("failed rewrite must not write anything back")
	}
	waitIdle(t, c)
}

func TestRewriteStaleTarget(t *testing.T) {
	bridge := selection.NewFakeBridge("some text")
	bridge.StaleWrite = true
	rw := rewrite.NewFake("rewritten", nil)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	o := waitOutcome(t, finished)

	if o.Label() != "target_stale" {
		t.Errorf("label = %q, want target_stale", o.Label())
	}
	waitIdle(t, c)
}

func TestRewriteEmptyModelAnswer(t *testing.T) {
	bridge := selection.NewFakeBridge("some text")
	rw := rewrite.NewFake("   ", nil)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	o := waitOutcome(t, finished)

	if !o.Empty || o.Err != nil {
		t.Errorf("outcome = %+v, want empty", o)
	}
	if len(bridge.Writes()) != 0 {
		t.Error("empty answer must not be written back")
	}
}

func TestRewriteSupersedeDiscardsStaleResult(t *testing.T) {
	bridge := selection.NewFakeBridge("input")
	rw := rewrite.NewFake("OLD", nil)
	rw.SetDelay(5 * time.Second)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	deadline := time.Now().Add(2 * time.Second)
	for len(rw.Calls()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first rewrite call never started")
		}
		time.Sleep(time.Millisecond)
	}

	rw.SetDelay(0)
	rw.SetResult("NEW", nil)
	c.Press() // supersedes: cancels the slow call, starts a new session

	o := waitOutcome(t, finished)
	if o.Text != "NEW" {
		t.Errorf("Text = %q, want NEW", o.Text)
	}
	writes := bridge.Writes()
	if len(writes) != 1 || writes[0].Text != "NEW" {
		t.Fatalf("writes = %+v, want exactly one NEW", writes)
	}
	// The superseded session must resolve silently.
	expectNoOutcome(t, finished)
}

func TestRewriteTransformTimeout(t *testing.T) {
	bridge := selection.NewFakeBridge("input")
	rw := rewrite.NewFake("late", nil)
	rw.SetDelay(5 * time.Second)
	finished := make(chan Outcome, 4)
	c := New(Config{
		Action:           Action{Name: "concise", Kind: KindRewrite, Preset: rewrite.Concise},
		Bridge:           bridge,
		Rewriter:         rw,
		TransformTimeout: 50 * time.Millisecond,
		Hooks:            Hooks{Finished: func(o Outcome) { finished <- o }},
	})

	c.Press()
	o := waitOutcome(t, finished)

	if o.Label() != "network_error" {
		t.Errorf("label = %q, want network_error", o.Label())
	}
	if len(bridge.Writes()) != 0 {
		t.Error("timed-out rewrite must not write anything back")
	}
}

func TestSpeechHappyPath(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 2000)
	tr := transcriber.NewFake("hello world", nil)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Press()
	if got := c.State(); got != Acquiring {
		t.Fatalf("state during hold = %v, want Acquiring", got)
	}
	c.Release()

	o := waitOutcome(t, finished)
	if o.Err != nil {
		t.Fatalf("outcome error: %v", o.Err)
	}
	if o.Text != "hello world" {
		t.Errorf("Text = %q", o.Text)
	}
	writes := bridge.Writes()
	if len(writes) != 1 || writes[0].Text != "hello world" {
		t.Fatalf("writes = %+v", writes)
	}
	if writes[0].Target.Selection {
		t.Error("transcript must be inserted at the cursor, not over a selection")
	}
}

func TestSpeechShortCaptureDiscarded(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 80) // below the minimum capture duration
	tr := transcriber.NewFake("should never appear", nil)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Press()
	c.Release()

	o := waitOutcome(t, finished)
	if !o.Empty || o.Err != nil {
		t.Errorf("outcome = %+v, want empty", o)
	}
	if tr.Calls() != 0 {
		t.Error("sub-threshold capture must not reach the transcriber")
	}
	if len(bridge.Writes()) != 0 {
		t.Error("sub-threshold capture must not write anything")
	}
	waitIdle(t, c)
}

func TestSpeechRepeatPressDuringHoldIgnored(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 500)
	tr := transcriber.NewFake("once", nil)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Press()
	gen := c.Generation()
	c.Press() // same hold, must not restart the session
	if got := c.Generation(); got != gen {
		t.Errorf("generation changed %d -> %d on repeat press", gen, got)
	}
	c.Release()

	o := waitOutcome(t, finished)
	if o.Text != "once" {
		t.Errorf("Text = %q", o.Text)
	}
	if n := len(bridge.Writes()); n != 1 {
		t.Errorf("writes = %d, want 1", n)
	}
}

func TestReleaseWithoutPressIsNoop(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 500)
	tr := transcriber.NewFake("never", nil)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Release()

	expectNoOutcome(t, finished)
	if got := c.State(); got != Idle {
		t.Errorf("state = %v, want Idle", got)
	}
}

func TestSpeechDeviceBusy(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 500)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Abort()

	tr := transcriber.NewFake("never", nil)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Press()
	o := waitOutcome(t, finished)

	if o.Label() != "device_unavailable" {
		t.Errorf("label = %q, want device_unavailable", o.Label())
	}
	waitIdle(t, c)
}

func TestSpeechEmptyTranscript(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 500)
	tr := transcriber.NewFake("  ", nil)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Press()
	c.Release()

	o := waitOutcome(t, finished)
	if !o.Empty {
		t.Errorf("outcome = %+v, want empty", o)
	}
	if len(bridge.Writes()) != 0 {
		t.Error("empty transcript must not be written")
	}
}

func TestSpeechTranscriberFailure(t *testing.T) {
	bridge := selection.NewFakeBridge("")
	rec := newRecorder(t, 500)
	tr := transcriber.NewFake("", fault.ErrModelUnavailable)
	finished := make(chan Outcome, 4)
	c := newSpeechCoordinator(bridge, rec, tr, finished)

	c.Press()
	c.Release()

	o := waitOutcome(t, finished)
	if o.Label() != "model_unavailable" {
		t.Errorf("label = %q, want model_unavailable", o.Label())
	}
	waitIdle(t, c)
}

func TestCloseCancelsInFlight(t *testing.T) {
	bridge := selection.NewFakeBridge("input")
	rw := rewrite.NewFake("late", nil)
	rw.SetDelay(5 * time.Second)
	finished := make(chan Outcome, 4)
	c := newRewriteCoordinator(bridge, rw, finished)

	c.Press()
	deadline := time.Now().Add(2 * time.Second)
	for len(rw.Calls()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("rewrite call never started")
		}
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	if len(bridge.Writes()) != 0 {
		t.Error("cancelled session must not write anything")
	}
}

func TestOutcomeLabels(t *testing.T) {
	for _, tt := range []struct {
		o    Outcome
		want string
	}{
		{Outcome{}, "ok"},
		{Outcome{Empty: true}, "empty"},
		{Outcome{Err: selection.ErrNoSelection}, "no_selection"},
		{Outcome{Err: selection.ErrTargetStale}, "target_stale"},
		{Outcome{Err: audio.ErrDeviceBusy}, "device_unavailable"},
		{Outcome{Err: fault.ErrAuth}, "auth_error"},
		{Outcome{Err: fault.ErrRateLimited}, "rate_limited"},
		{Outcome{Err: context.Canceled}, "cancelled"},
	} {
		if got := tt.o.Label(); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.o.Err, got, tt.want)
		}
	}
}

func TestErrorsAreSentinels(t *testing.T) {
	err := fault.FromStatus(401, "bad key")
	if !errors.Is(err, fault.ErrAuth) {
		t.Errorf("FromStatus(401) = %v, want ErrAuth", err)
	}
}
