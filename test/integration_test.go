//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("VOX_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "VOX_TEST_BIN not set; build the binary and point VOX_TEST_BIN at it")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runVox(t *testing.T, stdin string) string {
	t.Helper()
	logDir := t.TempDir()

	cmd := exec.Command(testBinary, "-logpath", logDir, "-test")
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("vox exited with error: %v\noutput: %s", err, out)
	}
	return string(out)
}

func requireResult(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestDictation(t *testing.T) {
	out := runVox(t, cmds("PRESS speech", "SLEEP 500", "RELEASE speech", "WAIT", "QUIT"))
	requireResult(t, out, `RESULT action=speech label=ok text="hello world"`)
}

func TestDictationShortTapDiscarded(t *testing.T) {
	out := runVox(t, cmds("PRESS speech", "SLEEP 50", "RELEASE speech", "WAIT", "QUIT"))
	requireResult(t, out, "RESULT action=speech label=empty")
}

func TestRewrite(t *testing.T) {
	out := runVox(t, cmds("PRESS fix-grammar", "WAIT", "QUIT"))
	requireResult(t, out, `RESULT action=fix-grammar label=ok text="The quick brown fox."`)
}

func TestRewritePresets(t *testing.T) {
	for _, action := range []string{"professional", "concise", "friendly"} {
		out := runVox(t, cmds("PRESS "+action, "WAIT", "QUIT"))
		requireResult(t, out, "RESULT action="+action+" label=ok")
	}
}

func TestBackToBackSessions(t *testing.T) {
	out := runVox(t, cmds(
		"PRESS speech", "SLEEP 400", "RELEASE speech", "WAIT",
		"PRESS fix-grammar", "WAIT",
		"QUIT",
	))
	requireResult(t, out, "RESULT action=speech label=ok")
	requireResult(t, out, "RESULT action=fix-grammar label=ok")
}
