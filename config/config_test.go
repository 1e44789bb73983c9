package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vox/hotkey"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("VOX_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "settings.json")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Bindings[ActionSpeech] != "ctrl+shift+space" {
		t.Errorf("speech binding = %q", cfg.Bindings[ActionSpeech])
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("VOX_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "settings.json")

	cfg := Default()
	cfg.APIKey = "sk-test"
	cfg.Language = "en"
	cfg.Bindings[ActionSpeech] = "alt+space"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("settings file mode = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIKey != "sk-test" || got.Language != "en" {
		t.Errorf("got %+v", got)
	}
	if got.Bindings[ActionSpeech] != "alt+space" {
		t.Errorf("speech binding = %q", got.Bindings[ActionSpeech])
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed settings")
	}
}

func TestValidateRejectsModifierlessBinding(t *testing.T) {
	cfg := Default()
	cfg.Bindings["speech"] = "space"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for binding without modifier")
	}
}

func TestValidateRejectsDuplicateBindings(t *testing.T) {
	cfg := Default()
	cfg.Bindings["concise"] = cfg.Bindings["friendly"]
	err := cfg.Validate()
	if !errors.Is(err, hotkey.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestValidateRejectsUnknownTranscriber(t *testing.T) {
	cfg := Default()
	cfg.Transcriber = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown transcriber")
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("VOX_API_KEY", "sk-env")
	path := filepath.Join(t.TempDir(), "settings.json")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want sk-env", cfg.APIKey)
	}
}

func TestDefaultBindingsAreValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
