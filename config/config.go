// Package config loads and persists user settings: hotkey bindings,
// rewrite credentials, and transcription endpoints. Settings live in
// a single JSON file under the platform config directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vox/hotkey"
	"vox/rewrite"
)

// ActionSpeech names the push-to-talk action; rewrite actions are
// named by their preset.
const ActionSpeech = "speech"

// Config is the on-disk settings shape. The API key is stored here in
// plain text; the file is chmod 0600 for that reason.
type Config struct {
	// Rewrite backend (OpenAI-compatible chat completions).
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`

	// Transcription backend: "whisper" talks to a local whisper.cpp
	// server, "remote" to an OpenAI-compatible cloud endpoint.
	Transcriber     string `json:"transcriber"`
	WhisperURL      string `json:"whisper_url"`
	RemoteAudioURL  string `json:"remote_audio_url"`
	RemoteAudioKey  string `json:"remote_audio_key"`
	TranscribeModel string `json:"transcribe_model"`
	Language        string `json:"language"`

	// Device is the preferred microphone name. Empty means default.
	Device string `json:"device"`

	Notifications bool `json:"notifications"`
	Sounds        bool `json:"sounds"`

	// Bindings maps action names to hotkey combinations.
	Bindings map[string]string `json:"bindings"`
}

func Default() Config {
	return Config{
		Model:           "gpt-4o-mini",
		BaseURL:         "https://api.openai.com/v1",
		Transcriber:     "whisper",
		WhisperURL:      "http://127.0.0.1:8090",
		TranscribeModel: "whisper-large-v3-turbo",
		Notifications:   true,
		Sounds:          true,
		Bindings: map[string]string{
			string(rewrite.FixGrammar):   "ctrl+shift+g",
			string(rewrite.Professional): "ctrl+shift+p",
			string(rewrite.Concise):      "ctrl+shift+c",
			string(rewrite.Friendly):     "ctrl+shift+f",
			ActionSpeech:                 "ctrl+shift+space",
		},
	}
}

// Dir returns the settings directory, created on demand.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "vox")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Path returns the settings file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load reads the settings file at path. A missing file yields the
// defaults; a malformed one is an error so a typo never silently
// resets bindings.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Bindings == nil {
		cfg.Bindings = Default().Bindings
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv lets environment variables override stored credentials so
// a key never has to touch the disk.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VOX_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("VOX_AUDIO_API_KEY"); v != "" {
		cfg.RemoteAudioKey = v
	}
}

// Save writes the settings file atomically.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Validate checks the binding table: every combination must parse,
// carry at least one modifier, and be unique across actions.
func (c Config) Validate() error {
	switch c.Transcriber {
	case "whisper", "remote":
	default:
		return fmt.Errorf("unknown transcriber %q (want whisper or remote)", c.Transcriber)
	}

	seen := map[hotkey.Combo]string{}
	for action, binding := range c.Bindings {
		combo, err := hotkey.Parse(binding)
		if err != nil {
			return fmt.Errorf("binding for %s: %w", action, err)
		}
		if prev, dup := seen[combo]; dup {
			return fmt.Errorf("%w: %s and %s both bound to %s", hotkey.ErrConflict, prev, action, combo)
		}
		seen[combo] = action
	}
	return nil
}

// Combo returns the parsed binding for an action.
func (c Config) Combo(action string) (hotkey.Combo, error) {
	binding, ok := c.Bindings[action]
	if !ok {
		return hotkey.Combo{}, fmt.Errorf("no binding for action %q", action)
	}
	return hotkey.Parse(binding)
}
