// Package settings loads and persists the provider settings file: a
// single JSON object describing which model backend the batch executor
// should build at start.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/provider"
)

// File is the on-disk shape of the settings file: a single `provider`
// object, matching the wire format in the spec's External Interfaces
// section.
type File struct {
	Provider ProviderSettings `json:"provider"`
}

// ProviderSettings is the JSON projection of provider.Settings.
type ProviderSettings struct {
	Kind        string  `json:"kind"`
	ModelPath   string  `json:"model_path,omitempty"`
	BinaryPath  string  `json:"binary_path,omitempty"`
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// preferredDefaults is what an untouched "mock" default is rewritten to
// by the one-time migration: a local HTTP backend pointed at a
// conventional local Ollama-style endpoint.
var preferredDefaults = ProviderSettings{
	Kind:        "http",
	BaseURL:     "http://127.0.0.1:11434",
	Model:       "qwen2.5:7b-instruct",
	Temperature: 0.1,
	MaxTokens:   512,
}

func defaultMock() ProviderSettings {
	return ProviderSettings{Kind: "mock", Temperature: 0.1, MaxTokens: 512}
}

// isUntouchedMockDefault reports whether p is exactly the zero-config
// mock default, the only state the one-time migration rewrites.
func isUntouchedMockDefault(p ProviderSettings) bool {
	d := defaultMock()
	return p.Kind == d.Kind && p.ModelPath == "" && p.BinaryPath == "" && p.BaseURL == "" &&
		p.Model == "" && p.Temperature == d.Temperature && p.MaxTokens == d.MaxTokens
}

// Load reads the settings file at path, creating it with the mock
// default if it does not exist, and rewrites a file holding the untouched
// "mock" default to the preferred backend. No migration marker is
// persisted: a file later set back to exactly that default is rewritten
// again on the next Load.
func Load(path string) (File, bool, error) {
	migrated := false

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		f := File{Provider: defaultMock()}
		if writeErr := Save(path, f); writeErr != nil {
			return File{}, false, writeErr
		}
		return f, false, nil
	}
	if err != nil {
		return File{}, false, &apperr.StoreError{Op: "settings_load", Err: err}
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return File{}, false, &apperr.StoreError{Op: "settings_parse", Err: err}
	}

	if isUntouchedMockDefault(f.Provider) {
		f.Provider = preferredDefaults
		migrated = true
		if err := Save(path, f); err != nil {
			return File{}, false, err
		}
	}

	return f, migrated, nil
}

// Save writes f to path as indented JSON, creating parent directories as
// needed.
func Save(path string, f File) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &apperr.StoreError{Op: "settings_save", Err: err}
		}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return &apperr.StoreError{Op: "settings_save", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &apperr.StoreError{Op: "settings_save", Err: err}
	}
	return nil
}

// ToProviderSettings converts the JSON projection to provider.Settings.
func (p ProviderSettings) ToProviderSettings() provider.Settings {
	return provider.Settings{
		Kind:        provider.Kind(p.Kind),
		ModelPath:   p.ModelPath,
		BinaryPath:  p.BinaryPath,
		BaseURL:     p.BaseURL,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}
