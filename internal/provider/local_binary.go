package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/prompt"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// localBinary spawns a child process (a local inference CLI) per
// classification, passing the model file, prompt, max_tokens and
// temperature as flags and reading the generated JSON from stdout.
type localBinary struct {
	settings Settings
}

func newLocalBinary(s Settings) Provider {
	return &localBinary{settings: s}
}

func (p *localBinary) ModelVersion() string {
	if p.settings.Model != "" {
		return p.settings.Model
	}
	return "local:" + p.settings.ModelPath
}

func (p *localBinary) Classify(ctx context.Context, payload Payload, timeout time.Duration) (taxonomy.Label, error) {
	promptText := prompt.Build(payload.Content, payload.Entities, payload.Signals)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.settings.BinaryPath,
		"--model", p.settings.ModelPath,
		"--prompt", promptText,
		"--max-tokens", fmt.Sprintf("%d", p.settings.MaxTokens),
		"--temperature", fmt.Sprintf("%.2f", p.settings.Temperature),
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderUnavail, Err: fmt.Errorf("local binary start failed: %w", err)}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderUnavail, Err: fmt.Errorf("local binary exited with error: %w", err)}
		}
	case <-runCtx.Done():
		_ = cmd.Process.Kill()
		<-done
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderTimeout, Err: fmt.Errorf("local binary did not finish within %s", timeout)}
	}

	raw, err := ExtractJSON(stdout.String())
	if err != nil {
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderProtocol, Err: err}
	}

	var label taxonomy.Label
	if err := json.Unmarshal([]byte(raw), &label); err != nil {
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderProtocol, Err: fmt.Errorf("unmarshal label: %w", err)}
	}
	label.ModelVersion = p.ModelVersion()
	label.SchemaVersion = taxonomy.SchemaVersion
	return taxonomy.Normalize(label), nil
}

func (p *localBinary) HealthCheck(_ context.Context) Health {
	if _, err := os.Stat(p.settings.ModelPath); err != nil {
		return Health{OK: false, Message: "model file missing: " + err.Error()}
	}
	if _, err := exec.LookPath(p.settings.BinaryPath); err != nil {
		if _, statErr := os.Stat(p.settings.BinaryPath); statErr != nil {
			return Health{OK: false, Message: "binary missing: " + err.Error()}
		}
	}
	return Health{OK: true, Message: "local binary healthy", ModelVersion: p.ModelVersion()}
}
