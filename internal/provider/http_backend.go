package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/prompt"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// httpBackend talks to a local Ollama-style HTTP server.
type httpBackend struct {
	settings Settings
}

func newHTTPBackend(s Settings) Provider {
	return &httpBackend{settings: s}
}

func (p *httpBackend) ModelVersion() string {
	return p.settings.Model
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (p *httpBackend) Classify(ctx context.Context, payload Payload, timeout time.Duration) (taxonomy.Label, error) {
	promptText := prompt.Build(payload.Content, payload.Entities, payload.Signals)

	reqBody := generateRequest{
		Model:  p.settings.Model,
		Prompt: promptText,
		Stream: false,
		Options: generateOptions{
			Temperature: p.settings.Temperature,
			NumPredict:  p.settings.MaxTokens,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderProtocol, Err: fmt.Errorf("encode request: %w", err)}
	}

	httpCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(httpCtx, http.MethodPost, p.settings.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderProtocol, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderTimeout, Err: fmt.Errorf("generate request timed out after %s: %w", timeout, err)}
		}
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderUnavail, Err: err}
	}
	defer resp.Body.Close()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return taxonomy.Label{}, &apperr.ProviderError{Kind: apperr.KindProviderProtocol, Err: fmt.Errorf("decode response: %w", err)}
	}

	raw, err := ExtractJSON(genResp.Response)
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

func (p *httpBackend) HealthCheck(ctx context.Context) Health {
	versionCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	versionReq, err := http.NewRequestWithContext(versionCtx, http.MethodGet, p.settings.BaseURL+"/api/version", nil)
	if err != nil {
		return Health{OK: false, Message: err.Error()}
	}
	if _, err := http.DefaultClient.Do(versionReq); err != nil {
		return Health{OK: false, Message: "version endpoint unreachable: " + err.Error()}
	}

	showCtx, cancel2 := context.WithTimeout(ctx, 3*time.Second)
	defer cancel2()
	showBody, _ := json.Marshal(map[string]string{"name": p.settings.Model})
	showReq, err := http.NewRequestWithContext(showCtx, http.MethodPost, p.settings.BaseURL+"/api/show", bytes.NewReader(showBody))
	if err != nil {
		return Health{OK: false, Message: err.Error()}
	}
	if _, err := http.DefaultClient.Do(showReq); err != nil {
		return Health{OK: false, Message: "model-show endpoint unreachable: " + err.Error()}
	}

	return Health{OK: true, Message: "http backend healthy", ModelVersion: p.ModelVersion()}
}
