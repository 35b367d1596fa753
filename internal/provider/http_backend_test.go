package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPBackend(t *testing.T, baseURL string) Provider {
	t.Helper()
	p, err := Build(Settings{Kind: KindHTTP, BaseURL: baseURL, Model: "qwen2.5:7b-instruct", Temperature: 0.1, MaxTokens: 128})
	require.NoError(t, err)
	return p
}

func TestHTTPBackend_ClassifyParsesModelResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		resp := generateResponse{Response: `noise {"industry":"金融","type":"交易提醒","confidence":0.8,"reasons":["model"]} trailing`}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := newTestHTTPBackend(t, srv.URL)
	label, err := p.Classify(context.Background(), Payload{MessageID: 1, Content: "x"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.IndustryFinance, label.Industry)
	assert.Equal(t, taxonomy.TypeTransactionAlert, label.Type)
	assert.Equal(t, "qwen2.5:7b-instruct", label.ModelVersion)
}

func TestHTTPBackend_ClassifyUnreachableReturnsProviderUnavailable(t *testing.T) {
	p := newTestHTTPBackend(t, "http://127.0.0.1:1")
	_, err := p.Classify(context.Background(), Payload{MessageID: 1, Content: "x"}, 200*time.Millisecond)
	require.Error(t, err)
	var provErr *apperr.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, apperr.KindProviderUnavail, provErr.Kind)
}

func TestHTTPBackend_ClassifyTimeoutReturnsProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: `{"industry":"其他","type":"其他"}`})
	}))
	defer srv.Close()

	p := newTestHTTPBackend(t, srv.URL)
	_, err := p.Classify(context.Background(), Payload{MessageID: 1, Content: "x"}, 10*time.Millisecond)
	require.Error(t, err)
	var provErr *apperr.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, apperr.KindProviderTimeout, provErr.Kind)
}

func TestHTTPBackend_ClassifyMalformedModelJSONReturnsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := generateResponse{Response: "not json at all"}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := newTestHTTPBackend(t, srv.URL)
	_, err := p.Classify(context.Background(), Payload{MessageID: 1, Content: "x"}, time.Second)
	require.Error(t, err)
	var provErr *apperr.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, apperr.KindProviderProtocol, provErr.Kind)
}

func TestHTTPBackend_HealthCheckOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := newTestHTTPBackend(t, srv.URL)
	h := p.HealthCheck(context.Background())
	assert.True(t, h.OK)
}

func TestHTTPBackend_HealthCheckUnreachable(t *testing.T) {
	p := newTestHTTPBackend(t, "http://127.0.0.1:1")
	h := p.HealthCheck(context.Background())
	assert.False(t, h.OK)
}

func TestHTTPBackend_ModelVersionReflectsSettings(t *testing.T) {
	p := newTestHTTPBackend(t, "http://unused")
	assert.Equal(t, "qwen2.5:7b-instruct", p.ModelVersion())
}
