// Package provider implements the uniform classify contract over the
// Mock, LocalBinary and HttpBackend model backends.
package provider

import (
	"context"
	"time"

	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// Payload is what a provider needs to classify one message.
type Payload struct {
	MessageID int64
	Content   string
	Sender    string
	Entities  taxonomy.Entities
	Signals   map[string]string
}

// Health is the outcome of a provider health check.
type Health struct {
	OK           bool
	Message      string
	ModelVersion string
}

// Provider is the capability every backend implements. Variant selection
// is static after a provider is built at batch start; it is never
// reconfigured in flight.
type Provider interface {
	Classify(ctx context.Context, payload Payload, timeout time.Duration) (taxonomy.Label, error)
	ModelVersion() string
	HealthCheck(ctx context.Context) Health
}

// Kind identifies which concrete Provider a Settings value describes.
type Kind string

const (
	KindMock        Kind = "mock"
	KindLocalBinary Kind = "local_binary"
	KindHTTP        Kind = "http"
)

// Settings configures any of the three provider kinds; fields not used by
// the selected Kind are ignored.
type Settings struct {
	Kind        Kind
	ModelPath   string
	BinaryPath  string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Build constructs the Provider selected by s.Kind. The build is static:
// once constructed, a Provider never observes changes to s.
func Build(s Settings) (Provider, error) {
	switch s.Kind {
	case KindLocalBinary:
		return newLocalBinary(s), nil
	case KindHTTP:
		return newHTTPBackend(s), nil
	default:
		return newMock(), nil
	}
}
