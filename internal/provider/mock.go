package provider

import (
	"context"
	"time"

	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// mockProvider is a deterministic stand-in used in tests and offline runs.
type mockProvider struct{}

func newMock() Provider {
	return &mockProvider{}
}

func (m *mockProvider) Classify(_ context.Context, payload Payload, _ time.Duration) (taxonomy.Label, error) {
	return taxonomy.Normalize(taxonomy.Label{
		Industry:     taxonomy.IndustryOther,
		Type:         taxonomy.TypeOther,
		Confidence:   0.55,
		NeedsReview:  true,
		Reasons:      []string{"mock_provider"},
		Entities:     payload.Entities,
		ModelVersion: m.ModelVersion(),
	}), nil
}

func (m *mockProvider) ModelVersion() string {
	return "mock-1"
}

func (m *mockProvider) HealthCheck(_ context.Context) Health {
	return Health{OK: true, Message: "mock always healthy", ModelVersion: m.ModelVersion()}
}
