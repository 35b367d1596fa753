package fusion

import (
	"testing"

	"github.com/smilemakc/smslabel/internal/taxonomy"
	"github.com/stretchr/testify/assert"
)

func TestFuse_RuleOnly(t *testing.T) {
	rule := taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, Confidence: 0.9}
	out := Fuse(Input{Rule: &rule})
	assert.Equal(t, taxonomy.IndustryFinance, out.Industry)
	assert.Equal(t, taxonomy.TypeTransactionAlert, out.Type)
}

func TestFuse_ModelOnly(t *testing.T) {
	model := taxonomy.Label{Industry: taxonomy.IndustryInternet, Type: taxonomy.TypeMarketing, Confidence: 0.6}
	out := Fuse(Input{Model: &model})
	assert.Equal(t, taxonomy.IndustryInternet, out.Industry)
	assert.Equal(t, taxonomy.TypeMarketing, out.Type)
}

func TestFuse_Neither(t *testing.T) {
	out := Fuse(Input{})
	assert.Equal(t, taxonomy.IndustryOther, out.Industry)
	assert.Equal(t, taxonomy.TypeOther, out.Type)
	assert.True(t, out.NeedsReview)
	assert.Contains(t, out.Reasons, "no_rule_no_model")
}

func TestFuse_BothAgree_NoConflictPenalty(t *testing.T) {
	rule := taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, Confidence: 0.9}
	model := taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, Confidence: 0.7}
	out := Fuse(Input{Rule: &rule, Model: &model})
	assert.Equal(t, 0.9, out.Confidence)
	assert.False(t, out.NeedsReview)
}

func TestFuse_StrongHitAlwaysWinsRegardlessOfConfidence(t *testing.T) {
	rule := taxonomy.Label{Industry: taxonomy.IndustryGeneral, Type: taxonomy.TypeVerificationCode, Confidence: 0.98}
	model := taxonomy.Label{Industry: taxonomy.IndustryInternet, Type: taxonomy.TypeMarketing, Confidence: 0.99}
	out := Fuse(Input{Rule: &rule, Model: &model, RuleStrongHit: true})
	assert.Equal(t, taxonomy.TypeVerificationCode, out.Type)
	assert.True(t, out.NeedsReview)
	assert.Contains(t, out.Reasons, "fusion_conflict")
}

func TestFuse_ConfidenceWinsWhenNoStrongHit(t *testing.T) {
	rule := taxonomy.Label{Industry: taxonomy.IndustryGeneral, Type: taxonomy.TypeOther, Confidence: 0.5}
	model := taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, Confidence: 0.8}
	out := Fuse(Input{Rule: &rule, Model: &model, RuleStrongHit: false})
	assert.Equal(t, taxonomy.TypeTransactionAlert, out.Type)
	assert.True(t, out.NeedsReview)
}

func TestFuse_ConflictPenaltyCapsAt85Percent(t *testing.T) {
	rule := taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, Confidence: 1.0}
	model := taxonomy.Label{Industry: taxonomy.IndustryGov, Type: taxonomy.TypeGovNotice, Confidence: 0.5}
	out := Fuse(Input{Rule: &rule, Model: &model, RuleStrongHit: true})
	assert.InDelta(t, 0.85, out.Confidence, 1e-9)
}

func TestFuse_ConflictPenaltyBelowCapWhenConfidenceLow(t *testing.T) {
	rule := taxonomy.Label{Industry: taxonomy.IndustryFinance, Type: taxonomy.TypeTransactionAlert, Confidence: 0.6}
	model := taxonomy.Label{Industry: taxonomy.IndustryGov, Type: taxonomy.TypeGovNotice, Confidence: 0.4}
	out := Fuse(Input{Rule: &rule, Model: &model, RuleStrongHit: false})
	assert.InDelta(t, 0.51, out.Confidence, 1e-9)
}
