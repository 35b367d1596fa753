// Package taxonomy holds the closed enumerations, the label record, and the
// normalization rules that keep every label conforming to them.
package taxonomy

import "math"

// RulesVersion and SchemaVersion are immutable module-level constants
// referenced by normalize and the prompt builder. They are never mutated
// at runtime.
const (
	RulesVersion  = "rules-2024.1"
	SchemaVersion = "schema-1"
)

const (
	IndustryFinance  = "金融"
	IndustryGeneral  = "通用"
	IndustryGov      = "政务"
	IndustryChannel  = "渠道"
	IndustryInternet = "互联网"
	IndustryOther    = "其他"
)

const (
	TypeVerificationCode = "验证码"
	TypeTransactionAlert = "交易提醒"
	TypeBillReminder     = "账单催缴"
	TypeInsuranceRenewal = "保险续保"
	TypeLogisticsPickup  = "物流取件"
	TypeMembershipChange = "会员账号变更"
	TypeGovNotice        = "政务通知"
	TypeRiskAlert        = "风险提示"
	TypeMarketing        = "营销推广"
	TypeOther            = "其他"
)

// Industries is the closed set of industries a Label may carry.
var Industries = map[string]bool{
	IndustryFinance:  true,
	IndustryGeneral:  true,
	IndustryGov:      true,
	IndustryChannel:  true,
	IndustryInternet: true,
	IndustryOther:    true,
}

// Types is the closed set of message types a Label may carry.
var Types = map[string]bool{
	TypeVerificationCode: true,
	TypeTransactionAlert: true,
	TypeBillReminder:     true,
	TypeInsuranceRenewal: true,
	TypeLogisticsPickup:  true,
	TypeMembershipChange: true,
	TypeGovNotice:        true,
	TypeRiskAlert:        true,
	TypeMarketing:        true,
	TypeOther:            true,
}

// Entities is the fixed set of structured values extracted from a message.
// All fields are optional; a zero value means "not extracted".
type Entities struct {
	Brand            string   `json:"brand,omitempty"`
	VerificationCode string   `json:"verification_code,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	Balance          *float64 `json:"balance,omitempty"`
	AccountSuffix    string   `json:"account_suffix,omitempty"`
	TimeText         string   `json:"time_text,omitempty"`
	URL              string   `json:"url,omitempty"`
	PhoneInText      string   `json:"phone_in_text,omitempty"`
}

// Label is the classification result attached to a Message, 0..1 per
// message.
type Label struct {
	MessageID     int64             `json:"message_id"`
	Industry      string            `json:"industry"`
	Type          string            `json:"type"`
	Entities      Entities          `json:"entities"`
	Confidence    float64           `json:"confidence"`
	NeedsReview   bool              `json:"needs_review"`
	Reasons       []string          `json:"reasons"`
	Signals       map[string]string `json:"signals,omitempty"`
	RulesVersion  string            `json:"rules_version"`
	ModelVersion  string            `json:"model_version"`
	SchemaVersion string            `json:"schema_version"`
	UpdatedBy     string            `json:"updated_by,omitempty"`
	UpdatedAt     string            `json:"updated_at,omitempty"`
	IsManual      bool              `json:"is_manual"`
}

// Clone returns a deep-enough copy of l so callers can mutate the result
// (in particular Reasons and Signals) without aliasing the original.
func (l Label) Clone() Label {
	out := l
	out.Reasons = append([]string(nil), l.Reasons...)
	if l.Signals != nil {
		out.Signals = make(map[string]string, len(l.Signals))
		for k, v := range l.Signals {
			out.Signals[k] = v
		}
	}
	return out
}

// Normalize produces a conforming Label from a candidate one. It is
// idempotent: Normalize(Normalize(l)) == Normalize(l).
func Normalize(in Label) Label {
	out := in.Clone()

	if !Industries[out.Industry] {
		out.Industry = IndustryOther
		out.NeedsReview = true
		out.Reasons = append(out.Reasons, "normalize:invalid_industry")
	}
	if !Types[out.Type] {
		out.Type = TypeOther
		out.NeedsReview = true
		out.Reasons = append(out.Reasons, "normalize:invalid_type")
	}
	if math.IsNaN(out.Confidence) || math.IsInf(out.Confidence, 0) {
		out.Confidence = 0.5
		out.NeedsReview = true
		out.Reasons = append(out.Reasons, "normalize:invalid_confidence")
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	if out.RulesVersion == "" {
		out.RulesVersion = RulesVersion
	}
	out.SchemaVersion = SchemaVersion
	if len(out.Reasons) == 0 {
		out.Reasons = append(out.Reasons, "no_reason")
	}
	return out
}

// ErrorFallback builds a well-formed Label to persist in place of a failed
// classification, so that no message is ever left undecided.
func ErrorFallback(entities Entities, signals map[string]string, err error) Label {
	l := Label{
		Industry:     IndustryOther,
		Type:         TypeOther,
		Entities:     entities,
		Confidence:   0.25,
		NeedsReview:  true,
		Reasons:      []string{"model_error:" + err.Error()},
		Signals:      signals,
		ModelVersion: "error",
	}
	return Normalize(l)
}
