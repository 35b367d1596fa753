// Package fusion combines a rule-engine label and a model label into the
// final label persisted for a message.
package fusion

import "github.com/smilemakc/smslabel/internal/taxonomy"

// Input bundles what the rule engine and the provider produced for one
// message.
type Input struct {
	Rule            *taxonomy.Label
	Model           *taxonomy.Label
	RuleStrongHit   bool
}

// Fuse implements the deterministic combination described by the
// fusion rules: rule-only, model-only, both (strong-hit or
// confidence-wins, with conflict penalization), or neither.
func Fuse(in Input) taxonomy.Label {
	switch {
	case in.Rule != nil && in.Model == nil:
		return taxonomy.Normalize(*in.Rule)
	case in.Rule == nil && in.Model != nil:
		return taxonomy.Normalize(*in.Model)
	case in.Rule != nil && in.Model != nil:
		return fuseBoth(*in.Rule, *in.Model, in.RuleStrongHit)
	default:
		return taxonomy.Normalize(taxonomy.Label{
			Industry:    taxonomy.IndustryOther,
			Type:        taxonomy.TypeOther,
			Confidence:  0.4,
			NeedsReview: true,
			Reasons:     []string{"no_rule_no_model"},
		})
	}
}

func fuseBoth(rule, model taxonomy.Label, ruleStrongHit bool) taxonomy.Label {
	var chosen taxonomy.Label
	if ruleStrongHit {
		chosen = rule
	} else if rule.Confidence > model.Confidence {
		chosen = rule
	} else {
		chosen = model
	}

	conflict := rule.Industry != model.Industry || rule.Type != model.Type
	out := chosen.Clone()
	if conflict {
		out.NeedsReview = true
		conf := chosen.Confidence * 0.85
		if conf > 0.85 {
			conf = 0.85
		}
		out.Confidence = conf
		out.Reasons = append(out.Reasons, "fusion_conflict")
	}
	return taxonomy.Normalize(out)
}
