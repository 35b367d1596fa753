// Package export writes normalized labels in the two formats the
// external collaborators (UI, report pipelines) consume: CSV and JSONL.
// It never participates in classification; it is a thin leaf the HTTP
// surface calls after the fact.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// csvHeader is the fixed column order the spec pins.
var csvHeader = []string{
	"industry", "type", "confidence", "needs_review", "brand", "verification_code",
	"amount", "balance", "account_suffix", "time_text", "url", "phone_in_text",
	"rules_version", "model_version", "schema_version", "reasons",
}

// WriteCSV writes labels as CSV with the spec's fixed header order to w.
func WriteCSV(w io.Writer, labels []taxonomy.Label) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range labels {
		if err := cw.Write(csvRow(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(l taxonomy.Label) []string {
	return []string{
		l.Industry,
		l.Type,
		strconv.FormatFloat(l.Confidence, 'f', -1, 64),
		strconv.FormatBool(l.NeedsReview),
		l.Entities.Brand,
		l.Entities.VerificationCode,
		formatAmount(l.Entities.Amount),
		formatAmount(l.Entities.Balance),
		l.Entities.AccountSuffix,
		l.Entities.TimeText,
		l.Entities.URL,
		l.Entities.PhoneInText,
		l.RulesVersion,
		l.ModelVersion,
		l.SchemaVersion,
		strings.Join(l.Reasons, " | "),
	}
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteJSONL writes one normalized label per line to w.
func WriteJSONL(w io.Writer, labels []taxonomy.Label) error {
	enc := json.NewEncoder(w)
	for _, l := range labels {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("encode label %d: %w", l.MessageID, err)
		}
	}
	return nil
}
