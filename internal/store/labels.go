package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// UpsertLabelAuto inserts or replaces the label for id as a system write:
// updated_by="system", is_manual=0, updated_at=now.
func (s *Store) UpsertLabelAuto(ctx context.Context, id int64, label taxonomy.Label) error {
	label = taxonomy.Normalize(label)
	label.UpdatedBy = "system"
	label.IsManual = false
	label.UpdatedAt = nowISO()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLabelLocked(ctx, id, label)
}

func (s *Store) writeLabelLocked(ctx context.Context, id int64, label taxonomy.Label) error {
	entitiesJSON, err := json.Marshal(label.Entities)
	if err != nil {
		return &apperr.StoreError{Op: "upsert_label", Err: err}
	}
	reasonsJSON, err := json.Marshal(label.Reasons)
	if err != nil {
		return &apperr.StoreError{Op: "upsert_label", Err: err}
	}
	signalsJSON, err := json.Marshal(label.Signals)
	if err != nil {
		return &apperr.StoreError{Op: "upsert_label", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO labels (message_id, industry, type, entities_json, confidence, needs_review, reasons_json,
	signals_json, rules_version, model_version, schema_version, updated_by, updated_at, is_manual)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(message_id) DO UPDATE SET
	industry=excluded.industry, type=excluded.type, entities_json=excluded.entities_json,
	confidence=excluded.confidence, needs_review=excluded.needs_review, reasons_json=excluded.reasons_json,
	signals_json=excluded.signals_json, rules_version=excluded.rules_version, model_version=excluded.model_version,
	schema_version=excluded.schema_version, updated_by=excluded.updated_by, updated_at=excluded.updated_at,
	is_manual=excluded.is_manual`,
		id, label.Industry, label.Type, string(entitiesJSON), label.Confidence, boolToInt(label.NeedsReview),
		string(reasonsJSON), string(signalsJSON), label.RulesVersion, label.ModelVersion, label.SchemaVersion,
		label.UpdatedBy, label.UpdatedAt, boolToInt(label.IsManual))
	if err != nil {
		return &apperr.StoreError{Op: "upsert_label", Err: err}
	}
	return nil
}

// GetLabel returns the current label for id, or ErrNotFound if none exists.
func (s *Store) GetLabel(ctx context.Context, id int64) (taxonomy.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLabelLocked(ctx, id)
}

func (s *Store) getLabelLocked(ctx context.Context, id int64) (taxonomy.Label, error) {
	var l taxonomy.Label
	var entitiesJSON, reasonsJSON string
	var signalsJSON sql.NullString
	var needsReview, isManual int
	err := s.db.QueryRowContext(ctx, `
SELECT industry, type, entities_json, confidence, needs_review, reasons_json, signals_json,
	rules_version, model_version, schema_version, updated_by, updated_at, is_manual
FROM labels WHERE message_id = ?`, id).Scan(
		&l.Industry, &l.Type, &entitiesJSON, &l.Confidence, &needsReview, &reasonsJSON, &signalsJSON,
		&l.RulesVersion, &l.ModelVersion, &l.SchemaVersion, &l.UpdatedBy, &l.UpdatedAt, &isManual)
	if errors.Is(err, sql.ErrNoRows) {
		return taxonomy.Label{}, &apperr.StoreError{Op: "get_label", Err: apperr.ErrNotFound}
	}
	if err != nil {
		return taxonomy.Label{}, &apperr.StoreError{Op: "get_label", Err: err}
	}
	l.MessageID = id
	l.NeedsReview = needsReview != 0
	l.IsManual = isManual != 0
	_ = json.Unmarshal([]byte(entitiesJSON), &l.Entities)
	_ = json.Unmarshal([]byte(reasonsJSON), &l.Reasons)
	if signalsJSON.Valid {
		_ = json.Unmarshal([]byte(signalsJSON.String), &l.Signals)
	}
	return l, nil
}

// LabelDiff enumerates the before/after fields an audit entry reports.
type LabelDiff struct {
	Industry    [2]string  `json:"industry"`
	Type        [2]string  `json:"type"`
	NeedsReview [2]bool    `json:"needs_review"`
	Confidence  [2]float64 `json:"confidence"`
	Entities    [2]taxonomy.Entities `json:"entities"`
}

// LabelUpdateManual performs a manual-review write: it reads the current
// label (if any), writes the new one as a manual edit, and appends an
// audit entry describing the change. Manual writes fail loudly; no
// fallback is applied on error.
func (s *Store) LabelUpdateManual(ctx context.Context, id int64, operator string, newLabel taxonomy.Label) error {
	newLabel = taxonomy.Normalize(newLabel)
	newLabel.UpdatedBy = operator
	newLabel.IsManual = true
	newLabel.UpdatedAt = nowISO()

	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.getLabelLocked(ctx, id)
	hadBefore := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	if err := s.writeLabelLocked(ctx, id, newLabel); err != nil {
		return err
	}

	diff := LabelDiff{
		Industry:    [2]string{before.Industry, newLabel.Industry},
		Type:        [2]string{before.Type, newLabel.Type},
		NeedsReview: [2]bool{before.NeedsReview, newLabel.NeedsReview},
		Confidence:  [2]float64{before.Confidence, newLabel.Confidence},
		Entities:    [2]taxonomy.Entities{before.Entities, newLabel.Entities},
	}
	diffJSON, _ := json.Marshal(diff)

	var beforeJSON []byte
	if hadBefore {
		beforeJSON, _ = json.Marshal(before)
	}
	afterJSON, _ := json.Marshal(newLabel)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO audit_logs (message_id, operator, before_json, after_json, diff_json, ts)
VALUES (?, ?, ?, ?, ?, ?)`,
		id, operator, nullableString(beforeJSON), string(afterJSON), string(diffJSON), nowISO())
	if err != nil {
		return &apperr.StoreError{Op: "label_update_manual", Err: err}
	}
	return nil
}

func nullableString(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

