package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/smilemakc/smslabel/internal/apperr"
)

// CandidateMode selects which messages fetch_batch_candidates returns.
type CandidateMode string

const (
	ModeUnlabeled   CandidateMode = "unlabeled"
	ModeNeedsReview CandidateMode = "needs_review"
	ModeAll         CandidateMode = "all"
)

// maxCandidates is the implicit cap fetch_batch_candidates enforces;
// larger corpora must be paged by IDMin/IDMax.
const maxCandidates = 100000

// FetchBatchCandidates returns up to limit ids (ascending, capped at
// maxCandidates) matching mode within the optional [idMin, idMax] range.
// An unrecognized mode behaves like ModeUnlabeled.
func (s *Store) FetchBatchCandidates(ctx context.Context, mode CandidateMode, limit int, idMin, idMax *int64) ([]int64, error) {
	if limit <= 0 || limit > maxCandidates {
		limit = maxCandidates
	}

	var where []string
	var args []interface{}

	switch mode {
	case ModeAll:
		// no label-based filter
	case ModeNeedsReview:
		where = append(where, "EXISTS (SELECT 1 FROM labels l WHERE l.message_id = m.id AND l.needs_review = 1)")
	default: // ModeUnlabeled and unknown modes
		where = append(where, "NOT EXISTS (SELECT 1 FROM labels l WHERE l.message_id = m.id)")
	}

	if idMin != nil {
		where = append(where, "m.id >= ?")
		args = append(args, *idMin)
	}
	if idMax != nil {
		where = append(where, "m.id <= ?")
		args = append(args, *idMax)
	}

	query := "SELECT m.id FROM messages m"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY m.id ASC LIMIT ?"
	args = append(args, limit)

	s.mu.Lock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, &apperr.StoreError{Op: "fetch_batch_candidates", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &apperr.StoreError{Op: "fetch_batch_candidates", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperr.StoreError{Op: "fetch_batch_candidates", Err: err}
	}
	return ids, nil
}

// ListFilter describes the filterable, paginated view messages_list
// exposes.
type ListFilter struct {
	Industry            string
	Type                string
	NeedsReview         *bool
	MinConfidence       *float64
	MaxConfidence       *float64
	HasURL              *bool
	HasAmount           *bool
	HasVerificationCode *bool
	Query               string
	Limit               int
	Offset              int
}

// ListResult is the paginated messages_list response.
type ListResult struct {
	Total int64
	Rows  []MessageRow
}

// MessageRow is a joined messages+labels row as returned by messages_list.
type MessageRow struct {
	Message Message
	HasLabel bool
	Industry string
	Type string
	Confidence float64
	NeedsReview bool
}

// MessagesList joins messages LEFT JOIN labels, applies filter, and
// returns the total matching row count plus the requested page, ordered
// by id descending.
func (s *Store) MessagesList(ctx context.Context, f ListFilter) (ListResult, error) {
	var where []string
	var args []interface{}

	if f.Industry != "" {
		where = append(where, "l.industry = ?")
		args = append(args, f.Industry)
	}
	if f.Type != "" {
		where = append(where, "l.type = ?")
		args = append(args, f.Type)
	}
	if f.NeedsReview != nil {
		where = append(where, "l.needs_review = ?")
		args = append(args, boolToInt(*f.NeedsReview))
	}
	if f.MinConfidence != nil {
		where = append(where, "l.confidence >= ?")
		args = append(args, *f.MinConfidence)
	}
	if f.MaxConfidence != nil {
		where = append(where, "l.confidence <= ?")
		args = append(args, *f.MaxConfidence)
	}
	if f.HasURL != nil {
		where = append(where, "m.has_url = ?")
		args = append(args, boolToInt(*f.HasURL))
	}
	if f.HasAmount != nil {
		where = append(where, "m.has_amount = ?")
		args = append(args, boolToInt(*f.HasAmount))
	}
	if f.HasVerificationCode != nil {
		where = append(where, "m.has_verification_code = ?")
		args = append(args, boolToInt(*f.HasVerificationCode))
	}
	if f.Query != "" {
		where = append(where, "(m.content LIKE ? OR m.sender LIKE ? OR m.source LIKE ?)")
		like := "%" + f.Query + "%"
		args = append(args, like, like, like)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	baseFrom := " FROM messages m LEFT JOIN labels l ON l.message_id = m.id"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	countQuery := "SELECT COUNT(*)" + baseFrom + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, &apperr.StoreError{Op: "messages_list", Err: err}
	}

	selectQuery := fmt.Sprintf(`
SELECT m.id, m.content, m.received_at, m.sender, m.phone, m.source, m.has_url, m.has_amount, m.has_verification_code,
	l.industry, l.type, l.confidence, l.needs_review
%s%s ORDER BY m.id DESC LIMIT ? OFFSET ?`, baseFrom, whereClause)
	pageArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := s.db.QueryContext(ctx, selectQuery, pageArgs...)
	if err != nil {
		return ListResult{}, &apperr.StoreError{Op: "messages_list", Err: err}
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var row MessageRow
		var receivedAt, sender, phone, source sql.NullString
		var industry, typ sql.NullString
		var confidence sql.NullFloat64
		var needsReview sql.NullInt64
		var hasURL, hasAmount, hasOTP int
		if err := rows.Scan(&row.Message.ID, &row.Message.Content, &receivedAt, &sender, &phone, &source,
			&hasURL, &hasAmount, &hasOTP, &industry, &typ, &confidence, &needsReview); err != nil {
			return ListResult{}, &apperr.StoreError{Op: "messages_list", Err: err}
		}
		row.Message.Sender = sender.String
		row.Message.Phone = phone.String
		row.Message.Source = source.String
		row.Message.HasURL = hasURL != 0
		row.Message.HasAmount = hasAmount != 0
		row.Message.HasVerificationCode = hasOTP != 0
		row.HasLabel = industry.Valid
		row.Industry = industry.String
		row.Type = typ.String
		row.Confidence = confidence.Float64
		row.NeedsReview = needsReview.Int64 != 0
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, &apperr.StoreError{Op: "messages_list", Err: err}
	}

	return ListResult{Total: total, Rows: out}, nil
}

// Stats summarizes the store for the aggregate status endpoint.
type Stats struct {
	MessagesCount int64
	MessagesMaxID int64
}

// GetStats returns the message count and max id for /status.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Stats
	var maxID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(id) FROM messages`).Scan(&st.MessagesCount, &maxID)
	if err != nil {
		return Stats{}, &apperr.StoreError{Op: "get_stats", Err: err}
	}
	st.MessagesMaxID = maxID.Int64
	return st, nil
}
