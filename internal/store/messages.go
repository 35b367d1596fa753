package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/rules"
)

// InsertMessage stores a new message, computing its derived flags from
// content, and returns its id.
func (s *Store) InsertMessage(ctx context.Context, content string, receivedAt *time.Time, sender, phone, source string) (int64, error) {
	if content == "" {
		return 0, &apperr.StoreError{Op: "insert_message", Err: apperr.ErrValidation}
	}
	hasURL, hasAmount, hasOTP := rules.DetectFlags(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	var receivedAtVal interface{}
	if receivedAt != nil {
		receivedAtVal = receivedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO messages (content, received_at, sender, phone, source, has_url, has_amount, has_verification_code)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		content, receivedAtVal, sender, phone, source, boolToInt(hasURL), boolToInt(hasAmount), boolToInt(hasOTP))
	if err != nil {
		return 0, &apperr.StoreError{Op: "insert_message", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &apperr.StoreError{Op: "insert_message", Err: err}
	}
	return id, nil
}

// GetMessageContent returns the content of a message, or ErrNotFound.
func (s *Store) GetMessageContent(ctx context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM messages WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &apperr.StoreError{Op: "get_message_content", Err: apperr.ErrNotFound}
	}
	if err != nil {
		return "", &apperr.StoreError{Op: "get_message_content", Err: err}
	}
	return content, nil
}

// GetMessage returns the full message row, or ErrNotFound.
func (s *Store) GetMessage(ctx context.Context, id int64) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMessageLocked(ctx, id)
}

func (s *Store) getMessageLocked(ctx context.Context, id int64) (Message, error) {
	var m Message
	var receivedAt sql.NullString
	var sender, phone, source sql.NullString
	var hasURL, hasAmount, hasOTP int
	err := s.db.QueryRowContext(ctx, `
SELECT id, content, received_at, sender, phone, source, has_url, has_amount, has_verification_code
FROM messages WHERE id = ?`, id).Scan(&m.ID, &m.Content, &receivedAt, &sender, &phone, &source, &hasURL, &hasAmount, &hasOTP)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, &apperr.StoreError{Op: "get_message", Err: apperr.ErrNotFound}
	}
	if err != nil {
		return Message{}, &apperr.StoreError{Op: "get_message", Err: err}
	}
	m.Sender = sender.String
	m.Phone = phone.String
	m.Source = source.String
	m.HasURL = hasURL != 0
	m.HasAmount = hasAmount != 0
	m.HasVerificationCode = hasOTP != 0
	if receivedAt.Valid {
		if t, err := time.Parse("2006-01-02T15:04:05.000Z", receivedAt.String); err == nil {
			m.ReceivedAt = &t
		}
	}
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
