package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/phishguard/internal/core"
)

const messageColumns = `id, account_id, external_id, subject, sender, received_at, body_text, snippet,
	scanned_at, is_phishing, is_ai_generated, risk_level`

// filterClauses narrow a message listing by verdict
var filterClauses = map[core.MessageFilter]string{
	core.FilterAll:        ``,
	core.FilterPhishing:   ` AND is_phishing = ?`,
	core.FilterAIPhishing: ` AND is_phishing = ? AND is_ai_generated = ?`,
	core.FilterSafe:       ` AND risk_level = ?`,
}

// UpsertMessage inserts the message or overwrites the fetched fields of the
// existing row for the same account and external id
func (s *Store) UpsertMessage(ctx context.Context, msg *core.Message) (bool, error) {
	created := false
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, tx.Rebind(`
			SELECT id FROM messages WHERE account_id = ? AND external_id = ?`),
			msg.AccountID, msg.ExternalID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id, err = s.insert(ctx, tx, `
				INSERT INTO messages (account_id, external_id, subject, sender, received_at, body_text,
					snippet, scanned_at, is_phishing, is_ai_generated, risk_level)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				msg.AccountID, msg.ExternalID, msg.Subject, msg.Sender, msg.ReceivedAt, msg.Body,
				msg.Snippet, msg.ScannedAt, msg.IsPhishing, msg.IsAIGenerated, msg.RiskLevel)
			if err != nil {
				return fmt.Errorf("failed to insert message: %w", err)
			}
			created = true
		case err != nil:
			return fmt.Errorf("failed to look up message: %w", err)
		default:
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE messages SET subject = ?, sender = ?, received_at = ?, body_text = ?,
					snippet = ?, scanned_at = ?
				WHERE id = ?`),
				msg.Subject, msg.Sender, msg.ReceivedAt, msg.Body, msg.Snippet, msg.ScannedAt, id)
			if err != nil {
				return fmt.Errorf("failed to update message: %w", err)
			}
		}
		msg.ID = id
		return nil
	})
	return created, err
}

// SaveMessageVerdict stores the verdict fields of the message
func (s *Store) SaveMessageVerdict(ctx context.Context, msg *core.Message) error {
	_, err := s.exec(ctx, `
		UPDATE messages SET is_phishing = ?, is_ai_generated = ?, risk_level = ? WHERE id = ?`,
		msg.IsPhishing, msg.IsAIGenerated, msg.RiskLevel, msg.ID)
	if err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return nil
}

// MessageExists reports whether the account has a message with the external id
func (s *Store) MessageExists(ctx context.Context, accountID int64, externalID string) (bool, error) {
	var n int
	err := s.get(ctx, &n, `SELECT COUNT(*) FROM messages WHERE account_id = ? AND external_id = ?`, accountID, externalID)
	if err != nil {
		return false, fmt.Errorf("failed to check message: %w", err)
	}
	return n > 0, nil
}

// CountMessages counts the account's messages by verdict. Phishing includes
// AI phishing; safe counts the SAFE risk level.
func (s *Store) CountMessages(ctx context.Context, accountID int64) (core.MessageCounts, error) {
	var row struct {
		Total      int           `db:"total"`
		Safe       sql.NullInt64 `db:"safe"`
		Phishing   sql.NullInt64 `db:"phishing"`
		AIPhishing sql.NullInt64 `db:"ai_phishing"`
	}
	err := s.get(ctx, &row, `
		SELECT COUNT(*) AS total,
			SUM(CASE WHEN risk_level = ? THEN 1 ELSE 0 END) AS safe,
			SUM(CASE WHEN is_phishing = ? THEN 1 ELSE 0 END) AS phishing,
			SUM(CASE WHEN is_phishing = ? AND is_ai_generated = ? THEN 1 ELSE 0 END) AS ai_phishing
		FROM messages WHERE account_id = ?`,
		core.RiskSafe, true, true, true, accountID)
	if err != nil {
		return core.MessageCounts{}, fmt.Errorf("failed to count messages: %w", err)
	}
	return core.MessageCounts{
		Total:      row.Total,
		Safe:       int(row.Safe.Int64),
		Phishing:   int(row.Phishing.Int64),
		AIPhishing: int(row.AIPhishing.Int64),
	}, nil
}

// ListMessages returns the account's messages matching the filter, newest
// received first. A limit of zero or less returns every match.
func (s *Store) ListMessages(ctx context.Context, accountID int64, filter core.MessageFilter, limit int) ([]core.Message, error) {
	clause, ok := filterClauses[filter]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFilter, filter)
	}

	args := []any{accountID}
	switch filter {
	case core.FilterPhishing:
		args = append(args, true)
	case core.FilterAIPhishing:
		args = append(args, true, true)
	case core.FilterSafe:
		args = append(args, core.RiskSafe)
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE account_id = ?` + clause +
		` ORDER BY received_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	messages := []core.Message{}
	if err := s.selectAll(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// GetMessage returns one message of the account
func (s *Store) GetMessage(ctx context.Context, accountID, messageID int64) (*core.Message, error) {
	var msg core.Message
	err := s.get(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id = ? AND account_id = ?`, messageID, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}
