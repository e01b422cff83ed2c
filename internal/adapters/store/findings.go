package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/phishguard/internal/core"
)

type urlFindingRow struct {
	ID           int64          `db:"id"`
	MessageID    int64          `db:"message_id"`
	URL          string         `db:"url"`
	IsSuspicious bool           `db:"is_suspicious"`
	Score        int            `db:"risk_score"`
	Level        core.RiskLevel `db:"risk_level"`
	Indicators   string         `db:"indicators"`
	Details      string         `db:"details"`
	AnalyzedAt   time.Time      `db:"analyzed_at"`
}

type aiFindingRow struct {
	ID            int64     `db:"id"`
	MessageID     int64     `db:"message_id"`
	IsAIGenerated bool      `db:"is_ai_generated"`
	Confidence    float64   `db:"confidence"`
	Label         string    `db:"confidence_level"`
	Method        string    `db:"method"`
	Signals       string    `db:"signals"`
	Indicators    string    `db:"indicators"`
	AnalyzedAt    time.Time `db:"analyzed_at"`
}

// ReplaceURLFindings swaps the message's URL findings in one transaction
func (s *Store) ReplaceURLFindings(ctx context.Context, messageID int64, findings []core.URLFinding) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM url_findings WHERE message_id = ?`), messageID); err != nil {
			return fmt.Errorf("failed to delete URL findings: %w", err)
		}

		for i := range findings {
			f := &findings[i]
			indicators, err := marshalJSON(f.Indicators, "[]")
			if err != nil {
				return err
			}
			details, err := marshalJSON(f.Details, "{}")
			if err != nil {
				return err
			}

			id, err := s.insert(ctx, tx, `
				INSERT INTO url_findings (message_id, url, is_suspicious, risk_score, risk_level,
					indicators, details, analyzed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				messageID, f.URL, f.IsSuspicious, f.Score, f.Level, indicators, details, f.AnalyzedAt)
			if err != nil {
				return fmt.Errorf("failed to insert URL finding: %w", err)
			}
			f.ID = id
			f.MessageID = messageID
		}
		return nil
	})
}

// ReplaceAIFinding swaps the message's AI finding; nil only removes it
func (s *Store) ReplaceAIFinding(ctx context.Context, messageID int64, finding *core.AIFinding) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM ai_findings WHERE message_id = ?`), messageID); err != nil {
			return fmt.Errorf("failed to delete AI finding: %w", err)
		}
		if finding == nil {
			return nil
		}

		signals, err := marshalJSON(finding.Signals, "{}")
		if err != nil {
			return err
		}
		indicators, err := marshalJSON(finding.Indicators, "[]")
		if err != nil {
			return err
		}

		id, err := s.insert(ctx, tx, `
			INSERT INTO ai_findings (message_id, is_ai_generated, confidence, confidence_level, method,
				signals, indicators, analyzed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			messageID, finding.IsAIGenerated, finding.Confidence, finding.Label, finding.Method,
			signals, indicators, finding.AnalyzedAt)
		if err != nil {
			return fmt.Errorf("failed to insert AI finding: %w", err)
		}
		finding.ID = id
		finding.MessageID = messageID
		return nil
	})
}

// ListURLFindings returns the message's URL findings in insertion order
func (s *Store) ListURLFindings(ctx context.Context, messageID int64) ([]core.URLFinding, error) {
	var rows []urlFindingRow
	if err := s.selectAll(ctx, &rows, `SELECT * FROM url_findings WHERE message_id = ? ORDER BY id`, messageID); err != nil {
		return nil, fmt.Errorf("failed to list URL findings: %w", err)
	}

	findings := make([]core.URLFinding, 0, len(rows))
	for _, r := range rows {
		f := core.URLFinding{
			ID:           r.ID,
			MessageID:    r.MessageID,
			URL:          r.URL,
			IsSuspicious: r.IsSuspicious,
			Score:        r.Score,
			Level:        r.Level,
			AnalyzedAt:   r.AnalyzedAt,
		}
		if err := json.Unmarshal([]byte(r.Indicators), &f.Indicators); err != nil {
			return nil, fmt.Errorf("failed to decode indicators of URL finding %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Details), &f.Details); err != nil {
			return nil, fmt.Errorf("failed to decode details of URL finding %d: %w", r.ID, err)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// GetAIFinding returns the message's AI finding, or nil when there is none
func (s *Store) GetAIFinding(ctx context.Context, messageID int64) (*core.AIFinding, error) {
	var r aiFindingRow
	err := s.get(ctx, &r, `SELECT * FROM ai_findings WHERE message_id = ?`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get AI finding: %w", err)
	}

	f := &core.AIFinding{
		ID:            r.ID,
		MessageID:     r.MessageID,
		IsAIGenerated: r.IsAIGenerated,
		Confidence:    r.Confidence,
		Label:         r.Label,
		Method:        r.Method,
		AnalyzedAt:    r.AnalyzedAt,
	}
	if err := json.Unmarshal([]byte(r.Signals), &f.Signals); err != nil {
		return nil, fmt.Errorf("failed to decode signals of AI finding %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Indicators), &f.Indicators); err != nil {
		return nil, fmt.Errorf("failed to decode indicators of AI finding %d: %w", r.ID, err)
	}
	return f, nil
}

// marshalJSON encodes v, using empty for nil values
func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode finding: %w", err)
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
