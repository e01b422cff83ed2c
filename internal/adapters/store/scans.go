package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/phishguard/internal/core"
)

const scanRunColumns = `id, account_id, started_at, completed_at, status, total_emails, safe_emails,
	phishing_emails, ai_phishing_emails, error_message`

// CreateScanRun inserts the run and sets its id
func (s *Store) CreateScanRun(ctx context.Context, run *core.ScanRun) error {
	id, err := s.insert(ctx, s.db, `
		INSERT INTO scan_runs (account_id, started_at, completed_at, status, total_emails, safe_emails,
			phishing_emails, ai_phishing_emails, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.AccountID, run.StartedAt, run.CompletedAt, run.Status, run.Total, run.Safe,
		run.Phishing, run.AIPhishing, run.Error)
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}
	run.ID = id
	return nil
}

// UpdateScanRun stores the status, counts and error of the run
func (s *Store) UpdateScanRun(ctx context.Context, run *core.ScanRun) error {
	_, err := s.exec(ctx, `
		UPDATE scan_runs SET completed_at = ?, status = ?, total_emails = ?, safe_emails = ?,
			phishing_emails = ?, ai_phishing_emails = ?, error_message = ?
		WHERE id = ?`,
		run.CompletedAt, run.Status, run.Total, run.Safe, run.Phishing, run.AIPhishing, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update scan run: %w", err)
	}
	return nil
}

// RecentScanRuns returns the account's latest runs, newest first
func (s *Store) RecentScanRuns(ctx context.Context, accountID int64, limit int) ([]core.ScanRun, error) {
	runs := []core.ScanRun{}
	err := s.selectAll(ctx, &runs, `
		SELECT `+scanRunColumns+` FROM scan_runs WHERE account_id = ?
		ORDER BY started_at DESC, id DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	return runs, nil
}

// UpsertThreatStatistics inserts or overwrites the row for the account and date
func (s *Store) UpsertThreatStatistics(ctx context.Context, stats *core.ThreatStatistics) error {
	if stats.UpdatedAt.IsZero() {
		stats.UpdatedAt = time.Now()
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, tx.Rebind(`
			SELECT id FROM threat_statistics WHERE account_id = ? AND stat_date = ?`),
			stats.AccountID, stats.Date)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id, err = s.insert(ctx, tx, `
				INSERT INTO threat_statistics (account_id, stat_date, total_scanned, safe_count,
					phishing_count, ai_phishing_count, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				stats.AccountID, stats.Date, stats.TotalScanned, stats.Safe, stats.Phishing,
				stats.AIPhishing, stats.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert threat statistics: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up threat statistics: %w", err)
		default:
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE threat_statistics SET total_scanned = ?, safe_count = ?, phishing_count = ?,
					ai_phishing_count = ?, updated_at = ?
				WHERE id = ?`),
				stats.TotalScanned, stats.Safe, stats.Phishing, stats.AIPhishing, stats.UpdatedAt, id)
			if err != nil {
				return fmt.Errorf("failed to update threat statistics: %w", err)
			}
		}
		stats.ID = id
		return nil
	})
}

// GetThreatStatistics returns the statistics of one account and date
func (s *Store) GetThreatStatistics(ctx context.Context, accountID int64, date string) (*core.ThreatStatistics, error) {
	var stats core.ThreatStatistics
	err := s.get(ctx, &stats, `
		SELECT id, account_id, stat_date, total_scanned, safe_count, phishing_count, ai_phishing_count, updated_at
		FROM threat_statistics WHERE account_id = ? AND stat_date = ?`, accountID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrStatisticsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get threat statistics: %w", err)
	}
	return &stats, nil
}
