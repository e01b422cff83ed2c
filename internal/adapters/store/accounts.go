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

const accountColumns = `id, owner_id, address, is_active, connected_at, last_sync`

// GetAccountByOwner returns the owner's account
func (s *Store) GetAccountByOwner(ctx context.Context, ownerID string) (*core.MailboxAccount, error) {
	var account core.MailboxAccount
	err := s.get(ctx, &account, `SELECT `+accountColumns+` FROM mailbox_accounts WHERE owner_id = ?`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// SaveAccount inserts the account or updates the row of its owner
func (s *Store) SaveAccount(ctx context.Context, account *core.MailboxAccount) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM mailbox_accounts WHERE owner_id = ?`), account.OwnerID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if account.ConnectedAt.IsZero() {
				account.ConnectedAt = time.Now()
			}
			id, err = s.insert(ctx, tx, `
				INSERT INTO mailbox_accounts (owner_id, address, is_active, connected_at, last_sync)
				VALUES (?, ?, ?, ?, ?)`,
				account.OwnerID, account.Address, account.Active, account.ConnectedAt, account.LastSync)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get account: %w", err)
		default:
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE mailbox_accounts SET address = ?, is_active = ?, connected_at = ?, last_sync = ?
				WHERE id = ?`),
				account.Address, account.Active, account.ConnectedAt, account.LastSync, id)
			if err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}
		}
		account.ID = id
		return nil
	})
}

// DeactivateAccount marks the account inactive and purges everything it owns
func (s *Store) DeactivateAccount(ctx context.Context, accountID int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		stmts := []string{
			`DELETE FROM url_findings WHERE message_id IN (SELECT id FROM messages WHERE account_id = ?)`,
			`DELETE FROM ai_findings WHERE message_id IN (SELECT id FROM messages WHERE account_id = ?)`,
			`DELETE FROM messages WHERE account_id = ?`,
			`DELETE FROM scan_runs WHERE account_id = ?`,
			`DELETE FROM threat_statistics WHERE account_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), accountID); err != nil {
				return fmt.Errorf("failed to purge account data: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE mailbox_accounts SET is_active = ?, last_sync = NULL WHERE id = ?`), false, accountID); err != nil {
			return fmt.Errorf("failed to deactivate account: %w", err)
		}
		return nil
	})
}

// TouchAccountSync records the last completed scan
func (s *Store) TouchAccountSync(ctx context.Context, accountID int64, at time.Time) error {
	if _, err := s.exec(ctx, `UPDATE mailbox_accounts SET last_sync = ? WHERE id = ?`, at, accountID); err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	return nil
}
