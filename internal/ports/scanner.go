package ports

import (
	"context"

	"github.com/mikey/phishguard/internal/core"
)

// Scanner is the trigger surface for ingestion runs
type Scanner interface {
	// StartScan runs one scan and returns the summary or a *core.ScanError
	StartScan(ctx context.Context, ownerID string, maxResults int) (*core.ScanSummary, error)
}

// AccountManager exposes the account lifecycle and its read models
type AccountManager interface {
	Connect(ctx context.Context, ownerID string) (*core.MailboxAccount, error)
	Disconnect(ctx context.Context, ownerID string) error
	Dashboard(ctx context.Context, ownerID string) (*core.Dashboard, error)
	ListMessages(ctx context.Context, ownerID string, filter string, limit int) ([]core.Message, error)
	MessageDetail(ctx context.Context, ownerID string, messageID int64) (*core.MessageDetail, error)
	Statistics(ctx context.Context, ownerID, date string) (*core.ThreatStatistics, error)
}

var (
	_ Scanner        = (*core.ScanService)(nil)
	_ AccountManager = (*core.AccountService)(nil)
)
