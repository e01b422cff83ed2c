package core

import (
	"context"
	"time"
)

// Repository persists accounts, messages, findings, scan runs and statistics
type Repository interface {
	// GetAccountByOwner returns ErrAccountNotFound when the owner has no account
	GetAccountByOwner(ctx context.Context, ownerID string) (*MailboxAccount, error)

	// SaveAccount inserts the account or updates the existing row for its owner
	SaveAccount(ctx context.Context, account *MailboxAccount) error

	// DeactivateAccount marks the account inactive, clears its last sync and
	// removes every message, finding, scan run and statistics row it owns
	DeactivateAccount(ctx context.Context, accountID int64) error

	// TouchAccountSync records the time of the last completed scan
	TouchAccountSync(ctx context.Context, accountID int64, at time.Time) error

	CreateScanRun(ctx context.Context, run *ScanRun) error
	UpdateScanRun(ctx context.Context, run *ScanRun) error
	RecentScanRuns(ctx context.Context, accountID int64, limit int) ([]ScanRun, error)

	// UpsertMessage inserts the message or overwrites the mutable fields of the
	// row with the same account and external id. It sets msg.ID and reports
	// whether a new row was created.
	UpsertMessage(ctx context.Context, msg *Message) (bool, error)

	// SaveMessageVerdict stores the phishing, AI and risk level fields
	SaveMessageVerdict(ctx context.Context, msg *Message) error

	MessageExists(ctx context.Context, accountID int64, externalID string) (bool, error)
	CountMessages(ctx context.Context, accountID int64) (MessageCounts, error)
	ListMessages(ctx context.Context, accountID int64, filter MessageFilter, limit int) ([]Message, error)
	GetMessage(ctx context.Context, accountID, messageID int64) (*Message, error)

	// ReplaceURLFindings atomically swaps every URL finding of the message for
	// the given set, which may be empty
	ReplaceURLFindings(ctx context.Context, messageID int64, findings []URLFinding) error

	// ReplaceAIFinding atomically swaps the AI finding of the message; a nil
	// finding only removes the previous one
	ReplaceAIFinding(ctx context.Context, messageID int64, finding *AIFinding) error

	ListURLFindings(ctx context.Context, messageID int64) ([]URLFinding, error)
	GetAIFinding(ctx context.Context, messageID int64) (*AIFinding, error)

	// UpsertThreatStatistics inserts or overwrites the row for (account, date)
	UpsertThreatStatistics(ctx context.Context, stats *ThreatStatistics) error

	// GetThreatStatistics returns ErrStatisticsNotFound when no row exists
	GetThreatStatistics(ctx context.Context, accountID int64, date string) (*ThreatStatistics, error)
}

// MailboxClient reads messages from one remote mailbox
type MailboxClient interface {
	// Authenticate reports false when the owner has no valid credential
	Authenticate(ctx context.Context, ownerID string) (bool, error)

	// Address returns the address of the authenticated mailbox
	Address(ctx context.Context) (string, error)

	// ListMessageIDs pages through the mailbox and returns at most maxResults ids
	ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error)

	FetchDetail(ctx context.Context, id string) (*RawMessage, error)
}

// MailboxFactory creates a fresh mailbox client for each run
type MailboxFactory interface {
	NewMailboxClient() (MailboxClient, error)
}

// TextClassifier estimates whether a text body was machine-generated
type TextClassifier interface {
	Classify(ctx context.Context, text string) *AIVerdict
}

// URLAnalyzer estimates the phishing risk of a URL
type URLAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) *URLVerdict
}

// ExternalScorer returns the probability in [0,1] that a text is machine-generated
type ExternalScorer interface {
	ScoreText(ctx context.Context, text string) (float64, error)
	Name() string
}

// DomainAgeLookup resolves the registration date of a host's domain
type DomainAgeLookup interface {
	RegistrationDate(ctx context.Context, host string) (time.Time, error)
}

// RedirectProber follows a URL and counts the redirect hops
type RedirectProber interface {
	CountRedirects(ctx context.Context, rawURL string) (int, error)
}

// CredentialRevoker drops the stored mailbox credential of an owner
type CredentialRevoker interface {
	Invalidate(ctx context.Context, ownerID string) error
}
