package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// recentScanLimit is the number of scan runs shown on the dashboard
const recentScanLimit = 5

// AccountService manages the mailbox account lifecycle and read models
type AccountService struct {
	repo      Repository
	mailboxes MailboxFactory
	revoker   CredentialRevoker
	logger    *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(repo Repository, mailboxes MailboxFactory, revoker CredentialRevoker, logger *zap.Logger) *AccountService {
	return &AccountService{
		repo:      repo,
		mailboxes: mailboxes,
		revoker:   revoker,
		logger:    logger,
	}
}

// Connect authenticates the owner's mailbox and creates or reactivates the account
func (s *AccountService) Connect(ctx context.Context, ownerID string) (*MailboxAccount, error) {
	client, err := s.mailboxes.NewMailboxClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create mailbox client: %w", err)
	}
	defer closeClient(client, s.logger)

	ok, err := client.Authenticate(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate mailbox: %w", err)
	}
	if !ok {
		return nil, ErrNotAuthenticated
	}

	address, err := client.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox address: %w", err)
	}

	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if errors.Is(err, ErrAccountNotFound) {
		account = &MailboxAccount{OwnerID: ownerID, ConnectedAt: time.Now()}
	} else if err != nil {
		return nil, err
	}
	account.Address = address
	account.Active = true

	if err := s.repo.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save mailbox account: %w", err)
	}

	s.logger.Info("Mailbox connected",
		zap.String("owner_id", ownerID),
		zap.String("address", address))
	return account, nil
}

// Disconnect deactivates the owner's account, purges its derived data and
// drops the stored credential
func (s *AccountService) Disconnect(ctx context.Context, ownerID string) error {
	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := s.repo.DeactivateAccount(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to deactivate mailbox account: %w", err)
	}

	if s.revoker != nil {
		if err := s.revoker.Invalidate(ctx, ownerID); err != nil {
			s.logger.Warn("Failed to invalidate stored credential",
				zap.String("owner_id", ownerID),
				zap.Error(err))
		}
	}

	s.logger.Info("Mailbox disconnected", zap.String("owner_id", ownerID))
	return nil
}

// Dashboard returns the account's verdict counts and most recent scan runs
func (s *AccountService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountMessages(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	runs, err := s.repo.RecentScanRuns(ctx, account.ID, recentScanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}

	return &Dashboard{
		Account:     account,
		Counts:      counts,
		RecentScans: runs,
	}, nil
}

// ListMessages returns the account's messages matching the filter, newest first
func (s *AccountService) ListMessages(ctx context.Context, ownerID string, filter string, limit int) ([]Message, error) {
	f, err := ParseMessageFilter(filter)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListMessages(ctx, account.ID, f, limit)
}

// MessageDetail returns one message of the owner with its findings
func (s *AccountService) MessageDetail(ctx context.Context, ownerID string, messageID int64) (*MessageDetail, error) {
	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.GetMessage(ctx, account.ID, messageID)
	if err != nil {
		return nil, err
	}

	urls, err := s.repo.ListURLFindings(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list URL findings: %w", err)
	}

	ai, err := s.repo.GetAIFinding(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get AI finding: %w", err)
	}

	return &MessageDetail{
		Message:     msg,
		URLFindings: urls,
		AIFinding:   ai,
	}, nil
}

// Statistics returns the account-wide counts recorded for a calendar date
// (layout StatsDateLayout); an empty date means today in UTC
func (s *AccountService) Statistics(ctx context.Context, ownerID, date string) (*ThreatStatistics, error) {
	if date == "" {
		date = time.Now().UTC().Format(StatsDateLayout)
	}
	if _, err := time.Parse(StatsDateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid statistics date %q: %w", date, err)
	}

	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetThreatStatistics(ctx, account.ID, date)
}
