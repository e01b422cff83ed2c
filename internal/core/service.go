package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/mikey/phishguard/internal/metrics"
	"go.uber.org/zap"
)

// ScanOptions configures a ScanService
type ScanOptions struct {
	// MaxResults is used when a scan is started without a positive limit
	MaxResults int
	Query      string
	Fetch      FetchOptions
}

// ScanService drives ingestion runs: it pages through a mailbox, scores every
// message and persists the verdicts and statistics
type ScanService struct {
	repo       Repository
	mailboxes  MailboxFactory
	classifier TextClassifier
	analyzer   URLAnalyzer
	logger     *zap.Logger
	opts       ScanOptions
	now        func() time.Time
}

// NewScanService creates a new scan service
func NewScanService(
	repo Repository,
	mailboxes MailboxFactory,
	classifier TextClassifier,
	analyzer URLAnalyzer,
	logger *zap.Logger,
	opts ScanOptions,
) *ScanService {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}
	return &ScanService{
		repo:       repo,
		mailboxes:  mailboxes,
		classifier: classifier,
		analyzer:   analyzer,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// StartScan runs one ingestion pass over the owner's mailbox. Failures are
// returned as *ScanError; a run row that was created always ends COMPLETED
// or FAILED.
func (s *ScanService) StartScan(ctx context.Context, ownerID string, maxResults int) (*ScanSummary, error) {
	account, err := s.repo.GetAccountByOwner(ctx, ownerID)
	if errors.Is(err, ErrAccountNotFound) || (err == nil && !account.Active) {
		return nil, &ScanError{Message: "mailbox account not connected", Err: ErrAccountNotFound}
	}
	if err != nil {
		return nil, &ScanError{Message: "failed to load mailbox account", Details: err.Error(), Err: err}
	}

	if maxResults <= 0 {
		maxResults = s.opts.MaxResults
	}

	run := &ScanRun{
		AccountID: account.ID,
		StartedAt: s.now(),
		Status:    ScanRunning,
	}
	if err := s.repo.CreateScanRun(ctx, run); err != nil {
		return nil, &ScanError{Message: "failed to create scan run", Details: err.Error(), Err: err}
	}

	logger := s.logger.With(
		zap.Int64("account_id", account.ID),
		zap.Int64("scan_id", run.ID))
	logger.Info("Starting scan", zap.Int("max_results", maxResults))

	summary, scanErr := s.execute(ctx, account, run, maxResults, logger)
	if scanErr != nil {
		scanErr.ScanID = run.ID
		s.failRun(ctx, run, scanErr, logger)
		return nil, scanErr
	}

	metrics.RecordScanRun(string(ScanCompleted))
	logger.Info("Scan completed",
		zap.Int("total", summary.Stats.Total),
		zap.Int("safe", summary.Stats.Safe),
		zap.Int("phishing", summary.Stats.Phishing),
		zap.Int("ai_phishing", summary.Stats.AIPhishing))
	return summary, nil
}

// execute is the outermost failure boundary of a run; panics become errors
func (s *ScanService) execute(
	ctx context.Context,
	account *MailboxAccount,
	run *ScanRun,
	maxResults int,
	logger *zap.Logger,
) (summary *ScanSummary, scanErr *ScanError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scan panicked", zap.Any("panic", r))
			summary = nil
			scanErr = &ScanError{
				Message: "unexpected error",
				Details: fmt.Sprintf("unexpected error: %v", r),
			}
		}
	}()

	client, err := s.mailboxes.NewMailboxClient()
	if err != nil {
		return nil, &ScanError{Message: "initialization error", Details: fmt.Sprintf("failed to create mailbox client: %v", err), Err: err}
	}
	defer closeClient(client, logger)

	ok, err := client.Authenticate(ctx, account.OwnerID)
	if err != nil {
		return nil, &ScanError{Message: "authentication error", Details: fmt.Sprintf("authentication error: %v", err), Err: err}
	}
	if !ok {
		return nil, &ScanError{Message: "mailbox authentication failed", Details: "failed to authenticate with mailbox", Err: ErrNotAuthenticated}
	}

	ids, err := client.ListMessageIDs(ctx, maxResults, s.opts.Query)
	if err != nil {
		return nil, &ScanError{Message: "scan error", Details: fmt.Sprintf("error scanning inbox: %v", err), Err: err}
	}
	messages := BulkFetch(ctx, client, ids, s.opts.Fetch, logger)

	var stats ScanStats
	created := 0
	for _, raw := range messages {
		isNew, err := s.processMessage(ctx, account, raw, &stats, logger)
		if err != nil {
			return nil, &ScanError{Message: "unexpected error", Details: fmt.Sprintf("unexpected error: %v", err), Err: err}
		}
		if isNew {
			created++
		}
	}

	completedAt := s.now()
	run.Status = ScanCompleted
	run.CompletedAt = &completedAt
	run.Total = stats.Total
	run.Safe = stats.Safe
	run.Phishing = stats.Phishing
	run.AIPhishing = stats.AIPhishing
	if err := s.repo.UpdateScanRun(ctx, run); err != nil {
		run.Status = ScanRunning
		run.CompletedAt = nil
		return nil, &ScanError{Message: "unexpected error", Details: fmt.Sprintf("unexpected error: %v", err), Err: err}
	}

	if err := s.refreshStatistics(ctx, account.ID, completedAt); err != nil {
		return nil, &ScanError{Message: "unexpected error", Details: fmt.Sprintf("unexpected error: %v", err), Err: err}
	}
	if err := s.repo.TouchAccountSync(ctx, account.ID, completedAt); err != nil {
		return nil, &ScanError{Message: "unexpected error", Details: fmt.Sprintf("unexpected error: %v", err), Err: err}
	}

	// The new/updated split is recounted after the upserts, so every
	// processed message already exists at this point.
	existing := 0
	for _, raw := range messages {
		found, err := s.repo.MessageExists(ctx, account.ID, raw.ID)
		if err != nil {
			return nil, &ScanError{Message: "unexpected error", Details: fmt.Sprintf("unexpected error: %v", err), Err: err}
		}
		if found {
			existing++
		}
	}
	logger.Debug("Upserted messages", zap.Int("created", created), zap.Int("fetched", len(messages)))

	return &ScanSummary{
		Success: true,
		ScanID:  run.ID,
		Stats:   stats,
		Message: fmt.Sprintf("Scanned %d emails. %d new, %d updated.", stats.Total, stats.Total-existing, existing),
	}, nil
}

// processMessage persists one message and its findings. Analysis failures are
// isolated; an error is returned only when the message row cannot be written.
func (s *ScanService) processMessage(
	ctx context.Context,
	account *MailboxAccount,
	raw *RawMessage,
	stats *ScanStats,
	logger *zap.Logger,
) (bool, error) {
	now := s.now()
	received, err := mail.ParseDate(raw.Date)
	if err != nil {
		received = now
	}

	msg := &Message{
		AccountID:  account.ID,
		ExternalID: raw.ID,
		Subject:    raw.Subject,
		Sender:     raw.Sender,
		ReceivedAt: received,
		Body:       raw.Body,
		Snippet:    raw.Snippet,
		ScannedAt:  now,
		RiskLevel:  RiskSafe,
	}
	created, err := s.repo.UpsertMessage(ctx, msg)
	if err != nil {
		return false, fmt.Errorf("failed to upsert message %s: %w", raw.ID, err)
	}

	msgLogger := logger.With(zap.String("message_id", raw.ID))
	isPhishing, maxScore := s.analyzeLinks(ctx, msg.ID, raw.Links, msgLogger)
	isAI := s.analyzeText(ctx, msg.ID, raw.Body, msgLogger)

	level, category := DeriveRisk(isPhishing, isAI, maxScore)
	msg.IsPhishing = isPhishing
	msg.IsAIGenerated = isAI
	msg.RiskLevel = level
	if err := s.repo.SaveMessageVerdict(ctx, msg); err != nil {
		return false, fmt.Errorf("failed to save verdict of message %s: %w", raw.ID, err)
	}

	stats.add(category)
	metrics.RecordMessage(string(level))
	return created, nil
}

func (s *ScanService) analyzeLinks(ctx context.Context, messageID int64, links []string, logger *zap.Logger) (isPhishing bool, maxScore int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Link analysis panicked", zap.Any("panic", r))
			s.clearURLFindings(ctx, messageID, logger)
			isPhishing, maxScore = false, 0
		}
	}()

	findings := make([]URLFinding, 0, len(links))
	for _, link := range links {
		v := s.analyzer.Analyze(ctx, link)
		findings = append(findings, URLFinding{
			MessageID:    messageID,
			URL:          v.URL,
			IsSuspicious: v.IsSuspicious,
			Score:        v.Score,
			Level:        ScoreLevel(v.Score),
			Indicators:   v.Indicators,
			Details:      v.Details,
			AnalyzedAt:   s.now(),
		})
		if v.Score > maxScore {
			maxScore = v.Score
		}
		if v.IsSuspicious {
			isPhishing = true
		}
	}

	if err := s.repo.ReplaceURLFindings(ctx, messageID, findings); err != nil {
		logger.Error("Failed to store URL findings", zap.Error(err))
		s.clearURLFindings(ctx, messageID, logger)
		return false, 0
	}
	return isPhishing, maxScore
}

func (s *ScanService) clearURLFindings(ctx context.Context, messageID int64, logger *zap.Logger) {
	if err := s.repo.ReplaceURLFindings(ctx, messageID, nil); err != nil {
		logger.Error("Failed to clear URL findings", zap.Error(err))
	}
}

func (s *ScanService) analyzeText(ctx context.Context, messageID int64, body string, logger *zap.Logger) (isAI bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Text analysis panicked", zap.Any("panic", r))
			if err := s.repo.ReplaceAIFinding(ctx, messageID, nil); err != nil {
				logger.Error("Failed to clear AI finding", zap.Error(err))
			}
			isAI = false
		}
	}()

	v := s.classifier.Classify(ctx, body)
	finding := &AIFinding{
		MessageID:     messageID,
		IsAIGenerated: v.IsAIGenerated,
		Confidence:    v.Confidence,
		Label:         v.Label,
		Method:        v.Method,
		Signals:       v.Signals,
		Indicators:    v.Indicators,
		AnalyzedAt:    s.now(),
	}
	if err := s.repo.ReplaceAIFinding(ctx, messageID, finding); err != nil {
		logger.Error("Failed to store AI finding", zap.Error(err))
		return false
	}
	return v.IsAIGenerated
}

// refreshStatistics recomputes the day's statistics from the whole account
func (s *ScanService) refreshStatistics(ctx context.Context, accountID int64, at time.Time) error {
	counts, err := s.repo.CountMessages(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	stats := &ThreatStatistics{
		AccountID:    accountID,
		Date:         at.UTC().Format(StatsDateLayout),
		TotalScanned: counts.Total,
		Safe:         counts.Safe,
		Phishing:     counts.Phishing,
		AIPhishing:   counts.AIPhishing,
		UpdatedAt:    at,
	}
	if err := s.repo.UpsertThreatStatistics(ctx, stats); err != nil {
		return fmt.Errorf("failed to update threat statistics: %w", err)
	}
	return nil
}

// failRun moves a still running run to FAILED; it runs even when ctx is done
func (s *ScanService) failRun(ctx context.Context, run *ScanRun, scanErr *ScanError, logger *zap.Logger) {
	logger.Error("Scan failed", zap.String("error", scanErr.Details), zap.Error(scanErr.Err))
	if run.Status != ScanRunning {
		return
	}

	completedAt := s.now()
	run.Status = ScanFailed
	run.CompletedAt = &completedAt
	run.Error = scanErr.Details
	if run.Error == "" {
		run.Error = scanErr.Message
	}
	if err := s.repo.UpdateScanRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("Failed to mark scan run as failed", zap.Error(err))
	}
	metrics.RecordScanRun(string(ScanFailed))
}

// closeClient releases clients that hold a connection
func closeClient(client MailboxClient, logger *zap.Logger) {
	if closer, ok := client.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close mailbox client", zap.Error(err))
		}
	}
}
