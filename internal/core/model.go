package core

import (
	"errors"
	"time"
)

// RiskLevel is the ordinal risk category of a message or URL
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ScanStatus is the lifecycle state of a scan run
type ScanStatus string

const (
	ScanRunning   ScanStatus = "RUNNING"
	ScanCompleted ScanStatus = "COMPLETED"
	ScanFailed    ScanStatus = "FAILED"
)

// MessageFilter selects messages by verdict when listing
type MessageFilter string

const (
	FilterAll        MessageFilter = "all"
	FilterPhishing   MessageFilter = "phishing"
	FilterAIPhishing MessageFilter = "ai_phishing"
	FilterSafe       MessageFilter = "safe"
)

// StatsDateLayout is the layout of ThreatStatistics.Date
const StatsDateLayout = "2006-01-02"

var (
	// ErrAccountNotFound is returned when no mailbox account exists for an owner
	ErrAccountNotFound = errors.New("mailbox account not found")
	// ErrMessageNotFound is returned when a message does not exist for an account
	ErrMessageNotFound = errors.New("message not found")
	// ErrStatisticsNotFound is returned when no statistics row exists for a date
	ErrStatisticsNotFound = errors.New("threat statistics not found")
	// ErrNotAuthenticated is returned when the mailbox has no valid credential
	ErrNotAuthenticated = errors.New("mailbox authentication failed")
	// ErrInvalidFilter is returned for an unknown message filter
	ErrInvalidFilter = errors.New("invalid message filter")
)

// MailboxAccount is a connected remote mailbox owned by one user
type MailboxAccount struct {
	ID          int64      `db:"id" json:"id"`
	OwnerID     string     `db:"owner_id" json:"owner_id"`
	Address     string     `db:"address" json:"address"`
	Active      bool       `db:"is_active" json:"is_active"`
	ConnectedAt time.Time  `db:"connected_at" json:"connected_at"`
	LastSync    *time.Time `db:"last_sync" json:"last_sync,omitempty"`
}

// Message is one ingested mail message with its aggregate verdict
type Message struct {
	ID            int64     `db:"id" json:"id"`
	AccountID     int64     `db:"account_id" json:"account_id"`
	ExternalID    string    `db:"external_id" json:"external_id"`
	Subject       string    `db:"subject" json:"subject"`
	Sender        string    `db:"sender" json:"sender"`
	ReceivedAt    time.Time `db:"received_at" json:"received_at"`
	Body          string    `db:"body_text" json:"body,omitempty"`
	Snippet       string    `db:"snippet" json:"snippet"`
	ScannedAt     time.Time `db:"scanned_at" json:"scanned_at"`
	IsPhishing    bool      `db:"is_phishing" json:"is_phishing"`
	IsAIGenerated bool      `db:"is_ai_generated" json:"is_ai_generated"`
	RiskLevel     RiskLevel `db:"risk_level" json:"risk_level"`
}

// URLFinding is the persisted risk analysis of one URL found in a message
type URLFinding struct {
	ID           int64          `json:"id"`
	MessageID    int64          `json:"message_id"`
	URL          string         `json:"url"`
	IsSuspicious bool           `json:"is_suspicious"`
	Score        int            `json:"risk_score"`
	Level        RiskLevel      `json:"risk_level"`
	Indicators   []string       `json:"indicators"`
	Details      map[string]any `json:"details"`
	AnalyzedAt   time.Time      `json:"analyzed_at"`
}

// AIFinding is the persisted machine-generated text verdict of a message
type AIFinding struct {
	ID            int64              `json:"id"`
	MessageID     int64              `json:"message_id"`
	IsAIGenerated bool               `json:"is_ai_generated"`
	Confidence    float64            `json:"confidence"`
	Label         string             `json:"confidence_level"`
	Method        string             `json:"method"`
	Signals       map[string]float64 `json:"signals"`
	Indicators    []string           `json:"indicators"`
	AnalyzedAt    time.Time          `json:"analyzed_at"`
}

// ScanRun is one ingestion run over an account's mailbox
type ScanRun struct {
	ID          int64      `db:"id" json:"id"`
	AccountID   int64      `db:"account_id" json:"account_id"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Status      ScanStatus `db:"status" json:"status"`
	Total       int        `db:"total_emails" json:"total_emails"`
	Safe        int        `db:"safe_emails" json:"safe_emails"`
	Phishing    int        `db:"phishing_emails" json:"phishing_emails"`
	AIPhishing  int        `db:"ai_phishing_emails" json:"ai_phishing_emails"`
	Error       string     `db:"error_message" json:"error_message,omitempty"`
}

// ThreatStatistics holds account-wide cumulative counts as of a calendar date
type ThreatStatistics struct {
	ID           int64     `db:"id" json:"id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	Date         string    `db:"stat_date" json:"date"`
	TotalScanned int       `db:"total_scanned" json:"total_emails_scanned"`
	Safe         int       `db:"safe_count" json:"safe_count"`
	Phishing     int       `db:"phishing_count" json:"phishing_count"`
	AIPhishing   int       `db:"ai_phishing_count" json:"ai_phishing_count"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// MessageCounts are verdict counts across all of an account's messages
type MessageCounts struct {
	Total      int `json:"total"`
	Safe       int `json:"safe"`
	Phishing   int `json:"phishing"`
	AIPhishing int `json:"ai_phishing"`
}

// RawMessage is a message as fetched from the mailbox
type RawMessage struct {
	ID      string
	Subject string
	Sender  string
	Date    string
	Body    string
	Links   []string
	Snippet string
}

// URLVerdict is the result of analyzing one URL
type URLVerdict struct {
	URL          string         `json:"url"`
	IsSuspicious bool           `json:"is_suspicious"`
	Score        int            `json:"risk_score"`
	Level        RiskLevel      `json:"risk_level"`
	Indicators   []string       `json:"indicators"`
	Details      map[string]any `json:"details"`
	Error        string         `json:"error,omitempty"`
}

// AIVerdict is the result of classifying one text body
type AIVerdict struct {
	IsAIGenerated bool               `json:"is_ai_generated"`
	Confidence    float64            `json:"confidence"`
	Label         string             `json:"confidence_level"`
	Signals       map[string]float64 `json:"scores"`
	Indicators    []string           `json:"indicators"`
	Method        string             `json:"method,omitempty"`
}

// ScanStats are the per-run verdict counts reported to the trigger
type ScanStats struct {
	Total      int `json:"total"`
	Safe       int `json:"safe"`
	Phishing   int `json:"phishing"`
	AIPhishing int `json:"ai_phishing"`
}

// ScanSummary is the result of a successful scan run
type ScanSummary struct {
	Success bool      `json:"success"`
	ScanID  int64     `json:"scan_id"`
	Stats   ScanStats `json:"stats"`
	Message string    `json:"message"`
}

// ScanError is the error object reported to the trigger when a scan cannot complete
type ScanError struct {
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
	ScanID  int64  `json:"scan_id,omitempty"`
	Err     error  `json:"-"`
}

func (e *ScanError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Dashboard summarizes an account for display
type Dashboard struct {
	Account     *MailboxAccount `json:"account"`
	Counts      MessageCounts   `json:"counts"`
	RecentScans []ScanRun       `json:"recent_scans"`
}

// MessageDetail is a message together with its findings
type MessageDetail struct {
	Message     *Message     `json:"message"`
	URLFindings []URLFinding `json:"url_findings"`
	AIFinding   *AIFinding   `json:"ai_finding,omitempty"`
}
