package core_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mikey/phishguard/internal/adapters/store"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const messageDate = "Mon, 03 Jun 2024 10:15:00 +0000"

// fakeMailbox serves a fixed set of messages and doubles as its own factory
type fakeMailbox struct {
	authOK     bool
	authErr    error
	address    string
	messages   []*core.RawMessage
	mu         sync.Mutex
	listedWith int
	closed     int
}

func (m *fakeMailbox) NewMailboxClient() (core.MailboxClient, error) {
	return m, nil
}

func (m *fakeMailbox) Authenticate(ctx context.Context, ownerID string) (bool, error) {
	return m.authOK, m.authErr
}

func (m *fakeMailbox) Address(ctx context.Context) (string, error) {
	return m.address, nil
}

func (m *fakeMailbox) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	m.mu.Lock()
	m.listedWith = maxResults
	m.mu.Unlock()

	ids := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		if len(ids) == maxResults {
			break
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

func (m *fakeMailbox) FetchDetail(ctx context.Context, id string) (*core.RawMessage, error) {
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.New("no such message")
}

func (m *fakeMailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// fakeAnalyzer scores URLs from a table; unknown URLs score 0
type fakeAnalyzer struct {
	scores map[string]int
	panics map[string]bool
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, rawURL string) *core.URLVerdict {
	if a.panics[rawURL] {
		panic("analyzer exploded on " + rawURL)
	}
	score := a.scores[rawURL]
	return &core.URLVerdict{
		URL:          rawURL,
		IsSuspicious: score >= core.SuspiciousScore,
		Score:        score,
		Level:        core.ScoreLevel(score),
		Indicators:   []string{},
		Details:      map[string]any{},
	}
}

// fakeClassifier flags bodies listed as machine-written
type fakeClassifier struct {
	ai map[string]bool
}

func (c *fakeClassifier) Classify(ctx context.Context, text string) *core.AIVerdict {
	if c.ai[text] {
		return &core.AIVerdict{IsAIGenerated: true, Confidence: 0.9, Label: "VERY HIGH - Almost Certainly AI", Method: "heuristic-only", Signals: map[string]float64{}, Indicators: []string{}}
	}
	return &core.AIVerdict{Confidence: 0.1, Label: "LOW - Likely Human-Written", Method: "heuristic-only", Signals: map[string]float64{}, Indicators: []string{}}
}

// failingRepo fails the nth message upsert, and every non-empty URL finding
// write when failFindings is set
type failingRepo struct {
	*store.Store
	failOn       int
	upserts      int
	failFindings bool
}

func (r *failingRepo) UpsertMessage(ctx context.Context, msg *core.Message) (bool, error) {
	r.upserts++
	if r.upserts == r.failOn {
		return false, errors.New("disk full")
	}
	return r.Store.UpsertMessage(ctx, msg)
}

func (r *failingRepo) ReplaceURLFindings(ctx context.Context, messageID int64, findings []core.URLFinding) error {
	if r.failFindings && len(findings) > 0 {
		return errors.New("findings table locked")
	}
	return r.Store.ReplaceURLFindings(ctx, messageID, findings)
}

// fakeRevoker records invalidated owners
type fakeRevoker struct {
	owners []string
}

func (r *fakeRevoker) Invalidate(ctx context.Context, ownerID string) error {
	r.owners = append(r.owners, ownerID)
	return nil
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, dialect, err := store.Open(config.StoreConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "phishguard.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := store.New(db, dialect, zap.NewNop())
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func connectAccount(t *testing.T, repo core.Repository, owner string) *core.MailboxAccount {
	t.Helper()
	account := &core.MailboxAccount{OwnerID: owner, Address: owner + "@example.com", Active: true}
	if err := repo.SaveAccount(context.Background(), account); err != nil {
		t.Fatalf("save account: %v", err)
	}
	return account
}

// sampleMailbox holds a safe message, a phishing message and an AI-written
// phishing message
func sampleMailbox() *fakeMailbox {
	return &fakeMailbox{
		authOK:  true,
		address: "alice@example.com",
		messages: []*core.RawMessage{
			{ID: "m1", Subject: "Lunch", Sender: "bob@example.com", Date: messageDate, Body: "See you at noon.", Snippet: "See you"},
			{ID: "m2", Subject: "Verify", Sender: "x@evil.xyz", Date: messageDate, Body: "Verify now", Links: []string{"http://low.example", "http://phish.example"}},
			{ID: "m3", Subject: "Update", Sender: "y@evil.xyz", Date: "not a date", Body: "machine body", Links: []string{"http://critical.example"}},
		},
	}
}

func sampleAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{scores: map[string]int{
		"http://low.example":      10,
		"http://phish.example":    70,
		"http://critical.example": 55,
	}}
}

func sampleClassifier() *fakeClassifier {
	return &fakeClassifier{ai: map[string]bool{"machine body": true}}
}
