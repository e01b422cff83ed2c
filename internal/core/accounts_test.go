package core_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

func TestConnect(t *testing.T) {
	repo := newStore(t)
	ctx := context.Background()
	svc := core.NewAccountService(repo, sampleMailbox(), &fakeRevoker{}, zap.NewNop())

	account, err := svc.Connect(ctx, "alice")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if account.ID == 0 || account.Address != "alice@example.com" || !account.Active {
		t.Errorf("account = %+v", account)
	}

	again, err := svc.Connect(ctx, "alice")
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if again.ID != account.ID {
		t.Errorf("reconnect created a second account: %d != %d", again.ID, account.ID)
	}
}

func TestConnectWithoutCredential(t *testing.T) {
	repo := newStore(t)
	mailbox := sampleMailbox()
	mailbox.authOK = false
	svc := core.NewAccountService(repo, mailbox, nil, zap.NewNop())

	if _, err := svc.Connect(context.Background(), "alice"); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Errorf("Connect = %v, want ErrNotAuthenticated", err)
	}
	if _, err := repo.GetAccountByOwner(context.Background(), "alice"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("account was created: %v", err)
	}
}

func TestDisconnectPurgesAndReconnects(t *testing.T) {
	repo := newStore(t)
	ctx := context.Background()
	revoker := &fakeRevoker{}
	mailbox := sampleMailbox()
	accounts := core.NewAccountService(repo, mailbox, revoker, zap.NewNop())

	account, err := accounts.Connect(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newScanService(repo, mailbox, sampleAnalyzer()).StartScan(ctx, "alice", 10); err != nil {
		t.Fatal(err)
	}

	if err := accounts.Disconnect(ctx, "alice"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !reflect.DeepEqual(revoker.owners, []string{"alice"}) {
		t.Errorf("revoked = %v", revoker.owners)
	}

	dash, err := accounts.Dashboard(ctx, "alice")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.Account.Active || dash.Counts.Total != 0 || len(dash.RecentScans) != 0 {
		t.Errorf("dashboard after disconnect = %+v", dash)
	}

	if _, err := newScanService(repo, mailbox, sampleAnalyzer()).StartScan(ctx, "alice", 10); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("scan of a disconnected account: %v", err)
	}

	again, err := accounts.Connect(ctx, "alice")
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if again.ID != account.ID || !again.Active {
		t.Errorf("reconnected account = %+v", again)
	}

	if err := accounts.Disconnect(ctx, "bob"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Errorf("Disconnect(bob) = %v", err)
	}
}

func TestReadModels(t *testing.T) {
	repo := newStore(t)
	ctx := context.Background()
	mailbox := sampleMailbox()
	accounts := core.NewAccountService(repo, mailbox, nil, zap.NewNop())

	if _, err := accounts.Connect(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	scans := newScanService(repo, mailbox, sampleAnalyzer())
	for i := 0; i < 6; i++ {
		if _, err := scans.StartScan(ctx, "alice", 10); err != nil {
			t.Fatal(err)
		}
	}

	dash, err := accounts.Dashboard(ctx, "alice")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if want := (core.MessageCounts{Total: 3, Safe: 1, Phishing: 2, AIPhishing: 1}); dash.Counts != want {
		t.Errorf("counts = %+v, want %+v", dash.Counts, want)
	}
	if len(dash.RecentScans) != 5 {
		t.Errorf("recent scans = %d, want 5", len(dash.RecentScans))
	}

	phishing, err := accounts.ListMessages(ctx, "alice", "phishing", 0)
	if err != nil || len(phishing) != 2 {
		t.Errorf("ListMessages(phishing) = %d, %v", len(phishing), err)
	}
	all, err := accounts.ListMessages(ctx, "alice", "", 0)
	if err != nil || len(all) != 3 {
		t.Errorf("ListMessages(all) = %d, %v", len(all), err)
	}
	if _, err := accounts.ListMessages(ctx, "alice", "urgent", 0); !errors.Is(err, core.ErrInvalidFilter) {
		t.Errorf("ListMessages(urgent) = %v", err)
	}

	var m2 core.Message
	for _, m := range all {
		if m.ExternalID == "m2" {
			m2 = m
		}
	}
	detail, err := accounts.MessageDetail(ctx, "alice", m2.ID)
	if err != nil {
		t.Fatalf("MessageDetail: %v", err)
	}
	if len(detail.URLFindings) != 2 || detail.AIFinding == nil || detail.Message.Subject != "Verify" {
		t.Errorf("detail = %+v", detail)
	}

	if _, err := accounts.MessageDetail(ctx, "alice", 99999); !errors.Is(err, core.ErrMessageNotFound) {
		t.Errorf("MessageDetail(missing) = %v", err)
	}

	stats, err := accounts.Statistics(ctx, "alice", "")
	if err != nil || stats.TotalScanned != 3 {
		t.Errorf("Statistics = %+v, %v", stats, err)
	}
	if _, err := accounts.Statistics(ctx, "alice", "2001-01-01"); !errors.Is(err, core.ErrStatisticsNotFound) {
		t.Errorf("Statistics(old date) = %v", err)
	}
	if _, err := accounts.Statistics(ctx, "alice", "yesterday"); err == nil {
		t.Error("expected error for a malformed date")
	}
}
