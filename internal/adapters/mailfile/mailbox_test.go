package mailfile

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const phishMessage = "From: Support <help@paypal-verify-account.xyz>\r\n" +
	"Subject: Action required\r\n" +
	"Date: Mon, 03 Jun 2024 10:15:00 +0000\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Confirm your details at http://paypal-verify-account.xyz/login today.\r\n"

func writeMessage(t *testing.T, dir, name, content string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func newTestMailbox(t *testing.T) *Mailbox {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "alice")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	writeMessage(t, dir, "old.eml", phishMessage, base)
	writeMessage(t, dir, "newest.eml", phishMessage, base.Add(2*time.Hour))
	writeMessage(t, dir, "invoice.EML", phishMessage, base.Add(time.Hour))
	writeMessage(t, dir, "notes.txt", "ignored", base.Add(3*time.Hour))

	m := NewMailbox(root, zap.NewNop())
	ok, err := m.Authenticate(context.Background(), "alice")
	if err != nil || !ok {
		t.Fatalf("Authenticate = %v, %v", ok, err)
	}
	return m
}

func TestAuthenticate(t *testing.T) {
	m := NewMailbox(t.TempDir(), zap.NewNop())
	for _, owner := range []string{"bob", "", "..", "a/b"} {
		if ok, err := m.Authenticate(context.Background(), owner); ok || err != nil {
			t.Errorf("Authenticate(%q) = %v, %v; want false, nil", owner, ok, err)
		}
	}
	if _, err := m.Address(context.Background()); err == nil {
		t.Error("Address should fail before authentication")
	}
}

func TestListMessageIDs(t *testing.T) {
	m := newTestMailbox(t)
	ctx := context.Background()

	ids, err := m.ListMessageIDs(ctx, 10, "")
	if err != nil {
		t.Fatalf("ListMessageIDs: %v", err)
	}
	if want := []string{"newest.eml", "invoice.EML", "old.eml"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	ids, _ = m.ListMessageIDs(ctx, 2, "")
	if len(ids) != 2 {
		t.Errorf("limit ignored: %v", ids)
	}

	ids, _ = m.ListMessageIDs(ctx, 10, "INVOICE")
	if !reflect.DeepEqual(ids, []string{"invoice.EML"}) {
		t.Errorf("query ids = %v", ids)
	}

	addr, err := m.Address(ctx)
	if err != nil || addr != "alice@localhost" {
		t.Errorf("Address = %q, %v", addr, err)
	}
}

func TestFetchDetail(t *testing.T) {
	m := newTestMailbox(t)

	msg, err := m.FetchDetail(context.Background(), "old.eml")
	if err != nil {
		t.Fatalf("FetchDetail: %v", err)
	}
	if msg.ID != "old.eml" || msg.Subject != "Action required" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.Date != "Mon, 03 Jun 2024 10:15:00 +0000" {
		t.Errorf("Date = %q", msg.Date)
	}
	if !reflect.DeepEqual(msg.Links, []string{"http://paypal-verify-account.xyz/login"}) {
		t.Errorf("Links = %v", msg.Links)
	}
	if !strings.HasPrefix(msg.Snippet, "Confirm your details") {
		t.Errorf("Snippet = %q", msg.Snippet)
	}

	if _, err := m.FetchDetail(context.Background(), "../alice/old.eml"); err == nil {
		t.Error("expected error for a path outside the mailbox")
	}
	if _, err := m.FetchDetail(context.Background(), "missing.eml"); err == nil {
		t.Error("expected error for a missing file")
	}
}
