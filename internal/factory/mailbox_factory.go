package factory

import (
	"fmt"

	"github.com/mikey/phishguard/internal/adapters/gmail"
	"github.com/mikey/phishguard/internal/adapters/imap"
	"github.com/mikey/phishguard/internal/adapters/mailfile"
	"github.com/mikey/phishguard/internal/adapters/oauth"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
)

// MailboxFactory creates mailbox clients for the configured provider
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	tokens *oauth.FileStore
}

// NewMailboxFactory creates a new mailbox factory. The gmail provider loads
// the OAuth client credentials up front.
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) (*MailboxFactory, error) {
	f := &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}

	mailboxCfg := cfg.GetMailbox()
	if mailboxCfg.Provider == "gmail" {
		oauthCfg, err := oauth.LoadConfig(mailboxCfg.CredentialsFile, gmailapi.GmailReadonlyScope)
		if err != nil {
			return nil, err
		}
		f.tokens = oauth.NewFileStore(mailboxCfg.TokenDir, oauthCfg, logger)
	}

	return f, nil
}

// NewMailboxClient creates a fresh client for one run
func (f *MailboxFactory) NewMailboxClient() (core.MailboxClient, error) {
	mailboxCfg := f.cfg.GetMailbox()

	switch mailboxCfg.Provider {
	case "gmail":
		return gmail.NewClient(f.tokens, mailboxCfg.PageSize, f.logger), nil
	case "imap":
		imapCfg := f.cfg.GetIMAP()
		if imapCfg.Server == "" {
			return nil, fmt.Errorf("imap server is required")
		}
		return imap.NewClient(imapCfg, f.logger), nil
	case "file":
		return mailfile.NewMailbox(mailboxCfg.Dir, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported mailbox provider: %s", mailboxCfg.Provider)
	}
}

// Revoker returns the credential store to clear on disconnect, or nil for
// providers without per-owner credentials
func (f *MailboxFactory) Revoker() core.CredentialRevoker {
	if f.tokens == nil {
		return nil
	}
	return f.tokens
}
