package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

const snippetLength = 200

// Client reads one IMAP mailbox with the configured login
type Client struct {
	cfg    config.IMAPConfig
	conn   *client.Client
	mu     sync.Mutex
	logger *zap.Logger
}

// NewClient creates a new IMAP client
func NewClient(cfg config.IMAPConfig, logger *zap.Logger) *Client {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With(zap.String("server", cfg.Server)),
	}
}

// Authenticate connects and logs in. A rejected login reports false; the
// owner id only tags the log lines since the login comes from configuration.
func (c *Client) Authenticate(ctx context.Context, ownerID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return true, nil
	}

	c.logger.Info("Connecting to IMAP server", zap.String("owner_id", ownerID))

	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if c.cfg.TLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", c.cfg.Server, nil)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", c.cfg.Server)
	}
	if err != nil {
		return false, fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(c.cfg.Username, c.cfg.Password); err != nil {
		imapClient.Logout()
		c.logger.Warn("IMAP login rejected", zap.Error(err))
		return false, nil
	}

	if _, err := imapClient.Select(c.cfg.Mailbox, true); err != nil {
		imapClient.Logout()
		return false, fmt.Errorf("failed to select %s: %w", c.cfg.Mailbox, err)
	}

	c.conn = imapClient
	return true, nil
}

// Address returns the login name, which is the mailbox address on most servers
func (c *Client) Address(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return "", core.ErrNotAuthenticated
	}
	return c.cfg.Username, nil
}

// ListMessageIDs returns the UIDs of the newest messages first. A non-empty
// query is sent as a TEXT search.
func (c *Client) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, core.ErrNotAuthenticated
	}
	if maxResults <= 0 {
		return nil, nil
	}

	var (
		uids []uint32
		err  error
	)
	if query != "" {
		criteria := goimap.NewSearchCriteria()
		criteria.Text = []string{query}
		uids, err = c.conn.UidSearch(criteria)
	} else {
		uids, err = c.allUIDs()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	slices.Sort(uids)
	slices.Reverse(uids)
	if len(uids) > maxResults {
		uids = uids[:maxResults]
	}

	ids := make([]string, len(uids))
	for i, uid := range uids {
		ids[i] = strconv.FormatUint(uint64(uid), 10)
	}
	return ids, nil
}

func (c *Client) allUIDs() ([]uint32, error) {
	mbox := c.conn.Mailbox()
	if mbox == nil || mbox.Messages == 0 {
		return nil, nil
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddRange(1, mbox.Messages)

	messages := make(chan *goimap.Message, 100)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.Fetch(seqSet, []goimap.FetchItem{goimap.FetchUid}, messages)
	}()

	var uids []uint32
	for msg := range messages {
		uids = append(uids, msg.Uid)
	}
	return uids, <-done
}

// FetchDetail fetches one message by UID without setting the \Seen flag
func (c *Client) FetchDetail(ctx context.Context, id string) (*core.RawMessage, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message uid %q: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, core.ErrNotAuthenticated
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uint32(uid))
	section := &goimap.BodySectionName{Peek: true}

	messages := make(chan *goimap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.UidFetch(seqSet, []goimap.FetchItem{section.FetchItem()}, messages)
	}()

	var raw *core.RawMessage
	var parseErr error
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			parseErr = errors.New("server returned no body")
			continue
		}
		parsed, err := utils.ParseMail(body)
		if err != nil {
			parseErr = err
			continue
		}
		raw = &core.RawMessage{
			ID:      id,
			Subject: parsed.Subject,
			Sender:  parsed.From,
			Date:    parsed.Date,
			Body:    strings.ToValidUTF8(parsed.Body, "�"),
			Links:   utils.CollectLinks(parsed.Body, parsed.HTML),
			Snippet: utils.Snippet(parsed.Body, parsed.HTML, snippetLength),
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, parseErr)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return raw, nil
}

// Close logs out of the server
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Logout()
	c.conn = nil
	return err
}
