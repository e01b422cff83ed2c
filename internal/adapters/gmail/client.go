package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phishguard/internal/adapters/oauth"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	userID      = "me"
	maxPageSize = 500
)

// CredentialProvider hands out token sources per owner. It returns
// oauth.ErrNoCredential when the owner never connected or was disconnected.
type CredentialProvider interface {
	TokenSource(ctx context.Context, ownerID string) (oauth2.TokenSource, error)
}

// Client reads one Gmail mailbox through the REST API
type Client struct {
	creds    CredentialProvider
	pageSize int
	opts     []option.ClientOption
	svc      *gmail.Service
	logger   *zap.Logger
}

// NewClient creates a new Gmail client. opts are appended to the service
// options after the owner's token source.
func NewClient(creds CredentialProvider, pageSize int, logger *zap.Logger, opts ...option.ClientOption) *Client {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &Client{
		creds:    creds,
		pageSize: pageSize,
		opts:     opts,
		logger:   logger,
	}
}

// Authenticate builds the API service from the owner's stored credential
func (c *Client) Authenticate(ctx context.Context, ownerID string) (bool, error) {
	ts, err := c.creds.TokenSource(ctx, ownerID)
	if errors.Is(err, oauth.ErrNoCredential) {
		c.logger.Info("No stored Gmail credential", zap.String("owner_id", ownerID))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load credential: %w", err)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return false, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	c.svc = svc
	return true, nil
}

// Address returns the address of the authenticated mailbox
func (c *Client) Address(ctx context.Context) (string, error) {
	if c.svc == nil {
		return "", core.ErrNotAuthenticated
	}
	profile, err := c.svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// ListMessageIDs pages through the mailbox until maxResults ids were
// collected, the cursor is exhausted or a page comes back empty
func (c *Client) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	if c.svc == nil {
		return nil, core.ErrNotAuthenticated
	}
	if maxResults <= 0 {
		return nil, nil
	}

	ids := make([]string, 0, min(maxResults, c.pageSize))
	pageToken := ""
	for len(ids) < maxResults {
		call := c.svc.Users.Messages.List(userID).
			MaxResults(int64(min(maxResults-len(ids), c.pageSize))).
			Context(ctx)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list Gmail messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		if len(resp.Messages) == 0 || resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	c.logger.Debug("Listed Gmail messages", zap.Int("count", len(ids)))
	return ids, nil
}

// FetchDetail fetches and decodes one message
func (c *Client) FetchDetail(ctx context.Context, id string) (*core.RawMessage, error) {
	if c.svc == nil {
		return nil, core.ErrNotAuthenticated
	}

	msg, err := c.svc.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get Gmail message %s: %w", id, err)
	}
	if msg.Payload == nil {
		return nil, fmt.Errorf("gmail message %s has no payload", id)
	}

	body, isHTML := MessageBody(msg.Payload)
	return &core.RawMessage{
		ID:      id,
		Subject: header(msg.Payload, "Subject", utils.DefaultSubject),
		Sender:  header(msg.Payload, "From", utils.DefaultSender),
		Date:    header(msg.Payload, "Date", utils.DefaultDate),
		Body:    body,
		Links:   utils.CollectLinks(body, isHTML),
		Snippet: msg.Snippet,
	}, nil
}

func header(p *gmail.MessagePart, name, fallback string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return fallback
}

// MessageBody picks the first text/plain part, else the first text/html
// part, else the payload's own body. It reports whether the body is HTML.
func MessageBody(payload *gmail.MessagePart) (string, bool) {
	if len(payload.Parts) == 0 {
		body := decodeData(payload.Body)
		return body, strings.EqualFold(payload.MimeType, "text/html")
	}
	if part := findPart(payload, "text/plain"); part != nil {
		return decodeData(part.Body), false
	}
	if part := findPart(payload, "text/html"); part != nil {
		return decodeData(part.Body), true
	}
	return "", false
}

// findPart searches the part tree depth-first for a part with data
func findPart(p *gmail.MessagePart, mimeType string) *gmail.MessagePart {
	for _, part := range p.Parts {
		if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
			return part
		}
		if found := findPart(part, mimeType); found != nil {
			return found
		}
	}
	return nil
}

func decodeData(body *gmail.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	b, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(body.Data, "="))
		if err != nil {
			return ""
		}
	}
	return strings.ToValidUTF8(string(b), "�")
}
