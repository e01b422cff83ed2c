package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoCredential is returned when an owner has no usable stored token
var ErrNoCredential = errors.New("no stored mailbox credential")

// LoadConfig reads a Google client secrets file
func LoadConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return cfg, nil
}

// FileStore keeps one OAuth2 token per owner as a JSON file and hands out
// token sources that refresh transparently and persist refreshed tokens
type FileStore struct {
	dir    string
	config *oauth2.Config
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileStore creates a new token store rooted at dir
func NewFileStore(dir string, config *oauth2.Config, logger *zap.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		config: config,
		logger: logger,
	}
}

func (s *FileStore) path(ownerID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_' || r == '@':
			return r
		}
		return '_'
	}, ownerID)
	return filepath.Join(s.dir, "token_"+safe+".json")
}

// Load reads the stored token of an owner
func (s *FileStore) Load(ownerID string) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(ownerID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &tok, nil
}

// Save stores the token of an owner, readable by the current user only
func (s *FileStore) Save(ownerID string, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path(ownerID), b, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// TokenSource returns a refreshing token source for the owner, or
// ErrNoCredential when there is no token that is valid or refreshable
func (s *FileStore) TokenSource(ctx context.Context, ownerID string) (oauth2.TokenSource, error) {
	tok, err := s.Load(ownerID)
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, ErrNoCredential
	}

	return &persistingSource{
		base:    s.config.TokenSource(ctx, tok),
		store:   s,
		ownerID: ownerID,
		last:    tok.AccessToken,
	}, nil
}

// Invalidate removes the stored token of an owner
func (s *FileStore) Invalidate(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(ownerID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	s.logger.Info("Removed stored credential", zap.String("owner_id", ownerID))
	return nil
}

// persistingSource saves every token the base source refreshes
type persistingSource struct {
	base    oauth2.TokenSource
	store   *FileStore
	ownerID string
	mu      sync.Mutex
	last    string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(p.ownerID, tok); err != nil {
			p.store.logger.Warn("Failed to persist refreshed token",
				zap.String("owner_id", p.ownerID),
				zap.Error(err))
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
