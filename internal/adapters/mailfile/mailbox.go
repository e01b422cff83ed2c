package mailfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const (
	messageExt    = ".eml"
	snippetLength = 200
)

// Mailbox reads RFC 5322 messages stored as .eml files, one directory per
// owner under the root. Message ids are file names.
type Mailbox struct {
	root   string
	dir    string
	logger *zap.Logger
}

// NewMailbox creates a new file mailbox rooted at root
func NewMailbox(root string, logger *zap.Logger) *Mailbox {
	return &Mailbox{
		root:   root,
		logger: logger,
	}
}

// Authenticate selects the owner's directory and reports false when it does not exist
func (m *Mailbox) Authenticate(ctx context.Context, ownerID string) (bool, error) {
	if ownerID == "" || strings.ContainsAny(ownerID, `/\`) || ownerID == "." || ownerID == ".." {
		return false, nil
	}

	dir := filepath.Join(m.root, ownerID)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		m.logger.Info("No mail directory for owner", zap.String("owner_id", ownerID), zap.String("dir", dir))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat mail directory: %w", err)
	}
	if !info.IsDir() {
		return false, nil
	}

	m.dir = dir
	return true, nil
}

// Address returns the owner's directory name at the local host
func (m *Mailbox) Address(ctx context.Context) (string, error) {
	if m.dir == "" {
		return "", core.ErrNotAuthenticated
	}
	return filepath.Base(m.dir) + "@localhost", nil
}

// ListMessageIDs returns the newest message files first. A non-empty query
// keeps only files whose name contains it, ignoring case.
func (m *Mailbox) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	if m.dir == "" {
		return nil, core.ErrNotAuthenticated
	}
	if maxResults <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail directory: %w", err)
	}

	type file struct {
		name    string
		modUnix int64
	}
	query = strings.ToLower(query)
	var files []file
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), messageExt) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Name()), query) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{e.Name(), info.ModTime().UnixNano()})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modUnix != files[j].modUnix {
			return files[i].modUnix > files[j].modUnix
		}
		return files[i].name > files[j].name
	})

	if len(files) > maxResults {
		files = files[:maxResults]
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.name
	}
	return ids, nil
}

// FetchDetail parses one message file
func (m *Mailbox) FetchDetail(ctx context.Context, id string) (*core.RawMessage, error) {
	if m.dir == "" {
		return nil, core.ErrNotAuthenticated
	}
	if id != filepath.Base(id) {
		return nil, fmt.Errorf("invalid message id %q", id)
	}

	f, err := os.Open(filepath.Join(m.dir, id))
	if err != nil {
		return nil, fmt.Errorf("failed to open message: %w", err)
	}
	defer f.Close()

	return ReadMessage(id, f)
}
