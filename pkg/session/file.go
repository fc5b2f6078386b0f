package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/taxoview/pkg/errors"
)

// FileStore keeps one JSON document per session in a directory. Files are
// private to the user (0600) because a session records what was browsed.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir is $XDG_CONFIG_HOME/taxoview/sessions, falling back to
// ~/.config.
func DefaultDir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "taxoview", "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locate home directory")
	}
	return filepath.Join(home, ".config", "taxoview", "sessions"), nil
}

// NewFileStore opens dir, or [DefaultDir] when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// fileName keeps ids usable as file names; dataset-derived ids may carry
// URI punctuation.
func (s *FileStore) fileName(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, id)
	return filepath.Join(s.dir, safe+".json")
}

// Get returns nil, nil for unknown and expired sessions; expired files are
// removed on the way.
func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := s.fileName(id)
	raw, err := os.ReadFile(name)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read session %s", id)
	}

	sess := new(Session)
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode session %s", id)
	}
	if sess.IsExpired() {
		_ = os.Remove(name)
		return nil, nil
	}
	return sess, nil
}

func (s *FileStore) Set(_ context.Context, sess *Session) error {
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode session %s", sess.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.fileName(sess.ID), raw, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write session %s", sess.ID)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.fileName(id)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove session %s", id)
	}
	return nil
}

// Cleanup removes expired session files. Unreadable files are skipped.
func (s *FileStore) Cleanup(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "list %s", s.dir)
	}

	now, removed := time.Now(), 0
	for _, name := range names {
		raw, err := os.ReadFile(name)
		if err != nil {
			continue
		}
		// The expiry alone decides; the view is not decoded.
		var head struct {
			ExpiresAt time.Time `json:"expires_at"`
		}
		if json.Unmarshal(raw, &head) != nil || !now.After(head.ExpiresAt) {
			continue
		}
		if os.Remove(name) == nil {
			removed++
		}
	}
	return removed, nil
}

// Dir returns the session directory.
func (s *FileStore) Dir() string { return s.dir }

var _ Store = (*FileStore)(nil)

// =============================================================================
// Browse sessions
// =============================================================================

// CLIStore keeps one resumable browse session per dataset, keyed by the
// dataset name instead of a random id.
type CLIStore struct {
	files *FileStore
}

// NewCLIStore opens a store under dir, or [DefaultDir] when dir is empty.
func NewCLIStore(dir string) (*CLIStore, error) {
	files, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{files: files}, nil
}

func browseID(dataset string) string { return "browse-" + dataset }

// Load returns the saved session for dataset, or nil.
func (c *CLIStore) Load(ctx context.Context, dataset string) (*Session, error) {
	return c.files.Get(ctx, browseID(dataset))
}

// Save stores sess as its dataset's resumable session, replacing its ID.
func (c *CLIStore) Save(ctx context.Context, sess *Session) error {
	sess.ID = browseID(sess.Dataset)
	return c.files.Set(ctx, sess)
}

// Forget removes the saved session for dataset.
func (c *CLIStore) Forget(ctx context.Context, dataset string) error {
	return c.files.Delete(ctx, browseID(dataset))
}

// Path returns the file holding dataset's session.
func (c *CLIStore) Path(dataset string) string {
	return c.files.fileName(browseID(dataset))
}
