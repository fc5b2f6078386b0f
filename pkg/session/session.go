// Package session stores browse views between requests.
//
// A session pairs an [engine.View] with the dataset it was built from, so a
// client can expand, focus and select paths across several calls. Backends:
//   - [MemoryStore]: in-process, used by the HTTP server
//   - [FileStore]: JSON files, used by the CLI to resume a browse
//
// # Usage
//
//	sess := session.New("animals", view, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // not found or expired
//	}
//
// Sessions returned by a [MemoryStore] are shared. Hold [Session.Lock] while
// mutating the view.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/taxoview/pkg/engine"
)

// Session is one browse view with an expiry.
type Session struct {
	ID        string       `json:"id"`
	Dataset   string       `json:"dataset"`
	View      *engine.View `json:"view"`
	ExpiresAt time.Time    `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`

	mu sync.Mutex // guards View

	// clock guards ExpiresAt, which stores read without holding mu.
	clock sync.RWMutex
}

// Expiry returns the current expiry time.
func (s *Session) Expiry() time.Time {
	s.clock.RLock()
	defer s.clock.RUnlock()
	return s.ExpiresAt
}

// IsExpired reports whether the expiry has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.Expiry())
}

// Lock serializes access to the view. The hierarchy tree is not safe for
// concurrent mutation.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the view.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch pushes the expiry ttl into the future. It does not need [Session.Lock].
func (s *Session) Touch(ttl time.Duration) {
	s.clock.Lock()
	s.ExpiresAt = time.Now().Add(ttl)
	s.clock.Unlock()
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) (int, error)
}

// DefaultTTL is the default session duration.
const DefaultTTL = 2 * time.Hour

// GenerateID returns a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// New creates a session for view with a fresh ID.
func New(dataset string, view *engine.View, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(),
		Dataset:   dataset,
		View:      view,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}
