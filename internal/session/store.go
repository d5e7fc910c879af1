// Package session holds the authenticated identity of one browser profile:
// its durable store and the in-memory manager views subscribe to.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/kvstore"
	"github.com/lucaspires-source/authdash/internal/logger"
)

// Storage keys, unversioned and un-namespaced within a profile.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyTheme = "theme"
)

var ErrEmptyToken = errors.New("session token is empty")

// Session is valid iff Token is non-empty. User is optional metadata and is
// never present without a token.
type Session struct {
	Token string                 `json:"token,omitempty"`
	User  *directory.UserProfile `json:"user,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store persists a Session in a kvstore.Store.
type Store struct {
	kv kvstore.Store
}

func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Get reads the persisted session. A stored user without a token is dropped,
// and so is a user record that no longer decodes.
func (s *Store) Get(ctx context.Context) (Session, error) {
	tok, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return Session{}, fmt.Errorf("read token: %w", err)
	}
	if !ok || tok == "" {
		return Session{}, nil
	}
	sess := Session{Token: tok}
	raw, ok, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return Session{}, fmt.Errorf("read user: %w", err)
	}
	if ok && raw != "" {
		var u directory.UserProfile
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.Warn("Dropping undecodable stored user: %v", err)
		} else {
			sess.User = &u
		}
	}
	return sess, nil
}

// Set writes token and user in one batch.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if sess.Token == "" {
		return ErrEmptyToken
	}
	b := kvstore.Batch{Set: map[string]string{KeyToken: sess.Token}}
	if sess.User != nil {
		raw, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		b.Set[KeyUser] = string(raw)
	} else {
		b.Delete = []string{KeyUser}
	}
	return s.kv.Apply(ctx, b)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Apply(ctx, kvstore.Batch{Delete: []string{KeyToken, KeyUser}})
}
