// Package kvstore provides the durable, synchronous, string-keyed storage that
// backs per-profile session data. Every driver applies a Batch atomically.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Store is a durable string-keyed store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Apply writes every Set entry and removes every Delete key as one unit.
	Apply(ctx context.Context, b Batch) error
	Close() error
}

// Batch is a set of writes applied together. A key present in both Set and
// Delete ends up deleted.
type Batch struct {
	Set    map[string]string
	Delete []string
}

func (b Batch) empty() bool {
	return len(b.Set) == 0 && len(b.Delete) == 0
}

// Options selects and configures a driver.
type Options struct {
	Driver   string // file|sqlite|redis|postgres
	Path     string // file, sqlite
	DSN      string // postgres
	Addr     string // redis
	Password string // redis
	DB       int    // redis
}

// Open returns the Store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "file":
		return NewFileStore(opts.Path)
	case "sqlite":
		return OpenSQLite(opts.Path)
	case "redis":
		return OpenRedis(ctx, opts.Addr, opts.Password, opts.DB)
	case "postgres":
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

type scoped struct {
	prefix string
	inner  Store
}

// Scoped namespaces every key of inner under prefix. Closing the scoped view
// does not close inner.
func Scoped(inner Store, prefix string) Store {
	return &scoped{prefix: strings.TrimSuffix(prefix, "/") + "/", inner: inner}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Apply(ctx context.Context, b Batch) error {
	out := Batch{Set: make(map[string]string, len(b.Set))}
	for k, v := range b.Set {
		out.Set[s.prefix+k] = v
	}
	for _, k := range b.Delete {
		out.Delete = append(out.Delete, s.prefix+k)
	}
	return s.inner.Apply(ctx, out)
}

func (s *scoped) Close() error { return nil }
