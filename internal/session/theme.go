package session

import (
	"context"

	"github.com/lucaspires-source/authdash/internal/kvstore"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Theme returns the stored colour scheme, light when unset or unrecognised.
func (s *Store) Theme(ctx context.Context) (Theme, error) {
	v, _, err := s.kv.Get(ctx, KeyTheme)
	if err != nil {
		return ThemeLight, err
	}
	if Theme(v) == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// ToggleTheme flips between light and dark and persists the result.
func (s *Store) ToggleTheme(ctx context.Context) (Theme, error) {
	cur, err := s.Theme(ctx)
	if err != nil {
		return cur, err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := s.kv.Apply(ctx, kvstore.Batch{Set: map[string]string{KeyTheme: string(next)}}); err != nil {
		return cur, err
	}
	return next, nil
}
