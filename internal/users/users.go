// Package users keeps per-user preferences in the users document.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/store"
	"github.com/m3rciful/shopbot/internal/i18n"
)

// User is the persisted record of a Telegram user. Lang is nil until chosen.
type User struct {
	Lang *i18n.Lang `json:"lang"`
}

// Language returns the chosen language or "" when unset.
func (u User) Language() i18n.Lang {
	if u.Lang == nil {
		return ""
	}
	return *u.Lang
}

type document map[string]User

// Service reads and writes user records.
type Service struct {
	store store.Backend
}

// New builds a Service over the given backend.
func New(b store.Backend) *Service {
	return &Service{store: b}
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Get returns the user record and whether it exists.
func (s *Service) Get(ctx context.Context, id int64) (User, bool, error) {
	var (
		u  User
		ok bool
	)
	err := store.View(ctx, s.store, store.Users, func(doc *document) error {
		u, ok = (*doc)[key(id)]
		return nil
	})
	if err != nil {
		return User{}, false, fmt.Errorf("users: get %d: %w", id, err)
	}
	return u, ok, nil
}

// Lang returns the user's language or "" when the user is unknown or has not chosen.
func (s *Service) Lang(ctx context.Context, id int64) (i18n.Lang, error) {
	u, _, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Language(), nil
}

// Ensure creates an empty record for id if none exists.
func (s *Service) Ensure(ctx context.Context, id int64) error {
	created := false
	err := store.Mutate(ctx, s.store, store.Users, func(doc *document) error {
		if *doc == nil {
			*doc = document{}
		}
		if _, ok := (*doc)[key(id)]; ok {
			return nil
		}
		(*doc)[key(id)] = User{}
		created = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("users: ensure %d: %w", id, err)
	}
	if created {
		logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "users.created",
			slog.Int64("user_id", id),
		)
	}
	return nil
}

// SetLang stores the user's language, creating the record if needed.
func (s *Service) SetLang(ctx context.Context, id int64, lang i18n.Lang) error {
	if !lang.Valid() {
		return fmt.Errorf("users: unsupported language %q", lang)
	}
	err := store.Mutate(ctx, s.store, store.Users, func(doc *document) error {
		if *doc == nil {
			*doc = document{}
		}
		l := lang
		u := (*doc)[key(id)]
		u.Lang = &l
		(*doc)[key(id)] = u
		return nil
	})
	if err != nil {
		return fmt.Errorf("users: set lang %d: %w", id, err)
	}
	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "users.lang_set",
		slog.Int64("user_id", id),
		slog.String("lang", string(lang)),
	)
	return nil
}
