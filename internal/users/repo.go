// Package users keeps a registry of every identity that has authenticated,
// so admin views can show an email instead of a bare subject id.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

type User struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

type Repo struct {
	store kvstore.Store
}

func NewRepo(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

type UpsertUser struct {
	Subject     string
	Email       string
	DisplayName string
}

// EnsureUser records the identity, preserving the stored record's id and
// any fields the token did not carry this time.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.Subject == "" {
		return "", fmt.Errorf("subject required")
	}

	key := kvstore.KeyUser(u.Subject)

	record := User{Subject: u.Subject}
	if data, err := r.store.Get(ctx, key); err == nil {
		if err := json.Unmarshal(data, &record); err != nil {
			return "", fmt.Errorf("unmarshal user %s: %w", u.Subject, err)
		}
	} else if err != kvstore.ErrNotFound {
		return "", err
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if u.Email != "" {
		record.Email = u.Email
	}
	if u.DisplayName != "" {
		record.DisplayName = u.DisplayName
	}
	record.LastSeenAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	if err := r.store.Put(ctx, key, data); err != nil {
		return "", err
	}
	return record.ID, nil
}

// Email returns the stored email for a subject, or "" when unknown.
func (r *Repo) Email(ctx context.Context, subject string) (string, error) {
	data, err := r.store.Get(ctx, kvstore.KeyUser(subject))
	if err == kvstore.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return "", err
	}
	return strings.TrimSpace(u.Email), nil
}
