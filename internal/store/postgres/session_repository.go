// Copyright 2026 The Crewbase Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crewbase/crewbase/internal/session"
)

// SessionRepository implements session.Repository
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, account_id, ip_address, user_agent, expires_at, created_at, last_seen_at,
			skip_profile_gate, profile_suggestions_confirmed, org_suggestion_confirmed,
			tz_hint, lang_hint, country_hint
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		s.ID, s.AccountID, s.IPAddress, s.UserAgent, s.ExpiresAt, s.CreatedAt, s.LastSeenAt,
		s.SkipProfileGate, s.ProfileSuggestionsConfirmed, s.OrgSuggestionConfirmed,
		s.TzHint, s.LangHint, s.CountryHint,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	var s session.Session
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, account_id, ip_address, user_agent, expires_at, created_at, last_seen_at,
			skip_profile_gate, profile_suggestions_confirmed, org_suggestion_confirmed,
			tz_hint, lang_hint, country_hint
		FROM sessions
		WHERE id = $1
	`, sessionID).Scan(
		&s.ID, &s.AccountID, &s.IPAddress, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt, &s.LastSeenAt,
		&s.SkipProfileGate, &s.ProfileSuggestionsConfirmed, &s.OrgSuggestionConfirmed,
		&s.TzHint, &s.LangHint, &s.CountryHint,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// Update persists mutable session fields
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE sessions SET
			last_seen_at = $2,
			skip_profile_gate = $3, profile_suggestions_confirmed = $4, org_suggestion_confirmed = $5,
			tz_hint = $6, lang_hint = $7, country_hint = $8
		WHERE id = $1
	`,
		s.ID, s.LastSeenAt,
		s.SkipProfileGate, s.ProfileSuggestionsConfirmed, s.OrgSuggestionConfirmed,
		s.TzHint, s.LangHint, s.CountryHint,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// Delete deletes a session
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByAccount deletes all sessions for an account
func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// DeleteExpired deletes all expired sessions
func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
