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

package session

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is a server-side login session. The ID is an opaque random value;
// everything the gate and the onboarding screens need between requests
// lives here, not in the cookie.
type Session struct {
	ID         string
	AccountID  string
	IPAddress  string
	UserAgent  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time

	// SkipProfileGate suppresses onboarding step 1 for this session only.
	SkipProfileGate bool

	// Suggestion banners shown at most once per session.
	ProfileSuggestionsConfirmed bool
	OrgSuggestionConfirmed      bool

	// Browser locale hints captured at registration, consumed by the
	// onboarding defaults endpoint.
	TzHint      string
	LangHint    string
	CountryHint string
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsIdle checks if the session has been idle for too long
func (s *Session) IsIdle(idleTimeout time.Duration) bool {
	return time.Since(s.LastSeenAt) > idleTimeout
}

// Repository defines the interface for session persistence
type Repository interface {
	// Create creates a new session
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Update persists mutable session fields
	Update(ctx context.Context, session *Session) error

	// Delete deletes a session
	Delete(ctx context.Context, sessionID string) error

	// DeleteByAccount deletes all sessions for an account
	DeleteByAccount(ctx context.Context, accountID string) error

	// DeleteExpired deletes all expired sessions
	DeleteExpired(ctx context.Context) error
}
