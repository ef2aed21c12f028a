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
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Service manages session lifecycle
type Service struct {
	repo        Repository
	lifetime    time.Duration
	idleTimeout time.Duration
}

// NewService creates a new session service
func NewService(repo Repository, lifetime, idleTimeout time.Duration) *Service {
	return &Service{
		repo:        repo,
		lifetime:    lifetime,
		idleTimeout: idleTimeout,
	}
}

// Create starts a session for an account.
func (s *Service) Create(ctx context.Context, accountID, ipAddress, userAgent string) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:         id,
		AccountID:  accountID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.lifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Get loads a live session. Expired or idle sessions are destroyed on sight
// and reported as ErrSessionExpired.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if sess.IsExpired() || sess.IsIdle(s.idleTimeout) {
		_ = s.repo.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// Touch records activity on the session.
func (s *Service) Touch(ctx context.Context, sess *Session) error {
	sess.LastSeenAt = time.Now()
	return s.repo.Update(ctx, sess)
}

// Update persists flag or hint changes made by a handler.
func (s *Service) Update(ctx context.Context, sess *Session) error {
	return s.repo.Update(ctx, sess)
}

// Destroy ends a single session.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// DestroyAllForAccount ends every session the account holds, e.g. after a
// password change.
func (s *Service) DestroyAllForAccount(ctx context.Context, accountID string) error {
	return s.repo.DeleteByAccount(ctx, accountID)
}

// CleanupExpired removes expired sessions. Intended to run periodically.
func (s *Service) CleanupExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}

// generateID returns a 256-bit random session identifier.
func generateID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
