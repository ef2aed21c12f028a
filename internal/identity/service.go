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

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crewbase/crewbase/internal/audit"
)

// Service provides identity-related business logic
type Service struct {
	accounts    AccountRepository
	profiles    ProfileRepository
	locales     LocaleLookup // optional; nil disables hint pre-fill
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(
	accounts AccountRepository,
	profiles ProfileRepository,
	locales LocaleLookup,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		accounts:    accounts,
		profiles:    profiles,
		locales:     locales,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// RegisterHints carries the browser-detected locale signals captured by the
// registration form. All fields are optional and purely advisory.
type RegisterHints struct {
	Timezone string // IANA name, e.g. "Europe/Brussels"
	Language string // BCP-47 tag, e.g. "nl-BE"
}

// Register creates a new account with a usable credential and its profile.
//
// The duplicate email is pre-checked so the caller gets a clean ErrEmailTaken
// instead of a constraint violation surfacing mid-write. Browser hints are
// matched against the reference catalogs and pre-filled on the profile when
// they resolve; unresolvable hints are silently dropped.
func (s *Service) Register(ctx context.Context, email, password string, hints RegisterHints) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !isStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	credentialHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := NewAccount(email, credentialHash)
	profile := NewProfileFor(account)
	s.applyLocaleHints(ctx, profile, hints)

	if err := s.accounts.Create(ctx, account, profile); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAccountCreated,
		ActorID:  account.ID,
		Resource: "account",
		Metadata: map[string]any{audit.AttrEmail: account.Email},
	})

	return account, nil
}

// applyLocaleHints resolves browser hints against the reference catalogs and
// sets them on the profile. Unknown values are ignored.
func (s *Service) applyLocaleHints(ctx context.Context, profile *Profile, hints RegisterHints) {
	if s.locales == nil {
		return
	}

	if hints.Timezone != "" {
		if tz, err := s.locales.TimezoneByName(ctx, hints.Timezone); err == nil && tz != nil {
			profile.Timezone = &tz.Name
		}
	}

	if hints.Language != "" {
		// "en-US" → try "en-us" exactly, then the "en" prefix.
		code := strings.ToLower(strings.ReplaceAll(hints.Language, "_", "-"))
		lang, err := s.locales.LanguageByCode(ctx, code)
		if (err != nil || lang == nil) && strings.Contains(code, "-") {
			prefix, _, _ := strings.Cut(code, "-")
			lang, err = s.locales.LanguageByCode(ctx, prefix)
		}
		if err == nil && lang != nil {
			profile.Language = &lang.Code
		}
	}
}

// Authenticate authenticates an account by email and password.
//
// Inactive accounts and accounts without a usable credential (invited, not
// yet accepted) fail with ErrInvalidCredentials so the response does not leak
// account state.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			Resource: email,
			Metadata: map[string]any{audit.AttrReason: "account_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive || !account.HasUsableCredential() {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ActorID:  account.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "account_unusable"},
		})
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, account.CredentialHash)
	if err != nil || !valid {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ActorID:  account.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "invalid_password"},
		})
		return nil, ErrInvalidCredentials
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  account.ID,
		Resource: "login",
	})

	return account, nil
}

// GetAccount retrieves an account by ID
func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// GetProfile retrieves the profile owned by an account
func (s *Service) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// CompleteProfile saves onboarding step 1: display name plus optional
// timezone and country.
//
// ProfileCompletedAt is set the first time through and never again, so the
// timestamp is monotonic by construction.
func (s *Service) CompleteProfile(ctx context.Context, accountID, displayName string, timezone, country *string) (*Profile, error) {
	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	if displayName != "" {
		profile.DisplayName = &displayName
	}
	if timezone != nil {
		profile.Timezone = timezone
	}
	if country != nil {
		profile.Country = country
	}

	first := profile.ProfileCompletedAt == nil
	if first {
		now := time.Now()
		profile.ProfileCompletedAt = &now
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if first {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeProfileCompleted,
			ActorID:  accountID,
			Resource: "profile",
		})
	}

	return profile, nil
}

// ProfileSettings carries the fields editable on the full settings form.
// Nil pointers leave the stored value untouched; onboarding and membership
// fields are never writable through here.
type ProfileSettings struct {
	DisplayName     *string
	Language        *string
	Timezone        *string
	Country         *string
	Currency        *string
	MarketingEmails *bool
}

// UpdateProfileSettings updates personalization preferences.
func (s *Service) UpdateProfileSettings(ctx context.Context, accountID string, settings ProfileSettings) (*Profile, error) {
	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	if settings.DisplayName != nil {
		profile.DisplayName = settings.DisplayName
	}
	if settings.Language != nil {
		profile.Language = settings.Language
	}
	if settings.Timezone != nil {
		profile.Timezone = settings.Timezone
	}
	if settings.Country != nil {
		profile.Country = settings.Country
	}
	if settings.Currency != nil {
		profile.Currency = settings.Currency
	}
	if settings.MarketingEmails != nil {
		profile.MarketingEmails = *settings.MarketingEmails
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return profile, nil
}

// SetTheme saves the UI theme preference.
func (s *Service) SetTheme(ctx context.Context, accountID, theme string) error {
	if !ValidTheme(theme) {
		return ErrInvalidTheme
	}

	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return ErrProfileNotFound
	}

	profile.Theme = theme
	return s.profiles.Update(ctx, profile)
}

// ChangePassword replaces the credential after verifying the old password.
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return ErrAccountNotFound
	}

	valid, err := s.hasher.Verify(oldPassword, account.CredentialHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if err := s.setPassword(ctx, account, newPassword); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		ActorID:  accountID,
		Resource: "credential",
	})

	return nil
}

// SetPassword sets the credential without checking the previous one. It is
// the invite-acceptance entry point: changing the hash invalidates every
// outstanding invitation token for the account.
func (s *Service) SetPassword(ctx context.Context, accountID, password string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return ErrAccountNotFound
	}
	return s.setPassword(ctx, account, password)
}

func (s *Service) setPassword(ctx context.Context, account *Account, password string) error {
	if !isStrongPassword(password) {
		return ErrWeakPassword
	}

	credentialHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdateCredential(ctx, account.ID, credentialHash); err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	account.CredentialHash = credentialHash

	return nil
}

// Helper functions
func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && len(email) < 255
}

func isStrongPassword(password string) bool {
	// Password must be at least 8 characters
	return len(password) >= 8
}
