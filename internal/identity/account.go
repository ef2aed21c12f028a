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
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/crewbase/crewbase/internal/refdata"
)

// Domain errors
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTheme       = errors.New("invalid theme")
)

// Themes
const (
	ThemeCorporate = "corporate"
	ThemeNight     = "night"
	ThemeSystem    = "system"
)

// Tenant-membership roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidTheme reports whether theme is one of the supported UI themes.
func ValidTheme(theme string) bool {
	return theme == ThemeCorporate || theme == ThemeNight || theme == ThemeSystem
}

// ValidRole reports whether role is a known membership role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// Account is the credential-holding identity record. Accounts are never
// hard-deleted; DeletedAt/DeletedBy mark soft deletion.
type Account struct {
	ID             string
	Email          string // unique, stored lower-cased
	CredentialHash string // empty means no usable credential (invited, not yet accepted)
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	DeletedBy      *string // acting account UUID, no FK
}

// HasUsableCredential reports whether the account can authenticate with a
// password. Invited accounts stay unusable until the invite-accept flow
// sets one.
func (a *Account) HasUsableCredential() bool {
	return a.CredentialHash != ""
}

// Profile holds personalization and tenant-membership state, exactly one per
// Account. Like Account it is soft-delete only.
type Profile struct {
	ID        string
	AccountID string

	DisplayName *string // nil means "not yet set"

	// Locale preferences reference the read-only catalogs by natural key.
	Language *string // language code, e.g. "nl"
	Timezone *string // IANA name, e.g. "Europe/Brussels"
	Country  *string // alpha-2, e.g. "BE"
	Currency *string // ISO 4217, e.g. "EUR"

	Theme           string
	MarketingEmails bool

	// ProfileCompletedAt is set exactly once, when onboarding step 1 is
	// first saved. It is never reset.
	ProfileCompletedAt *time.Time

	// Tenant membership. TenantID nil means "no workspace yet". IsActive is
	// the membership standing, distinct from Account.IsActive;
	// TenantRevokedAt is non-nil only while revoked.
	TenantID        *string
	Role            string
	TenantJoinedAt  *time.Time
	TenantRevokedAt *time.Time
	IsActive        bool

	CreatedAt time.Time
	CreatedBy *string
	UpdatedAt time.Time
	UpdatedBy *string
	DeletedAt *time.Time
	DeletedBy *string
}

// InTenant reports whether the profile belongs to the given tenant.
func (p *Profile) InTenant(tenantID string) bool {
	return p.TenantID != nil && *p.TenantID == tenantID
}

// NewAccount builds an account with a fresh ID. An empty credentialHash
// creates the unusable-credential state used for invited accounts.
func NewAccount(email, credentialHash string) *Account {
	return &Account{
		ID:             uuid.NewString(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		CredentialHash: credentialHash,
		IsActive:       true,
	}
}

// NewProfileFor builds the profile that accompanies a new account. Every
// account gets exactly one, created in the same atomic operation.
func NewProfileFor(account *Account) *Profile {
	name := DeriveDisplayName(account.Email)
	return &Profile{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		DisplayName: &name,
		Theme:       ThemeSystem,
		Role:        RoleMember,
		IsActive:    true,
	}
}

// DeriveDisplayName derives a friendly display name from an email address:
// the local-part up to the first dot, capitalized.
//
//	peter.janssens@acme.com → "Peter"
//	alice@example.com       → "Alice"
func DeriveDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local, _, _ = strings.Cut(local, ".")
	if local == "" {
		return ""
	}
	runes := []rune(local)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// Create persists the account and its profile in a single atomic
	// operation, enforcing the one-profile-per-account invariant by
	// construction.
	Create(ctx context.Context, account *Account, profile *Profile) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// UpdateCredential replaces the credential hash.
	UpdateCredential(ctx context.Context, accountID, credentialHash string) error

	// Update updates mutable account fields.
	Update(ctx context.Context, account *Account) error
}

// ProfileRepository defines the interface for profile persistence.
type ProfileRepository interface {
	// GetByID retrieves a profile by its own ID.
	GetByID(ctx context.Context, id string) (*Profile, error)

	// GetByAccount retrieves the profile owned by an account.
	GetByAccount(ctx context.Context, accountID string) (*Profile, error)

	// Update persists the profile's mutable fields.
	Update(ctx context.Context, profile *Profile) error

	// ListByTenant returns all profiles in a tenant, active and revoked,
	// ordered by account email.
	ListByTenant(ctx context.Context, tenantID string) ([]*Profile, error)
}

// LocaleLookup is the slice of the reference-data repository the identity
// service needs for registration hint pre-fill.
type LocaleLookup interface {
	TimezoneByName(ctx context.Context, name string) (*refdata.Timezone, error)
	LanguageByCode(ctx context.Context, code string) (*refdata.Language, error)
}
