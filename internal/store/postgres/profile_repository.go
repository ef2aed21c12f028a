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

	"github.com/crewbase/crewbase/internal/identity"
)

const profileColumns = `
	id, account_id, display_name, language, timezone, country, currency,
	theme, marketing_emails, profile_completed_at,
	tenant_id, role, tenant_joined_at, tenant_revoked_at, is_active,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

// ProfileRepository implements identity.ProfileRepository
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by its own ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*identity.Profile, error) {
	return r.get(ctx, `WHERE id = $1 AND deleted_at IS NULL`, id)
}

// GetByAccount retrieves the profile owned by an account
func (r *ProfileRepository) GetByAccount(ctx context.Context, accountID string) (*identity.Profile, error) {
	return r.get(ctx, `WHERE account_id = $1 AND deleted_at IS NULL`, accountID)
}

func (r *ProfileRepository) get(ctx context.Context, where string, arg any) (*identity.Profile, error) {
	row := r.db.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles `+where, arg)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// Update persists the profile's mutable fields
func (r *ProfileRepository) Update(ctx context.Context, profile *identity.Profile) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE profiles SET
			display_name = $2, language = $3, timezone = $4, country = $5, currency = $6,
			theme = $7, marketing_emails = $8, profile_completed_at = $9,
			tenant_id = $10, role = $11, tenant_joined_at = $12, tenant_revoked_at = $13,
			is_active = $14, updated_at = NOW(), updated_by = $15,
			deleted_at = $16, deleted_by = $17
		WHERE id = $1
	`,
		profile.ID,
		profile.DisplayName, profile.Language, profile.Timezone, profile.Country, profile.Currency,
		profile.Theme, profile.MarketingEmails, profile.ProfileCompletedAt,
		profile.TenantID, profile.Role, profile.TenantJoinedAt, profile.TenantRevokedAt,
		profile.IsActive, profile.UpdatedBy,
		profile.DeletedAt, profile.DeletedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrProfileNotFound
	}
	return nil
}

// ListByTenant returns all profiles in a tenant ordered by account email,
// revoked members included.
func (r *ProfileRepository) ListByTenant(ctx context.Context, tenantID string) ([]*identity.Profile, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+qualifiedProfileColumns()+`
		FROM profiles p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.tenant_id = $1 AND p.deleted_at IS NULL
		ORDER BY a.email
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*identity.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func qualifiedProfileColumns() string {
	return `p.id, p.account_id, p.display_name, p.language, p.timezone, p.country, p.currency,
	p.theme, p.marketing_emails, p.profile_completed_at,
	p.tenant_id, p.role, p.tenant_joined_at, p.tenant_revoked_at, p.is_active,
	p.created_at, p.created_by, p.updated_at, p.updated_by, p.deleted_at, p.deleted_by`
}

func scanProfile(row pgx.Row) (*identity.Profile, error) {
	var p identity.Profile
	err := row.Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Language, &p.Timezone, &p.Country, &p.Currency,
		&p.Theme, &p.MarketingEmails, &p.ProfileCompletedAt,
		&p.TenantID, &p.Role, &p.TenantJoinedAt, &p.TenantRevokedAt, &p.IsActive,
		&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy, &p.DeletedAt, &p.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
