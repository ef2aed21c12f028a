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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crewbase/crewbase/internal/identity"
)

// AccountRepository implements identity.AccountRepository
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts the account and its profile in one transaction.
func (r *AccountRepository) Create(ctx context.Context, account *identity.Account, profile *identity.Profile) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, email, credential_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.ID, account.Email, account.CredentialHash, account.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (
			id, account_id, display_name, language, timezone, country, currency,
			theme, marketing_emails, role, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		profile.ID, profile.AccountID, profile.DisplayName,
		profile.Language, profile.Timezone, profile.Country, profile.Currency,
		profile.Theme, profile.MarketingEmails, profile.Role, profile.IsActive,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	profile.CreatedAt = now
	profile.UpdatedAt = now

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*identity.Account, error) {
	return r.get(ctx, `WHERE id = $1 AND deleted_at IS NULL`, id)
}

// GetByEmail retrieves an account by email (case-insensitive)
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return r.get(ctx, `WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`, email)
}

func (r *AccountRepository) get(ctx context.Context, where string, arg any) (*identity.Account, error) {
	var account identity.Account

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, email, credential_hash, is_active, created_at, updated_at, deleted_at, deleted_by
		FROM accounts
	`+where, arg).Scan(
		&account.ID, &account.Email, &account.CredentialHash, &account.IsActive,
		&account.CreatedAt, &account.UpdatedAt, &account.DeletedAt, &account.DeletedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// UpdateCredential replaces the credential hash
func (r *AccountRepository) UpdateCredential(ctx context.Context, accountID, credentialHash string) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE accounts SET credential_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, accountID, credentialHash)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

// Update updates mutable account fields
func (r *AccountRepository) Update(ctx context.Context, account *identity.Account) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE accounts
		SET email = $2, is_active = $3, deleted_at = $4, deleted_by = $5, updated_at = NOW()
		WHERE id = $1
	`, account.ID, account.Email, account.IsActive, account.DeletedAt, account.DeletedBy)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}
