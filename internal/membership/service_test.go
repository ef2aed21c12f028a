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

package membership

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewbase/crewbase/internal/audit"
	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/tenant"
)

type memoryStore struct {
	accounts map[string]*identity.Account
	profiles map[string]*identity.Profile
	tenants  map[string]*tenant.Tenant
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[string]*identity.Account),
		profiles: make(map[string]*identity.Profile),
		tenants:  make(map[string]*tenant.Tenant),
	}
}

func (s *memoryStore) Create(_ context.Context, account *identity.Account, profile *identity.Profile) error {
	s.accounts[account.ID] = account
	s.profiles[profile.ID] = profile
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*identity.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	return account, nil
}

func (s *memoryStore) GetByEmail(_ context.Context, email string) (*identity.Account, error) {
	for _, account := range s.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, identity.ErrAccountNotFound
}

func (s *memoryStore) UpdateCredential(_ context.Context, accountID, credentialHash string) error {
	s.accounts[accountID].CredentialHash = credentialHash
	return nil
}

func (s *memoryStore) Update(_ context.Context, account *identity.Account) error {
	s.accounts[account.ID] = account
	return nil
}

type memoryProfileRepo struct{ store *memoryStore }

func (r *memoryProfileRepo) GetByID(_ context.Context, id string) (*identity.Profile, error) {
	profile, ok := r.store.profiles[id]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	return profile, nil
}

func (r *memoryProfileRepo) GetByAccount(_ context.Context, accountID string) (*identity.Profile, error) {
	for _, profile := range r.store.profiles {
		if profile.AccountID == accountID {
			return profile, nil
		}
	}
	return nil, identity.ErrProfileNotFound
}

func (r *memoryProfileRepo) Update(_ context.Context, profile *identity.Profile) error {
	r.store.profiles[profile.ID] = profile
	return nil
}

func (r *memoryProfileRepo) ListByTenant(_ context.Context, tenantID string) ([]*identity.Profile, error) {
	var out []*identity.Profile
	for _, profile := range r.store.profiles {
		if profile.InTenant(tenantID) {
			out = append(out, profile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryTenantRepo struct{ store *memoryStore }

func (r *memoryTenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.store.tenants[t.ID] = t
	return nil
}

func (r *memoryTenantRepo) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	t, ok := r.store.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (r *memoryTenantRepo) Update(_ context.Context, t *tenant.Tenant) error {
	r.store.tenants[t.ID] = t
	return nil
}

func (r *memoryTenantRepo) List(_ context.Context, _, _ int) ([]*tenant.Tenant, error) {
	var out []*tenant.Tenant
	for _, t := range r.store.tenants {
		out = append(out, t)
	}
	return out, nil
}

type captureNotifier struct {
	emails []string
	fail   error
}

func (n *captureNotifier) NotifyInvited(_ context.Context, account *identity.Account, _ *identity.Profile, _ string) error {
	if n.fail != nil {
		return n.fail
	}
	n.emails = append(n.emails, account.Email)
	return nil
}

type noopAudit struct{}

func (noopAudit) Log(context.Context, audit.Event) {}

type fixture struct {
	store    *memoryStore
	notifier *captureNotifier
	svc      *Service
}

func newFixture() *fixture {
	store := newMemoryStore()
	notifier := &captureNotifier{}
	svc := NewService(store, &memoryProfileRepo{store}, &memoryTenantRepo{store}, notifier, noopAudit{})
	return &fixture{store: store, notifier: notifier, svc: svc}
}

// seedAccount creates an account plus profile and returns both.
func (f *fixture) seedAccount(t *testing.T, email string) (*identity.Account, *identity.Profile) {
	t.Helper()
	account := identity.NewAccount(email, "hash")
	profile := identity.NewProfileFor(account)
	require.NoError(t, f.store.Create(context.Background(), account, profile))
	return account, profile
}

// seedAdmin creates an account that owns a fresh tenant.
func (f *fixture) seedAdmin(t *testing.T, email, organization string) (*identity.Account, *identity.Profile, *tenant.Tenant) {
	t.Helper()
	account, _ := f.seedAccount(t, email)
	created, err := f.svc.CreateTenantFor(context.Background(), account.ID, organization)
	require.NoError(t, err)
	profile, err := f.svc.profiles.GetByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	return account, profile, created
}

func TestCreateTenantFor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	account, _ := f.seedAccount(t, "founder@acme.com")

	created, err := f.svc.CreateTenantFor(ctx, account.ID, "  Acme  ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Organization)
	assert.True(t, created.IsActive)

	profile, err := f.svc.profiles.GetByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.TenantID)
	assert.Equal(t, created.ID, *profile.TenantID)
	assert.Equal(t, identity.RoleAdmin, profile.Role)
	assert.NotNil(t, profile.TenantJoinedAt)

	// Second workspace for the same profile is refused.
	_, err = f.svc.CreateTenantFor(ctx, account.ID, "Other Corp")
	assert.ErrorIs(t, err, ErrAlreadyInTenant)
}

func TestCreateTenantFor_RequiresOrganization(t *testing.T) {
	f := newFixture()
	account, _ := f.seedAccount(t, "founder@acme.com")

	_, err := f.svc.CreateTenantFor(context.Background(), account.ID, "   ")
	assert.ErrorIs(t, err, ErrOrganizationRequired)
}

func TestInvite_CreatesAccountWithUnusableCredential(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, created := f.seedAdmin(t, "founder@acme.com", "Acme")

	member, err := f.svc.Invite(ctx, admin.ID, "  New.Hire@Acme.com ")
	require.NoError(t, err)

	account, err := f.store.GetByEmail(ctx, "new.hire@acme.com")
	require.NoError(t, err)
	assert.False(t, account.HasUsableCredential())

	assert.Equal(t, created.ID, *member.TenantID)
	assert.Equal(t, identity.RoleMember, member.Role)
	assert.True(t, member.IsActive)
	assert.NotNil(t, member.TenantJoinedAt)
	assert.Equal(t, []string{"new.hire@acme.com"}, f.notifier.emails)
}

func TestInvite_AttachesExistingFreeAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, created := f.seedAdmin(t, "founder@acme.com", "Acme")
	existing, _ := f.seedAccount(t, "solo@elsewhere.com")

	member, err := f.svc.Invite(ctx, admin.ID, "solo@elsewhere.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, member.AccountID)
	assert.Equal(t, created.ID, *member.TenantID)

	// Still exactly one account for that email.
	account, err := f.store.GetByEmail(ctx, "solo@elsewhere.com")
	require.NoError(t, err)
	assert.True(t, account.HasUsableCredential())
}

func TestInvite_RejectsMemberOfAnyTenant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")
	otherAdmin, _, _ := f.seedAdmin(t, "founder@globex.com", "Globex")

	_, err := f.svc.Invite(ctx, otherAdmin.ID, "worker@globex.com")
	require.NoError(t, err)

	// Member of another tenant.
	_, err = f.svc.Invite(ctx, admin.ID, "worker@globex.com")
	assert.ErrorIs(t, err, ErrAlreadyInTenant)

	// Member of the same tenant.
	_, err = f.svc.Invite(ctx, admin.ID, "founder@acme.com")
	assert.ErrorIs(t, err, ErrAlreadyInTenant)
}

func TestInvite_RevokedMemberMustBeReengaged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")

	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, admin.ID, member.ID))

	// The tenant link is retained, so re-inviting is refused.
	_, err = f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	assert.ErrorIs(t, err, ErrAlreadyInTenant)
}

func TestInvite_NotificationFailureDoesNotRollBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")
	f.notifier.fail = errors.New("smtp down")

	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)
	assert.NotNil(t, member.TenantID)
}

func TestInvite_RequiresAdminWithTenant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	free, _ := f.seedAccount(t, "solo@example.com")
	_, err := f.svc.Invite(ctx, free.ID, "worker@acme.com")
	assert.ErrorIs(t, err, ErrNoTenant)

	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")
	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)

	memberAccount, err := f.store.GetByID(ctx, member.AccountID)
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, memberAccount.ID, "another@acme.com")
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestRevoke(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, adminProfile, created := f.seedAdmin(t, "founder@acme.com", "Acme")

	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, admin.ID, member.ID))

	got, err := f.svc.profiles.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.NotNil(t, got.TenantRevokedAt)
	require.NotNil(t, got.DeletedBy)
	assert.Equal(t, admin.ID, *got.DeletedBy)
	// Tenant link survives revocation.
	assert.Equal(t, created.ID, *got.TenantID)

	assert.ErrorIs(t, f.svc.Revoke(ctx, admin.ID, adminProfile.ID), ErrSelfAction)
}

func TestRevoke_CrossTenant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")
	otherAdmin, _, _ := f.seedAdmin(t, "founder@globex.com", "Globex")

	member, err := f.svc.Invite(ctx, otherAdmin.ID, "worker@globex.com")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Revoke(ctx, admin.ID, member.ID), ErrNotInTenant)
	assert.ErrorIs(t, f.svc.Revoke(ctx, admin.ID, "no-such-profile"), ErrNotInTenant)
}

func TestReengage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")

	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(ctx, admin.ID, member.ID))

	require.NoError(t, f.svc.Reengage(ctx, admin.ID, member.ID))

	got, err := f.svc.profiles.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.TenantRevokedAt)
	assert.Nil(t, got.DeletedBy)
	assert.Nil(t, got.DeletedAt)
}

func TestSetRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, adminProfile, _ := f.seedAdmin(t, "founder@acme.com", "Acme")

	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.SetRole(ctx, admin.ID, member.ID, identity.RoleAdmin))
	got, err := f.svc.profiles.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, got.Role)
	require.NotNil(t, got.UpdatedBy)
	assert.Equal(t, admin.ID, *got.UpdatedBy)

	// Idempotent repeat is a no-op.
	require.NoError(t, f.svc.SetRole(ctx, admin.ID, member.ID, identity.RoleAdmin))

	assert.ErrorIs(t, f.svc.SetRole(ctx, admin.ID, member.ID, "owner"), ErrInvalidRole)

	// Self-demotion is blocked, self-promotion is a no-op.
	assert.ErrorIs(t, f.svc.SetRole(ctx, admin.ID, adminProfile.ID, identity.RoleMember), ErrSelfAction)
	assert.NoError(t, f.svc.PromoteToAdmin(ctx, admin.ID, adminProfile.ID))
}

func TestListMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin, _, _ := f.seedAdmin(t, "founder@acme.com", "Acme")
	f.seedAdmin(t, "founder@globex.com", "Globex")

	member, err := f.svc.Invite(ctx, admin.ID, "worker@acme.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, admin.ID, member.ID))

	members, err := f.svc.ListMembers(ctx, admin.ID)
	require.NoError(t, err)
	// Revoked members stay on the list; the other tenant's admin does not.
	assert.Len(t, members, 2)
}
