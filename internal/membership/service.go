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

// Package membership enforces the tenant-membership lifecycle: workspace
// creation, invitation, revocation, re-engagement and role changes.
//
// Every operation re-reads the profiles involved and validates its
// preconditions against that fresh state immediately before the single-row
// write. This is optimistic last-write-wins; admin actions are low-frequency.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crewbase/crewbase/internal/audit"
	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/observability/logger"
	"github.com/crewbase/crewbase/internal/tenant"
)

// Domain errors. Cross-tenant operations always fail loudly with
// ErrNotInTenant rather than silently no-opping, so membership status never
// leaks across tenant boundaries.
var (
	ErrNotAdmin             = errors.New("acting profile is not an admin of a tenant")
	ErrNoTenant             = errors.New("profile has no tenant")
	ErrNotInTenant          = errors.New("that member does not belong to your tenant")
	ErrAlreadyInTenant      = errors.New("profile already belongs to a workspace")
	ErrSelfAction           = errors.New("admins cannot perform this action on themselves")
	ErrInvalidRole          = errors.New("invalid role")
	ErrOrganizationRequired = errors.New("organization name is required")
)

// InviteNotifier delivers the invitation link to a freshly invited account.
// Delivery is best-effort: the membership write has already happened and a
// failed send must never roll it back.
type InviteNotifier interface {
	NotifyInvited(ctx context.Context, account *identity.Account, inviter *identity.Profile, organization string) error
}

// Service provides tenant-membership business logic
type Service struct {
	accounts    identity.AccountRepository
	profiles    identity.ProfileRepository
	tenants     tenant.Repository
	notifier    InviteNotifier // optional
	auditLogger audit.Logger
}

// NewService creates a new membership service
func NewService(
	accounts identity.AccountRepository,
	profiles identity.ProfileRepository,
	tenants tenant.Repository,
	notifier InviteNotifier,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		accounts:    accounts,
		profiles:    profiles,
		tenants:     tenants,
		notifier:    notifier,
		auditLogger: auditLogger,
	}
}

// CreateTenantFor creates a workspace and assigns the acting profile as its
// admin. This is onboarding step 2: self-service and first-time only, so
// there is deliberately no admin check.
func (s *Service) CreateTenantFor(ctx context.Context, accountID, organization string) (*tenant.Tenant, error) {
	organization = strings.TrimSpace(organization)
	if organization == "" {
		return nil, ErrOrganizationRequired
	}

	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, identity.ErrProfileNotFound
	}
	if profile.TenantID != nil {
		return nil, ErrAlreadyInTenant
	}

	t := tenant.New(organization, accountID)
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	now := time.Now()
	profile.TenantID = &t.ID
	profile.Role = identity.RoleAdmin
	profile.TenantJoinedAt = &now
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to assign tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		ActorID:  accountID,
		Resource: "tenant",
		Metadata: map[string]any{"organization": organization},
	})

	return t, nil
}

// Invite adds the account behind email to the admin's tenant as a member.
//
// When no account exists one is created with an unusable credential; the
// invitee cannot authenticate until the invite-accept flow sets a password.
// A profile that already belongs to any workspace (this one or another)
// fails with ErrAlreadyInTenant: re-adding a revoked member of the same
// tenant goes through Reengage, never through Invite.
func (s *Service) Invite(ctx context.Context, adminAccountID, email string) (*identity.Profile, error) {
	admin, err := s.requireAdmin(ctx, adminAccountID)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		// Unusable credential until the invite is accepted.
		account = identity.NewAccount(email, "")
		profile := identity.NewProfileFor(account)
		if err := s.accounts.Create(ctx, account, profile); err != nil {
			return nil, fmt.Errorf("failed to create invited account: %w", err)
		}
	}

	member, err := s.profiles.GetByAccount(ctx, account.ID)
	if err != nil {
		return nil, identity.ErrProfileNotFound
	}

	if member.TenantID != nil {
		return nil, ErrAlreadyInTenant
	}

	now := time.Now()
	member.TenantID = admin.TenantID
	member.Role = identity.RoleMember
	member.TenantJoinedAt = &now
	member.TenantRevokedAt = nil
	member.IsActive = true
	member.DeletedAt = nil
	member.DeletedBy = nil
	if err := s.profiles.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to attach member: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberInvited,
		TenantID: *admin.TenantID,
		ActorID:  adminAccountID,
		Resource: "profile",
		Metadata: map[string]any{audit.AttrEmail: email, audit.AttrTarget: member.ID},
	})

	s.notifyInvited(ctx, account, admin)

	return member, nil
}

// notifyInvited sends the invitation email. Failures are logged and
// absorbed because the invite itself has already succeeded.
func (s *Service) notifyInvited(ctx context.Context, account *identity.Account, admin *identity.Profile) {
	if s.notifier == nil {
		return
	}

	organization := ""
	if t, err := s.tenants.GetByID(ctx, *admin.TenantID); err == nil {
		organization = t.Organization
	}

	if err := s.notifier.NotifyInvited(ctx, account, admin, organization); err != nil {
		slog.WarnContext(ctx, "invite notification failed",
			logger.Email(account.Email),
			logger.Error(err),
		)
	}
}

// Revoke disables a member's standing in the admin's tenant. The tenant
// reference is retained so the member can be re-engaged later.
func (s *Service) Revoke(ctx context.Context, adminAccountID, targetProfileID string) error {
	if err := s.revoke(ctx, adminAccountID, targetProfileID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberRevoked,
		ActorID:  adminAccountID,
		Resource: "profile",
		Metadata: map[string]any{audit.AttrTarget: targetProfileID},
	})
	return nil
}

// Deactivate is Revoke under the label the settings UI uses. Both entry
// points share one transition so they cannot drift apart.
func (s *Service) Deactivate(ctx context.Context, adminAccountID, targetProfileID string) error {
	if err := s.revoke(ctx, adminAccountID, targetProfileID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberDeactivated,
		ActorID:  adminAccountID,
		Resource: "profile",
		Metadata: map[string]any{audit.AttrTarget: targetProfileID},
	})
	return nil
}

func (s *Service) revoke(ctx context.Context, adminAccountID, targetProfileID string) error {
	admin, err := s.requireAdmin(ctx, adminAccountID)
	if err != nil {
		return err
	}

	target, err := s.sameTenantTarget(ctx, admin, targetProfileID)
	if err != nil {
		return err
	}
	if target.ID == admin.ID {
		return ErrSelfAction
	}

	now := time.Now()
	target.IsActive = false
	target.TenantRevokedAt = &now
	target.DeletedBy = &adminAccountID
	if err := s.profiles.Update(ctx, target); err != nil {
		return fmt.Errorf("failed to revoke member: %w", err)
	}
	return nil
}

// Reengage restores a previously revoked member to active standing.
func (s *Service) Reengage(ctx context.Context, adminAccountID, targetProfileID string) error {
	admin, err := s.requireAdmin(ctx, adminAccountID)
	if err != nil {
		return err
	}

	target, err := s.sameTenantTarget(ctx, admin, targetProfileID)
	if err != nil {
		return err
	}

	target.IsActive = true
	target.TenantRevokedAt = nil
	target.DeletedAt = nil
	target.DeletedBy = nil
	if err := s.profiles.Update(ctx, target); err != nil {
		return fmt.Errorf("failed to re-engage member: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberReengaged,
		TenantID: *admin.TenantID,
		ActorID:  adminAccountID,
		Resource: "profile",
		Metadata: map[string]any{audit.AttrTarget: targetProfileID},
	})
	return nil
}

// SetRole sets a member's role to admin or member.
//
// Self-demotion is blocked (a tenant must keep the acting admin); setting
// the role a member already has is an idempotent no-op with no write.
func (s *Service) SetRole(ctx context.Context, adminAccountID, targetProfileID, role string) error {
	if !identity.ValidRole(role) {
		return ErrInvalidRole
	}

	admin, err := s.requireAdmin(ctx, adminAccountID)
	if err != nil {
		return err
	}

	target, err := s.sameTenantTarget(ctx, admin, targetProfileID)
	if err != nil {
		return err
	}
	if target.ID == admin.ID && role == identity.RoleMember {
		return ErrSelfAction
	}
	if target.Role == role {
		return nil // already the requested role
	}

	target.Role = role
	target.UpdatedBy = &adminAccountID
	if err := s.profiles.Update(ctx, target); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleChanged,
		TenantID: *admin.TenantID,
		ActorID:  adminAccountID,
		Resource: "profile",
		Metadata: map[string]any{audit.AttrTarget: targetProfileID, audit.AttrRole: role},
	})
	return nil
}

// PromoteToAdmin promotes a member to the admin role. Promoting an admin
// (including yourself) is a no-op.
func (s *Service) PromoteToAdmin(ctx context.Context, adminAccountID, targetProfileID string) error {
	return s.SetRole(ctx, adminAccountID, targetProfileID, identity.RoleAdmin)
}

// ListMembers returns every profile in the admin's tenant, active and
// revoked.
func (s *Service) ListMembers(ctx context.Context, adminAccountID string) ([]*identity.Profile, error) {
	admin, err := s.requireAdmin(ctx, adminAccountID)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListByTenant(ctx, *admin.TenantID)
}

// requireAdmin loads the acting profile and checks it is an active admin of
// a tenant.
func (s *Service) requireAdmin(ctx context.Context, accountID string) (*identity.Profile, error) {
	profile, err := s.profiles.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, identity.ErrProfileNotFound
	}
	if profile.TenantID == nil {
		return nil, ErrNoTenant
	}
	if profile.Role != identity.RoleAdmin || !profile.IsActive {
		return nil, ErrNotAdmin
	}
	return profile, nil
}

// sameTenantTarget loads the target profile and checks it belongs to the
// admin's tenant, revoked members included.
func (s *Service) sameTenantTarget(ctx context.Context, admin *identity.Profile, targetProfileID string) (*identity.Profile, error) {
	target, err := s.profiles.GetByID(ctx, targetProfileID)
	if err != nil {
		return nil, ErrNotInTenant
	}
	if !target.InTenant(*admin.TenantID) {
		return nil, ErrNotInTenant
	}
	return target, nil
}
