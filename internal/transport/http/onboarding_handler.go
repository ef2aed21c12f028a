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

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/locale"
	"github.com/crewbase/crewbase/internal/membership"
	"github.com/crewbase/crewbase/internal/observability/logger"
	"github.com/crewbase/crewbase/internal/onboarding"
)

// OnboardingDefaults returns advisory pre-fill values for the onboarding
// forms: locale suggestions layered from profile, browser hints and geo IP,
// plus an organization-name suggestion derived from the email domain.
// Nothing is written; the suggestions become real only when the user saves.
func (h *Handler) OnboardingDefaults(w http.ResponseWriter, r *http.Request) {
	accountID := GetAccountID(r.Context())
	sess := GetSession(r.Context())

	profile, err := h.identityService.GetProfile(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}

	suggestions := h.resolver.Suggest(r.Context(), profile, locale.Hints{
		Timezone: sess.TzHint,
		Country:  sess.CountryHint,
	}, getIPAddress(r))

	organization := ""
	if profile.TenantID == nil && !sess.OrgSuggestionConfirmed {
		if account, err := h.identityService.GetAccount(r.Context(), accountID); err == nil {
			organization = locale.OrgSuggestionFromEmail(account.Email)
		}
	}

	// The hint banner shows until the profile has been saved once or the
	// suggestions were confirmed this session.
	showBanner := profile.ProfileCompletedAt == nil && !sess.ProfileSuggestionsConfirmed

	respondJSON(w, http.StatusOK, map[string]any{
		"display_name":     profile.DisplayName,
		"timezone":         suggestions.Timezone,
		"country":          suggestions.Country,
		"organization":     organization,
		"show_suggestions": showBanner,
	})
}

// CompleteProfileRequest is onboarding step 1
type CompleteProfileRequest struct {
	DisplayName string  `json:"display_name"`
	Timezone    *string `json:"timezone"`
	Country     *string `json:"country"`
}

// CompleteProfile saves onboarding step 1
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req CompleteProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.identityService.CompleteProfile(r.Context(), GetAccountID(r.Context()), req.DisplayName, req.Timezone, req.Country)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, "profile not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	sess := GetSession(r.Context())
	sess.ProfileSuggestionsConfirmed = true
	if err := h.sessionService.Update(r.Context(), sess); err != nil {
		slog.WarnContext(r.Context(), "failed to update session", logger.Error(err))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"profile": profileResponse(profile),
		"next":    onboarding.PathTenantStep,
	})
}

// SkipProfileStep sets the session flag that suppresses onboarding step 1
// until logout. The profile itself stays incomplete.
func (h *Handler) SkipProfileStep(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	sess.SkipProfileGate = true
	if err := h.sessionService.Update(r.Context(), sess); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"next": onboarding.PathTenantStep,
	})
}

// CreateTenantRequest is onboarding step 2
type CreateTenantRequest struct {
	Organization string `json:"organization"`
}

// CreateTenant creates the workspace and makes the caller its admin
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.membershipService.CreateTenantFor(r.Context(), GetAccountID(r.Context()), req.Organization)
	if err != nil {
		switch {
		case errors.Is(err, membership.ErrOrganizationRequired):
			respondError(w, http.StatusBadRequest, "organization name is required")
		case errors.Is(err, membership.ErrAlreadyInTenant):
			respondError(w, http.StatusConflict, "you already belong to a workspace")
		default:
			slog.ErrorContext(r.Context(), "failed to create tenant", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create workspace")
		}
		return
	}

	sess := GetSession(r.Context())
	sess.OrgSuggestionConfirmed = true
	if err := h.sessionService.Update(r.Context(), sess); err != nil {
		slog.WarnContext(r.Context(), "failed to update session", logger.Error(err))
	}

	respondJSON(w, http.StatusCreated, t)
}

// RevokedInfo is the terminal page for revoked members. It reports standing
// only; there is no action to take here.
func (h *Handler) RevokedInfo(w http.ResponseWriter, r *http.Request) {
	profile, err := h.identityService.GetProfile(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"revoked":    !profile.IsActive,
		"revoked_at": profile.TenantRevokedAt,
		"message":    "your access to this workspace was revoked; contact a workspace admin",
	})
}
