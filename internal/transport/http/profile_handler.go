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
	"net/http"
	"time"

	"github.com/crewbase/crewbase/internal/identity"
)

// ProfileResponse is the wire shape of a profile.
type ProfileResponse struct {
	ID                 string     `json:"id"`
	AccountID          string     `json:"account_id"`
	DisplayName        *string    `json:"display_name"`
	Language           *string    `json:"language"`
	Timezone           *string    `json:"timezone"`
	Country            *string    `json:"country"`
	Currency           *string    `json:"currency"`
	Theme              string     `json:"theme"`
	MarketingEmails    bool       `json:"marketing_emails"`
	ProfileCompletedAt *time.Time `json:"profile_completed_at"`
	TenantID           *string    `json:"tenant_id"`
	Role               string     `json:"role"`
	TenantJoinedAt     *time.Time `json:"tenant_joined_at"`
	TenantRevokedAt    *time.Time `json:"tenant_revoked_at"`
	IsActive           bool       `json:"is_active"`
}

func profileResponse(p *identity.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                 p.ID,
		AccountID:          p.AccountID,
		DisplayName:        p.DisplayName,
		Language:           p.Language,
		Timezone:           p.Timezone,
		Country:            p.Country,
		Currency:           p.Currency,
		Theme:              p.Theme,
		MarketingEmails:    p.MarketingEmails,
		ProfileCompletedAt: p.ProfileCompletedAt,
		TenantID:           p.TenantID,
		Role:               p.Role,
		TenantJoinedAt:     p.TenantJoinedAt,
		TenantRevokedAt:    p.TenantRevokedAt,
		IsActive:           p.IsActive,
	}
}

// GetProfile returns the authenticated account's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.identityService.GetProfile(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}
	respondJSON(w, http.StatusOK, profileResponse(profile))
}

// UpdateProfileRequest carries the editable personalization fields. Absent
// fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName     *string `json:"display_name"`
	Language        *string `json:"language"`
	Timezone        *string `json:"timezone"`
	Country         *string `json:"country"`
	Currency        *string `json:"currency"`
	MarketingEmails *bool   `json:"marketing_emails"`
}

// UpdateProfile updates personalization preferences
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.identityService.UpdateProfileSettings(r.Context(), GetAccountID(r.Context()), identity.ProfileSettings{
		DisplayName:     req.DisplayName,
		Language:        req.Language,
		Timezone:        req.Timezone,
		Country:         req.Country,
		Currency:        req.Currency,
		MarketingEmails: req.MarketingEmails,
	})
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			respondError(w, http.StatusNotFound, "profile not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, profileResponse(profile))
}

// ChangePasswordRequest carries a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword replaces the account credential and ends every other
// session the account holds.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accountID := GetAccountID(r.Context())
	if err := h.identityService.ChangePassword(r.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusForbidden, "current password is incorrect")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			respondError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	// Force re-login everywhere else; keep this session alive.
	sess := GetSession(r.Context())
	if err := h.sessionService.DestroyAllForAccount(r.Context(), accountID); err == nil {
		fresh, err := h.sessionService.Create(r.Context(), accountID, getIPAddress(r), r.UserAgent())
		if err == nil {
			fresh.SkipProfileGate = sess.SkipProfileGate
			h.sessionService.Update(r.Context(), fresh)
			h.setSessionCookie(w, fresh.ID)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed",
	})
}

// ThemeRequest carries a theme selection
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// SetTheme saves the UI theme preference
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.identityService.SetTheme(r.Context(), GetAccountID(r.Context()), req.Theme); err != nil {
		if errors.Is(err, identity.ErrInvalidTheme) {
			respondError(w, http.StatusBadRequest, "invalid theme")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to set theme")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"theme": req.Theme,
	})
}
