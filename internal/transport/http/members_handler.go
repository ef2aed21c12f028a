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
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/membership"
)

// membershipStatus maps membership guard errors onto HTTP statuses. Every
// handler in this file funnels through it so the mapping cannot diverge.
func membershipStatus(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, membership.ErrNotAdmin), errors.Is(err, membership.ErrNoTenant):
		respondError(w, http.StatusForbidden, "admin access required")
	case errors.Is(err, membership.ErrNotInTenant):
		respondError(w, http.StatusNotFound, "member not found in your workspace")
	case errors.Is(err, membership.ErrAlreadyInTenant):
		respondError(w, http.StatusConflict, "that account already belongs to a workspace")
	case errors.Is(err, membership.ErrSelfAction):
		respondError(w, http.StatusBadRequest, "you cannot perform this action on yourself")
	case errors.Is(err, membership.ErrInvalidRole):
		respondError(w, http.StatusBadRequest, "invalid role")
	case errors.Is(err, identity.ErrProfileNotFound):
		respondError(w, http.StatusNotFound, "profile not found")
	default:
		respondError(w, http.StatusInternalServerError, "membership operation failed")
	}
}

// ListMembers returns every member of the caller's workspace, revoked
// members included.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.membershipService.ListMembers(r.Context(), GetAccountID(r.Context()))
	if err != nil {
		membershipStatus(w, err)
		return
	}

	out := make([]ProfileResponse, 0, len(members))
	for _, m := range members {
		out = append(out, profileResponse(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": out})
}

// InviteMemberRequest carries an invitation
type InviteMemberRequest struct {
	Email string `json:"email"`
}

// InviteMember adds an account to the caller's workspace and sends the
// invitation link.
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	var req InviteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	member, err := h.membershipService.Invite(r.Context(), GetAccountID(r.Context()), req.Email)
	if err != nil {
		membershipStatus(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profileResponse(member))
}

// RevokeMember disables a member's workspace standing
func (h *Handler) RevokeMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, h.membershipService.Revoke)
}

// ReengageMember restores a revoked member
func (h *Handler) ReengageMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, h.membershipService.Reengage)
}

// DeactivateMember disables a member from the settings screen
func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, h.membershipService.Deactivate)
}

func (h *Handler) memberAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, adminAccountID, targetProfileID string) error) {
	targetID := chi.URLParam(r, "profileID")
	if err := action(r.Context(), GetAccountID(r.Context()), targetID); err != nil {
		membershipStatus(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetMemberRoleRequest carries a role change
type SetMemberRoleRequest struct {
	Role string `json:"role"`
}

// SetMemberRole sets a member's role to admin or member
func (h *Handler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	var req SetMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targetID := chi.URLParam(r, "profileID")
	if err := h.membershipService.SetRole(r.Context(), GetAccountID(r.Context()), targetID, req.Role); err != nil {
		membershipStatus(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"role": req.Role})
}
