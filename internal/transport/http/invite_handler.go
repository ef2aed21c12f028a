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

	"github.com/go-chi/chi/v5"

	"github.com/crewbase/crewbase/internal/audit"
	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/invite"
	"github.com/crewbase/crewbase/internal/observability/logger"
)

// resolveInvite distinguishes three cases without leaking account state to
// holders of stale links: a valid pending invite, a link already consumed
// (the account has a usable credential, so the token no longer verifies but
// the uid resolves), and garbage.
func (h *Handler) resolveInvite(r *http.Request) (*identity.Account, bool, error) {
	uid := chi.URLParam(r, "uid")
	token := chi.URLParam(r, "token")

	account, err := h.inviteService.Resolve(r.Context(), uid, token)
	if err == nil {
		return account, false, nil
	}

	// The token is bound to the credential hash, so an accepted invite
	// fails verification. Check whether that is what happened.
	if accountID, decodeErr := invite.DecodeUID(uid); decodeErr == nil {
		if existing, getErr := h.identityService.GetAccount(r.Context(), accountID); getErr == nil && existing.HasUsableCredential() {
			return existing, true, nil
		}
	}

	return nil, false, err
}

// ValidateInvite reports whether an invitation link is still usable
func (h *Handler) ValidateInvite(w http.ResponseWriter, r *http.Request) {
	account, accepted, err := h.resolveInvite(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid or expired invitation")
		return
	}

	if accepted {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "already_accepted",
			"email":  account.Email,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "pending",
		"email":  account.Email,
	})
}

// AcceptInviteRequest sets the invited account's first password
type AcceptInviteRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// AcceptInvite consumes an invitation: it sets the account's password
// (which invalidates the link) and logs the member in.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	account, accepted, err := h.resolveInvite(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid or expired invitation")
		return
	}
	if accepted {
		// Idempotent outcome: the invite was already consumed.
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "already_accepted",
			"email":  account.Email,
		})
		return
	}

	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PasswordConfirm != "" && req.Password != req.PasswordConfirm {
		respondError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	if err := h.identityService.SetPassword(r.Context(), account.ID, req.Password); err != nil {
		if errors.Is(err, identity.ErrWeakPassword) {
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to set password")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeInviteAccepted,
		ActorID:   account.ID,
		Resource:  "account",
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Metadata:  map[string]any{audit.AttrEmail: account.Email},
	})

	sess, err := h.sessionService.Create(r.Context(), account.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.setSessionCookie(w, sess.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "accepted",
		"account_id": account.ID,
		"email":      account.Email,
	})
}
