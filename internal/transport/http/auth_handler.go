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

	"github.com/crewbase/crewbase/internal/audit"
	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/observability/logger"
	"github.com/crewbase/crewbase/internal/onboarding"
)

// RegisterRequest represents registration data. The detect fields are
// browser locale signals collected by the form, all optional.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	TzDetect        string `json:"tz_detect"`
	LangDetect      string `json:"lang_detect"`
	CountryDetect   string `json:"country_detect"`
}

// Register creates an account, logs it in and parks the browser hints in
// the session for the onboarding defaults endpoint.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PasswordConfirm != "" && req.Password != req.PasswordConfirm {
		respondError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	account, err := h.identityService.Register(r.Context(), req.Email, req.Password, identity.RegisterHints{
		Timezone: req.TzDetect,
		Language: req.LangDetect,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			respondError(w, http.StatusConflict, "an account with this email already exists")
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to register account",
				logger.Error(err),
				logger.Email(req.Email),
			)
			respondError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	sess, err := h.sessionService.Create(r.Context(), account.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	sess.TzHint = req.TzDetect
	sess.LangHint = req.LangDetect
	sess.CountryHint = req.CountryDetect
	if err := h.sessionService.Update(r.Context(), sess); err != nil {
		slog.WarnContext(r.Context(), "failed to store locale hints", logger.Error(err))
	}

	h.setSessionCookie(w, sess.ID)

	respondJSON(w, http.StatusCreated, map[string]any{
		"account_id": account.ID,
		"email":      account.Email,
		"next":       onboarding.PathProfileStep,
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and creates a session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessionService.Create(r.Context(), account.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookie(w, sess.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"email":      account.Email,
	})
}

// Logout destroys the current session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.getSessionFromCookie(r)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	sess, err := h.sessionService.Get(r.Context(), sessionID)
	if err == nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLogout,
			ActorID:   sess.AccountID,
			Resource:  "session",
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
		h.sessionService.Destroy(r.Context(), sessionID)
	}

	h.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// GetCurrentAccount returns the authenticated account and its profile
func (h *Handler) GetCurrentAccount(w http.ResponseWriter, r *http.Request) {
	accountID := GetAccountID(r.Context())

	account, err := h.identityService.GetAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}

	profile, err := h.identityService.GetProfile(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"email":      account.Email,
		"profile":    profileResponse(profile),
	})
}
