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
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/crewbase/crewbase/internal/observability/logger"
	"github.com/crewbase/crewbase/internal/onboarding"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware validates the session cookie and adds the account ID and
// session to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := h.getSessionFromCookie(r)
		if sessionID == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		sess, err := h.sessionService.Get(r.Context(), sessionID)
		if err != nil {
			h.clearSessionCookie(w)
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		if err := h.sessionService.Touch(r.Context(), sess); err != nil {
			slog.ErrorContext(r.Context(), "failed to touch session", logger.Error(err))
		}

		ctx := context.WithValue(r.Context(), accountIDKey, sess.AccountID)
		ctx = context.WithValue(ctx, sessionKey, sess)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GateMiddleware routes requests through the onboarding gate. It performs
// exactly one profile read per request and answers redirects as 303 so the
// client re-requests the step page with GET.
//
// Runs after AuthMiddleware; a request without a session never reaches it.
func (h *Handler) GateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSession(r.Context())

		profile, err := h.identityService.GetProfile(r.Context(), sess.AccountID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}

		decision := h.gate.Decide(profile, onboarding.State{SkipProfileGate: sess.SkipProfileGate}, r.URL.Path)
		if !decision.Allowed {
			w.Header().Set("Location", decision.Location)
			respondJSON(w, http.StatusSeeOther, map[string]string{
				"redirect": decision.Location,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
