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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/crewbase/crewbase/internal/audit"
	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/invite"
	"github.com/crewbase/crewbase/internal/locale"
	"github.com/crewbase/crewbase/internal/membership"
	"github.com/crewbase/crewbase/internal/onboarding"
	"github.com/crewbase/crewbase/internal/refdata"
	"github.com/crewbase/crewbase/internal/session"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService   *identity.Service
	sessionService    *session.Service
	membershipService *membership.Service
	inviteService     *invite.Service
	refdata           refdata.Repository
	resolver          *locale.Resolver
	gate              *onboarding.Gate
	auditLogger       audit.Logger
	sessionConfig     SessionConfig
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
	CookieMaxAge   int // seconds
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	membershipService *membership.Service,
	inviteService *invite.Service,
	refdataRepo refdata.Repository,
	resolver *locale.Resolver,
	gate *onboarding.Gate,
	auditLogger audit.Logger,
	sessionConfig SessionConfig,
) *Handler {
	return &Handler{
		identityService:   identityService,
		sessionService:    sessionService,
		membershipService: membershipService,
		inviteService:     inviteService,
		refdata:           refdataRepo,
		resolver:          resolver,
		gate:              gate,
		auditLogger:       auditLogger,
		sessionConfig:     sessionConfig,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// Reference data (public, read-only)
	r.Route("/refdata", func(r chi.Router) {
		r.Get("/countries", h.ListCountries)
		r.Get("/languages", h.ListLanguages)
		r.Get("/timezones", h.ListTimezones)
		r.Get("/currencies", h.ListCurrencies)
	})

	// Authentication (anonymous)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)

	// Invite acceptance (anonymous; the link is the credential)
	r.Get("/invite/accept/{uid}/{token}", h.ValidateInvite)
	r.Post("/invite/accept/{uid}/{token}", h.AcceptInvite)

	// Authenticated routes, all behind the onboarding gate. Gate-exempt
	// paths (the onboarding steps themselves, /theme, /account/revoked)
	// are exempted inside the gate, not by route layout, so the check
	// order stays in one place.
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Use(h.GateMiddleware)

		r.Get("/auth/me", h.GetCurrentAccount)

		r.Route("/onboarding", func(r chi.Router) {
			r.Get("/defaults", h.OnboardingDefaults)
			r.Post("/profile", h.CompleteProfile)
			r.Post("/profile/skip", h.SkipProfileStep)
			r.Post("/tenant", h.CreateTenant)
		})

		r.Get("/account/revoked", h.RevokedInfo)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Post("/profile/password", h.ChangePassword)
		r.Post("/theme", h.SetTheme)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/invite", h.InviteMember)
			r.Post("/{profileID}/revoke", h.RevokeMember)
			r.Post("/{profileID}/reengage", h.ReengageMember)
			r.Post("/{profileID}/deactivate", h.DeactivateMember)
			r.Put("/{profileID}/role", h.SetMemberRole)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "crewbase",
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   h.sessionConfig.CookieMaxAge,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
