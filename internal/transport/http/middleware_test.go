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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewbase/crewbase/internal/audit"
	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/onboarding"
	"github.com/crewbase/crewbase/internal/session"
)

type fakeAccountStore struct {
	accounts map[string]*identity.Account
	profiles map[string]*identity.Profile
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts: make(map[string]*identity.Account),
		profiles: make(map[string]*identity.Profile),
	}
}

func (s *fakeAccountStore) Create(_ context.Context, a *identity.Account, p *identity.Profile) error {
	s.accounts[a.ID] = a
	s.profiles[p.ID] = p
	return nil
}

func (s *fakeAccountStore) GetByID(_ context.Context, id string) (*identity.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	return a, nil
}

func (s *fakeAccountStore) GetByEmail(_ context.Context, email string) (*identity.Account, error) {
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, identity.ErrAccountNotFound
}

func (s *fakeAccountStore) UpdateCredential(_ context.Context, id, hash string) error {
	s.accounts[id].CredentialHash = hash
	return nil
}

func (s *fakeAccountStore) Update(_ context.Context, a *identity.Account) error {
	s.accounts[a.ID] = a
	return nil
}

type fakeProfileStore struct{ *fakeAccountStore }

func (s fakeProfileStore) GetByID(_ context.Context, id string) (*identity.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	return p, nil
}

func (s fakeProfileStore) GetByAccount(_ context.Context, accountID string) (*identity.Profile, error) {
	for _, p := range s.profiles {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	return nil, identity.ErrProfileNotFound
}

func (s fakeProfileStore) Update(_ context.Context, p *identity.Profile) error {
	s.profiles[p.ID] = p
	return nil
}

func (s fakeProfileStore) ListByTenant(_ context.Context, tenantID string) ([]*identity.Profile, error) {
	var out []*identity.Profile
	for _, p := range s.profiles {
		if p.InTenant(tenantID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSessionStore struct{ sessions map[string]*session.Session }

func (s *fakeSessionStore) Create(_ context.Context, sess *session.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (s *fakeSessionStore) Update(_ context.Context, sess *session.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *fakeSessionStore) DeleteByAccount(_ context.Context, accountID string) error {
	for id, sess := range s.sessions {
		if sess.AccountID == accountID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *fakeSessionStore) DeleteExpired(context.Context) error { return nil }

func gateTestHandler(t *testing.T) (*Handler, *fakeAccountStore, *session.Service) {
	t.Helper()

	store := newFakeAccountStore()
	hasher := identity.NewPasswordHasher(8*1024, 1, 1, 16, 32)
	idSvc := identity.NewService(store, fakeProfileStore{store}, nil, hasher, audit.NewSlogLogger())
	sessSvc := session.NewService(&fakeSessionStore{sessions: make(map[string]*session.Session)}, time.Hour, time.Hour)

	h := NewHandler(idSvc, sessSvc, nil, nil, nil, nil, onboarding.NewGate(nil), audit.NewSlogLogger(), SessionConfig{
		CookieName:   "crewbase_session",
		CookiePath:   "/",
		CookieMaxAge: 3600,
	})
	return h, store, sessSvc
}

func gatedRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/theme", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return h.AuthMiddleware(h.GateMiddleware(mux))
}

func TestAuthMiddleware_RejectsMissingOrUnknownSession(t *testing.T) {
	h, _, _ := gateTestHandler(t)
	router := gatedRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "crewbase_session", Value: "bogus"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateMiddleware_RedirectsThroughOnboarding(t *testing.T) {
	h, store, sessSvc := gateTestHandler(t)
	router := gatedRouter(h)
	ctx := context.Background()

	account := identity.NewAccount("gate@example.com", "hash")
	profile := identity.NewProfileFor(account)
	require.NoError(t, store.Create(ctx, account, profile))

	sess, err := sessSvc.Create(ctx, account.ID, "203.0.113.10", "test")
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: "crewbase_session", Value: sess.ID})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Fresh profile: step 1 first.
	rec := get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding/profile?next=%2Fdashboard", rec.Header().Get("Location"))

	// Exempt path passes regardless.
	assert.Equal(t, http.StatusOK, get("/theme").Code)

	// Step 1 done: step 2 next.
	now := time.Now()
	profile.ProfileCompletedAt = &now
	rec = get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding/tenant?next=%2Fdashboard", rec.Header().Get("Location"))

	// Fully onboarded: pass.
	tenantID := "tenant-1"
	profile.TenantID = &tenantID
	assert.Equal(t, http.StatusOK, get("/dashboard").Code)

	// Revoked: terminal page, no next.
	profile.IsActive = false
	rec = get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, onboarding.PathRevoked, rec.Header().Get("Location"))
}

func TestGateMiddleware_SkipFlag(t *testing.T) {
	h, store, sessSvc := gateTestHandler(t)
	router := gatedRouter(h)
	ctx := context.Background()

	account := identity.NewAccount("skip@example.com", "hash")
	profile := identity.NewProfileFor(account)
	require.NoError(t, store.Create(ctx, account, profile))

	sess, err := sessSvc.Create(ctx, account.ID, "203.0.113.10", "test")
	require.NoError(t, err)
	sess.SkipProfileGate = true
	require.NoError(t, sessSvc.Update(ctx, sess))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "crewbase_session", Value: sess.ID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/onboarding/tenant?next=%2Fdashboard", rec.Header().Get("Location"))
}
