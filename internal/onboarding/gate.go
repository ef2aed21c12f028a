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

// Package onboarding decides, per request, whether an authenticated profile
// may reach the application or must first be routed through an onboarding
// step or the revoked-account page.
package onboarding

import (
	"net/url"
	"strings"

	"github.com/crewbase/crewbase/internal/identity"
)

// Gate destinations.
const (
	PathProfileStep = "/onboarding/profile"
	PathTenantStep  = "/onboarding/tenant"
	PathRevoked     = "/account/revoked"
)

// defaultExempt lists path prefixes the gate never intercepts: the gate's
// own destinations, authentication, and endpoints the onboarding screens
// themselves depend on.
var defaultExempt = []string{
	PathProfileStep,
	PathTenantStep,
	PathRevoked,
	"/onboarding/",
	"/auth/login",
	"/auth/register",
	"/auth/logout",
	"/password-reset",
	"/invite/accept",
	"/refdata/",
	"/theme",
	"/health",
	"/admin/",
}

// State carries the per-session flags the gate consults.
type State struct {
	// SkipProfileGate suppresses the profile step for the rest of the
	// session. It never affects the tenant step or the revoked check.
	SkipProfileGate bool
}

// Decision is the gate's verdict for one request.
type Decision struct {
	Allowed  bool
	Location string // redirect target when not allowed
}

// Gate evaluates onboarding progress. It holds no mutable state and is safe
// for concurrent use.
type Gate struct {
	exempt []string
}

// NewGate creates a gate. extraPrefixes extends the built-in exempt list
// with deployment-specific paths.
func NewGate(extraPrefixes []string) *Gate {
	exempt := make([]string, 0, len(defaultExempt)+len(extraPrefixes))
	exempt = append(exempt, defaultExempt...)
	exempt = append(exempt, extraPrefixes...)
	return &Gate{exempt: exempt}
}

// Decide evaluates the checks in a fixed order: exemption, profile step,
// tenant step, revocation. The first unmet requirement wins; a profile that
// passes all of them is let through.
//
// Decide is pure. It never mutates the profile or the session state, so
// evaluating it is idempotent and free to call on every request.
func (g *Gate) Decide(profile *identity.Profile, state State, path string) Decision {
	if g.isExempt(path) {
		return Decision{Allowed: true}
	}

	if profile.ProfileCompletedAt == nil && !state.SkipProfileGate {
		return Decision{Location: withNext(PathProfileStep, path)}
	}

	if profile.TenantID == nil {
		return Decision{Location: withNext(PathTenantStep, path)}
	}

	// Revoked standing is terminal: no next, nowhere to continue to.
	if !profile.IsActive {
		return Decision{Location: PathRevoked}
	}

	return Decision{Allowed: true}
}

func (g *Gate) isExempt(path string) bool {
	for _, prefix := range g.exempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// withNext appends the originally requested path so the client can resume
// after the step completes.
func withNext(dest, path string) string {
	if path == "" || path == "/" {
		return dest
	}
	return dest + "?next=" + url.QueryEscape(path)
}
