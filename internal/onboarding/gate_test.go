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

package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crewbase/crewbase/internal/identity"
)

func completeProfile() *identity.Profile {
	now := time.Now()
	tenantID := "tenant-1"
	return &identity.Profile{
		ID:                 "profile-1",
		AccountID:          "account-1",
		ProfileCompletedAt: &now,
		TenantID:           &tenantID,
		Role:               identity.RoleMember,
		IsActive:           true,
	}
}

func TestGate_Ordering(t *testing.T) {
	gate := NewGate(nil)

	t.Run("fresh profile hits the profile step first", func(t *testing.T) {
		p := completeProfile()
		p.ProfileCompletedAt = nil
		p.TenantID = nil
		p.IsActive = false

		d := gate.Decide(p, State{}, "/dashboard")
		assert.False(t, d.Allowed)
		assert.Equal(t, "/onboarding/profile?next=%2Fdashboard", d.Location)
	})

	t.Run("profile done, no tenant", func(t *testing.T) {
		p := completeProfile()
		p.TenantID = nil
		p.IsActive = false

		d := gate.Decide(p, State{}, "/dashboard")
		assert.Equal(t, "/onboarding/tenant?next=%2Fdashboard", d.Location)
	})

	t.Run("revoked is checked last and carries no next", func(t *testing.T) {
		p := completeProfile()
		p.IsActive = false

		d := gate.Decide(p, State{}, "/dashboard")
		assert.Equal(t, PathRevoked, d.Location)
	})

	t.Run("fully onboarded passes", func(t *testing.T) {
		d := gate.Decide(completeProfile(), State{}, "/dashboard")
		assert.True(t, d.Allowed)
	})
}

func TestGate_SkipFlagOnlyAffectsProfileStep(t *testing.T) {
	gate := NewGate(nil)

	p := completeProfile()
	p.ProfileCompletedAt = nil
	p.TenantID = nil

	// Skipping the profile step forwards straight to the tenant step.
	d := gate.Decide(p, State{SkipProfileGate: true}, "/dashboard")
	assert.Equal(t, "/onboarding/tenant?next=%2Fdashboard", d.Location)

	// The flag never rescues a revoked profile.
	p = completeProfile()
	p.IsActive = false
	d = gate.Decide(p, State{SkipProfileGate: true}, "/dashboard")
	assert.Equal(t, PathRevoked, d.Location)
}

func TestGate_ExemptPaths(t *testing.T) {
	gate := NewGate([]string{"/webhooks/"})

	p := completeProfile()
	p.ProfileCompletedAt = nil

	exempt := []string{
		PathProfileStep,
		PathTenantStep,
		PathRevoked,
		"/onboarding/skip",
		"/auth/logout",
		"/theme",
		"/health",
		"/refdata/timezones",
		"/invite/accept/abc/def",
		"/admin/anything",
		"/webhooks/stripe",
	}
	for _, path := range exempt {
		assert.True(t, gate.Decide(p, State{}, path).Allowed, path)
	}

	assert.False(t, gate.Decide(p, State{}, "/dashboard").Allowed)
}

func TestGate_DecideIsPure(t *testing.T) {
	gate := NewGate(nil)

	p := completeProfile()
	p.ProfileCompletedAt = nil
	before := *p

	first := gate.Decide(p, State{}, "/reports")
	second := gate.Decide(p, State{}, "/reports")

	assert.Equal(t, first, second)
	assert.Equal(t, before, *p)
}

func TestGate_RootPathOmitsNext(t *testing.T) {
	gate := NewGate(nil)

	p := completeProfile()
	p.ProfileCompletedAt = nil

	d := gate.Decide(p, State{}, "/")
	assert.Equal(t, PathProfileStep, d.Location)
}
