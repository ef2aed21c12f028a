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

// Package locale suggests timezone, country and language defaults for a
// profile by layering signal sources: saved profile values always win, then
// browser hints captured at registration, then IP geolocation. Suggestions
// are advisory; nothing here ever writes to a profile.
package locale

import (
	"context"
	"strings"

	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/refdata"
)

// tzCountryPreference picks a country for IANA zones legally shared between
// countries but named after a city in one of them. Derived from tzdata
// zone1970.tab.
var tzCountryPreference = map[string]string{
	"Europe/Brussels":   "BE", // covers BE, LU, NL
	"Europe/London":     "GB", // covers GB + Crown Dependencies
	"Pacific/Pago_Pago": "AS", // covers AS + UM
	"America/Phoenix":   "US", // covers US + part of CA
	"America/Toronto":   "CA", // covers CA + BS
	"Asia/Tokyo":        "JP",
}

// Catalog is the slice of the reference-data repository the resolver needs.
type Catalog interface {
	TimezoneByName(ctx context.Context, name string) (*refdata.Timezone, error)
	CountryByCode(ctx context.Context, code string) (*refdata.Country, error)
	CountriesForTimezone(ctx context.Context, name string) ([]*refdata.Country, error)
}

// Hints are the browser signals stored in the session at registration.
type Hints struct {
	Timezone string // IANA name from Intl.DateTimeFormat
	Country  string // region subtag of navigator.language, e.g. "BE"
}

// Suggestions are the resolved defaults for onboarding step 1. Empty string
// means no source produced a usable value.
type Suggestions struct {
	Timezone string `json:"timezone"`
	Country  string `json:"country"`
}

// Resolver layers the locale signal sources. geo may be nil to disable IP
// lookups entirely.
type Resolver struct {
	catalog Catalog
	geo     *GeoClient
}

// NewResolver creates a resolver over the reference catalog.
func NewResolver(catalog Catalog, geo *GeoClient) *Resolver {
	return &Resolver{catalog: catalog, geo: geo}
}

// Suggest resolves timezone and country defaults for the profile.
//
// A value already saved on the profile is returned as-is and no source may
// displace it. For unset fields the layering is geo (lowest), then browser
// hints; when the country is still unknown it is inferred from whichever
// timezone signal is strongest. Every candidate is validated against the
// catalog before it is suggested.
func (r *Resolver) Suggest(ctx context.Context, profile *identity.Profile, hints Hints, ip string) Suggestions {
	var s Suggestions
	if profile.Timezone != nil {
		s.Timezone = *profile.Timezone
	}
	if profile.Country != nil {
		s.Country = *profile.Country
	}

	var geo GeoResult
	if r.geo != nil && (s.Timezone == "" || s.Country == "") {
		geo = r.geo.Lookup(ctx, ip)
	}

	if s.Timezone == "" {
		if tz := r.knownTimezone(ctx, geo.Timezone); tz != "" {
			s.Timezone = tz
		}
		if tz := r.knownTimezone(ctx, hints.Timezone); tz != "" {
			s.Timezone = tz
		}
	}

	if s.Country == "" {
		if cc := r.knownCountry(ctx, geo.Country); cc != "" {
			s.Country = cc
		}
		if cc := r.knownCountry(ctx, hints.Country); cc != "" {
			s.Country = cc
		}
	}

	// Last resort: infer the country from the timezone signal when the
	// browser locale carried no region subtag.
	if s.Country == "" && profile.Country == nil {
		tzName := hints.Timezone
		if tzName == "" {
			tzName = geo.Timezone
		}
		if cc := r.CountryForTimezone(ctx, tzName); cc != "" {
			s.Country = r.knownCountry(ctx, cc)
		}
	}

	return s
}

// CountryForTimezone best-guesses an alpha-2 country code for an IANA zone:
// the preference table first, then the zone's first linked country ordered
// by code. Empty when nothing can be inferred.
func (r *Resolver) CountryForTimezone(ctx context.Context, tzName string) string {
	if tzName == "" {
		return ""
	}
	if preferred, ok := tzCountryPreference[tzName]; ok {
		return preferred
	}

	countries, err := r.catalog.CountriesForTimezone(ctx, tzName)
	if err != nil || len(countries) == 0 {
		return ""
	}
	return countries[0].Code
}

// knownTimezone returns the catalog name for tzName, or "".
func (r *Resolver) knownTimezone(ctx context.Context, tzName string) string {
	if tzName == "" {
		return ""
	}
	tz, err := r.catalog.TimezoneByName(ctx, tzName)
	if err != nil || tz == nil {
		return ""
	}
	return tz.Name
}

// knownCountry returns the catalog code for code (case-insensitive), or "".
func (r *Resolver) knownCountry(ctx context.Context, code string) string {
	if code == "" {
		return ""
	}
	country, err := r.catalog.CountryByCode(ctx, strings.ToUpper(code))
	if err != nil || country == nil {
		return ""
	}
	return country.Code
}
