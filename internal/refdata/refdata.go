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

// Package refdata holds the read-only reference catalogs: countries,
// languages, timezones and currencies. Rows are loaded once by an external
// import job and never mutated by the application.
package refdata

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("reference record not found")

// Country is an ISO 3166-1 country.
type Country struct {
	Code    string `json:"code"`  // alpha-2, e.g. "BE"
	Code3   string `json:"code3"` // alpha-3, e.g. "BEL"
	Name    string `json:"name"`
	Numeric string `json:"numeric,omitempty"`
}

// Language is an ISO 639 language.
type Language struct {
	Code string `json:"code"` // BCP-47 / alpha-2 or alpha-3, e.g. "nl"
	Name string `json:"name"`
}

// Timezone is an IANA timezone.
type Timezone struct {
	Name          string `json:"name"`  // e.g. "Europe/Brussels"
	Label         string `json:"label"` // e.g. "Europe/Brussels (UTC+01:00)"
	OffsetSeconds int    `json:"offset_seconds"`
}

// Currency is an ISO 4217 currency.
type Currency struct {
	Code    string `json:"code"` // e.g. "EUR"
	Name    string `json:"name"`
	Numeric string `json:"numeric,omitempty"`
}

// Repository defines read access to the reference catalogs.
type Repository interface {
	Countries(ctx context.Context) ([]*Country, error)
	Languages(ctx context.Context) ([]*Language, error)
	Timezones(ctx context.Context) ([]*Timezone, error)
	Currencies(ctx context.Context) ([]*Currency, error)

	CountryByCode(ctx context.Context, code string) (*Country, error)
	LanguageByCode(ctx context.Context, code string) (*Language, error)
	TimezoneByName(ctx context.Context, name string) (*Timezone, error)
	CurrencyByCode(ctx context.Context, code string) (*Currency, error)

	// CountriesForTimezone returns the countries sharing an IANA timezone,
	// ordered by alpha-2 code.
	CountriesForTimezone(ctx context.Context, name string) ([]*Country, error)
}
