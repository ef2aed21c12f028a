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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crewbase/crewbase/internal/refdata"
)

// RefdataRepository implements refdata.Repository over the read-only
// catalog tables.
type RefdataRepository struct {
	db *DB
}

// NewRefdataRepository creates a new reference-data repository
func NewRefdataRepository(db *DB) *RefdataRepository {
	return &RefdataRepository{db: db}
}

// Countries returns all countries ordered by name
func (r *RefdataRepository) Countries(ctx context.Context) ([]*refdata.Country, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT code, code3, name, numeric_code FROM countries ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var countries []*refdata.Country
	for rows.Next() {
		var c refdata.Country
		if err := rows.Scan(&c.Code, &c.Code3, &c.Name, &c.Numeric); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, &c)
	}
	return countries, rows.Err()
}

// Languages returns all languages ordered by name
func (r *RefdataRepository) Languages(ctx context.Context) ([]*refdata.Language, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT code, name FROM languages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	defer rows.Close()

	var languages []*refdata.Language
	for rows.Next() {
		var l refdata.Language
		if err := rows.Scan(&l.Code, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, &l)
	}
	return languages, rows.Err()
}

// Timezones returns all timezones ordered by offset, then name
func (r *RefdataRepository) Timezones(ctx context.Context) ([]*refdata.Timezone, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT name, label, offset_seconds FROM timezones ORDER BY offset_seconds, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list timezones: %w", err)
	}
	defer rows.Close()

	var timezones []*refdata.Timezone
	for rows.Next() {
		var tz refdata.Timezone
		if err := rows.Scan(&tz.Name, &tz.Label, &tz.OffsetSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan timezone: %w", err)
		}
		timezones = append(timezones, &tz)
	}
	return timezones, rows.Err()
}

// Currencies returns all currencies ordered by code
func (r *RefdataRepository) Currencies(ctx context.Context) ([]*refdata.Currency, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT code, name, numeric_code FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []*refdata.Currency
	for rows.Next() {
		var c refdata.Currency
		if err := rows.Scan(&c.Code, &c.Name, &c.Numeric); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, &c)
	}
	return currencies, rows.Err()
}

// CountryByCode retrieves a country by alpha-2 code
func (r *RefdataRepository) CountryByCode(ctx context.Context, code string) (*refdata.Country, error) {
	var c refdata.Country
	err := r.db.pool.QueryRow(ctx, `
		SELECT code, code3, name, numeric_code FROM countries WHERE code = UPPER($1)
	`, code).Scan(&c.Code, &c.Code3, &c.Name, &c.Numeric)
	if err != nil {
		return nil, refdataErr(err, "country")
	}
	return &c, nil
}

// LanguageByCode retrieves a language by code
func (r *RefdataRepository) LanguageByCode(ctx context.Context, code string) (*refdata.Language, error) {
	var l refdata.Language
	err := r.db.pool.QueryRow(ctx, `
		SELECT code, name FROM languages WHERE code = LOWER($1)
	`, code).Scan(&l.Code, &l.Name)
	if err != nil {
		return nil, refdataErr(err, "language")
	}
	return &l, nil
}

// TimezoneByName retrieves a timezone by IANA name
func (r *RefdataRepository) TimezoneByName(ctx context.Context, name string) (*refdata.Timezone, error) {
	var tz refdata.Timezone
	err := r.db.pool.QueryRow(ctx, `
		SELECT name, label, offset_seconds FROM timezones WHERE name = $1
	`, name).Scan(&tz.Name, &tz.Label, &tz.OffsetSeconds)
	if err != nil {
		return nil, refdataErr(err, "timezone")
	}
	return &tz, nil
}

// CurrencyByCode retrieves a currency by ISO 4217 code
func (r *RefdataRepository) CurrencyByCode(ctx context.Context, code string) (*refdata.Currency, error) {
	var c refdata.Currency
	err := r.db.pool.QueryRow(ctx, `
		SELECT code, name, numeric_code FROM currencies WHERE code = UPPER($1)
	`, code).Scan(&c.Code, &c.Name, &c.Numeric)
	if err != nil {
		return nil, refdataErr(err, "currency")
	}
	return &c, nil
}

// CountriesForTimezone returns the countries linked to an IANA zone,
// ordered by alpha-2 code.
func (r *RefdataRepository) CountriesForTimezone(ctx context.Context, name string) ([]*refdata.Country, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT c.code, c.code3, c.name, c.numeric_code
		FROM countries c
		JOIN country_timezones ct ON ct.country_code = c.code
		WHERE ct.timezone_name = $1
		ORDER BY c.code
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries for timezone: %w", err)
	}
	defer rows.Close()

	var countries []*refdata.Country
	for rows.Next() {
		var c refdata.Country
		if err := rows.Scan(&c.Code, &c.Code3, &c.Name, &c.Numeric); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, &c)
	}
	return countries, rows.Err()
}

func refdataErr(err error, kind string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return refdata.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", kind, err)
}
