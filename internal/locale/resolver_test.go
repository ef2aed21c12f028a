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

package locale

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crewbase/crewbase/internal/identity"
	"github.com/crewbase/crewbase/internal/refdata"
)

type memoryCatalog struct {
	timezones map[string]*refdata.Timezone
	countries map[string]*refdata.Country
	tzLinks   map[string][]*refdata.Country
}

func newMemoryCatalog() *memoryCatalog {
	be := &refdata.Country{Code: "BE", Name: "Belgium"}
	gb := &refdata.Country{Code: "GB", Name: "United Kingdom"}
	lu := &refdata.Country{Code: "LU", Name: "Luxembourg"}
	de := &refdata.Country{Code: "DE", Name: "Germany"}
	return &memoryCatalog{
		timezones: map[string]*refdata.Timezone{
			"Europe/Brussels": {Name: "Europe/Brussels"},
			"Europe/Berlin":   {Name: "Europe/Berlin"},
			"Europe/London":   {Name: "Europe/London"},
		},
		countries: map[string]*refdata.Country{"BE": be, "GB": gb, "LU": lu, "DE": de},
		tzLinks: map[string][]*refdata.Country{
			"Europe/Brussels": {be, lu},
			"Europe/Berlin":   {de},
		},
	}
}

func (c *memoryCatalog) TimezoneByName(_ context.Context, name string) (*refdata.Timezone, error) {
	tz, ok := c.timezones[name]
	if !ok {
		return nil, refdata.ErrNotFound
	}
	return tz, nil
}

func (c *memoryCatalog) CountryByCode(_ context.Context, code string) (*refdata.Country, error) {
	country, ok := c.countries[code]
	if !ok {
		return nil, refdata.ErrNotFound
	}
	return country, nil
}

func (c *memoryCatalog) CountriesForTimezone(_ context.Context, name string) ([]*refdata.Country, error) {
	return c.tzLinks[name], nil
}

func strptr(s string) *string { return &s }

func TestSuggest_ProfileValuesAlwaysWin(t *testing.T) {
	r := NewResolver(newMemoryCatalog(), nil)

	profile := &identity.Profile{
		Timezone: strptr("Europe/Berlin"),
		Country:  strptr("DE"),
	}
	s := r.Suggest(context.Background(), profile, Hints{Timezone: "Europe/Brussels", Country: "BE"}, "")

	assert.Equal(t, "Europe/Berlin", s.Timezone)
	assert.Equal(t, "DE", s.Country)
}

func TestSuggest_BrowserHintsOverrideGeo(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"success","countryCode":"GB","timezone":"Europe/London"}`))
	}))
	defer geoSrv.Close()

	r := NewResolver(newMemoryCatalog(), NewGeoClient(geoSrv.URL, time.Second))

	s := r.Suggest(context.Background(), &identity.Profile{}, Hints{Timezone: "Europe/Brussels", Country: "be"}, "203.0.113.10")
	assert.Equal(t, "Europe/Brussels", s.Timezone)
	assert.Equal(t, "BE", s.Country)
}

func TestSuggest_GeoFillsWhenNoHints(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"success","countryCode":"GB","timezone":"Europe/London"}`))
	}))
	defer geoSrv.Close()

	r := NewResolver(newMemoryCatalog(), NewGeoClient(geoSrv.URL, time.Second))

	s := r.Suggest(context.Background(), &identity.Profile{}, Hints{}, "203.0.113.10")
	assert.Equal(t, "Europe/London", s.Timezone)
	assert.Equal(t, "GB", s.Country)
}

func TestSuggest_UnknownValuesAreDropped(t *testing.T) {
	r := NewResolver(newMemoryCatalog(), nil)

	s := r.Suggest(context.Background(), &identity.Profile{}, Hints{Timezone: "Mars/Olympus", Country: "XX"}, "")
	assert.Empty(t, s.Timezone)
	assert.Empty(t, s.Country)
}

func TestSuggest_CountryInferredFromTimezoneHint(t *testing.T) {
	r := NewResolver(newMemoryCatalog(), nil)

	// navigator.language carried no region subtag; the tz hint decides.
	s := r.Suggest(context.Background(), &identity.Profile{}, Hints{Timezone: "Europe/Brussels"}, "")
	assert.Equal(t, "Europe/Brussels", s.Timezone)
	assert.Equal(t, "BE", s.Country)
}

func TestCountryForTimezone(t *testing.T) {
	r := NewResolver(newMemoryCatalog(), nil)
	ctx := context.Background()

	// Ambiguous zones use the preference table, not the catalog links.
	assert.Equal(t, "BE", r.CountryForTimezone(ctx, "Europe/Brussels"))
	assert.Equal(t, "GB", r.CountryForTimezone(ctx, "Europe/London"))
	assert.Equal(t, "JP", r.CountryForTimezone(ctx, "Asia/Tokyo"))

	// Unambiguous zones fall back to the first linked country.
	assert.Equal(t, "DE", r.CountryForTimezone(ctx, "Europe/Berlin"))

	assert.Empty(t, r.CountryForTimezone(ctx, ""))
	assert.Empty(t, r.CountryForTimezone(ctx, "Mars/Olympus"))
}

func TestGeoClient_SkipsPrivateAddresses(t *testing.T) {
	called := false
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer geoSrv.Close()

	client := NewGeoClient(geoSrv.URL, time.Second)
	for _, ip := range []string{"", "127.0.0.1", "::1", "10.1.2.3", "192.168.1.1", "172.20.0.5", "localhost", "not-an-ip"} {
		assert.Equal(t, GeoResult{}, client.Lookup(context.Background(), ip), ip)
	}
	assert.False(t, called)
}

func TestGeoClient_FailureDegradesToZeroValue(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"api failure status": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		},
		"malformed body": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{{{`))
		},
		"slow upstream": func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"status":"success","countryCode":"BE"}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			client := NewGeoClient(srv.URL, 50*time.Millisecond)
			assert.Equal(t, GeoResult{}, client.Lookup(context.Background(), "203.0.113.10"))
		})
	}
}

func TestGeoClient_MapsCountryToLanguage(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/203.0.113.10"))
		w.Write([]byte(`{"status":"success","countryCode":"BE","timezone":"Europe/Brussels"}`))
	}))
	defer geoSrv.Close()

	got := NewGeoClient(geoSrv.URL, time.Second).Lookup(context.Background(), "203.0.113.10")
	assert.Equal(t, GeoResult{Timezone: "Europe/Brussels", Country: "BE", Language: "nl-BE"}, got)
}

func TestLocaleCodeFor(t *testing.T) {
	assert.Equal(t, "nl-be", LocaleCodeFor(Name{Raw: "nl"}))
	assert.Equal(t, "fr-be", LocaleCodeFor(Name{Ref: &refdata.Language{Code: "fr"}}))
	assert.Equal(t, "en", LocaleCodeFor(Name{Raw: "de"}))
	assert.Equal(t, "en", LocaleCodeFor(Name{}))
}

func TestOrgSuggestionFromEmail(t *testing.T) {
	cases := map[string]string{
		"peter@acme.com":          "Acme",
		"info@my-company.co.uk":   "My Company",
		"sales@data_works.com.au": "Data Works",
		"root@localhost":          "Localhost",
		"noatsign":                "",
		"trailing@":               "",
	}
	for email, want := range cases {
		assert.Equal(t, want, OrgSuggestionFromEmail(email), email)
	}
}
