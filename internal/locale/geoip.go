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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"
)

// countryLang maps an ISO 3166-1 alpha-2 country code to the most common
// BCP-47 tag used there. Best-effort fallback; the catalog tables are
// authoritative.
var countryLang = map[string]string{
	"BE": "nl-BE",
	"NL": "nl",
	"FR": "fr",
	"DE": "de",
	"GB": "en-GB",
	"US": "en-US",
	"CA": "en-CA",
	"AU": "en-AU",
	"NZ": "en-NZ",
	"ZA": "en-ZA",
	"IN": "en-IN",
	"SG": "en-SG",
	"ES": "es",
	"MX": "es-MX",
	"AR": "es-AR",
	"CO": "es-CO",
	"PT": "pt",
	"BR": "pt-BR",
	"IT": "it",
	"PL": "pl",
	"RU": "ru",
	"CN": "zh-CN",
	"TW": "zh-TW",
	"JP": "ja",
	"KR": "ko",
	"SE": "sv",
	"NO": "nb",
	"DK": "da",
	"FI": "fi",
	"CZ": "cs",
	"SK": "sk",
	"HU": "hu",
	"RO": "ro",
	"TR": "tr",
	"IL": "he",
	"SA": "ar",
	"AE": "ar",
	"EG": "ar",
	"TH": "th",
	"VN": "vi",
	"ID": "id",
	"MY": "ms",
	"PH": "fil",
	"UA": "uk",
	"HR": "hr",
	"RS": "sr",
	"BG": "bg",
	"GR": "el",
}

// GeoResult is a best-guess locale for an IP address. Unresolvable fields
// are empty strings.
type GeoResult struct {
	Timezone string // IANA tz name, e.g. "Europe/Brussels"
	Country  string // ISO 3166-1 alpha-2, e.g. "BE"
	Language string // BCP-47 tag, e.g. "nl-BE"
}

// GeoClient resolves visitor IPs against the ip-api.com JSON endpoint.
//
// Lookups run inline during onboarding, so the timeout must stay short; any
// failure degrades to the zero GeoResult and never surfaces as an error.
type GeoClient struct {
	apiURL string
	client *http.Client
}

// NewGeoClient creates a geo client. apiURL is the endpoint base, e.g.
// "http://ip-api.com/json".
func NewGeoClient(apiURL string, timeout time.Duration) *GeoClient {
	return &GeoClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Lookup queries the geo API for ip. Private, loopback and unparsable
// addresses are skipped so local development never waits on the network.
func (c *GeoClient) Lookup(ctx context.Context, ip string) GeoResult {
	if ip == "" || isPrivateAddr(ip) {
		return GeoResult{}
	}

	url := fmt.Sprintf("%s/%s?fields=status,countryCode,timezone", c.apiURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GeoResult{}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "geo lookup failed", slog.String("ip", ip), slog.Any("error", err))
		return GeoResult{}
	}
	defer resp.Body.Close()

	var payload struct {
		Status      string `json:"status"`
		CountryCode string `json:"countryCode"`
		Timezone    string `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Status != "success" {
		return GeoResult{}
	}

	result := GeoResult{
		Timezone: payload.Timezone,
		Country:  payload.CountryCode,
	}
	if result.Country != "" {
		result.Language = countryLang[result.Country]
	}
	return result
}

func isPrivateAddr(ip string) bool {
	if ip == "localhost" {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return true
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
