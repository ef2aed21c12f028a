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
	"log/slog"
	"net/http"

	"github.com/crewbase/crewbase/internal/observability/logger"
)

// ListCountries returns the country catalog
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.refdata.Countries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list countries", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load countries")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"countries": countries})
}

// ListLanguages returns the language catalog
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.refdata.Languages(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list languages", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load languages")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"languages": languages})
}

// ListTimezones returns the timezone catalog ordered by UTC offset
func (h *Handler) ListTimezones(w http.ResponseWriter, r *http.Request) {
	timezones, err := h.refdata.Timezones(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list timezones", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load timezones")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"timezones": timezones})
}

// ListCurrencies returns the currency catalog
func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.refdata.Currencies(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list currencies", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load currencies")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"currencies": currencies})
}
