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
	"strings"
	"unicode"

	"github.com/crewbase/crewbase/internal/refdata"
)

// localeCodes maps a catalog language code to the UI locale served for it.
// The product ships English plus the two Belgian locales.
var localeCodes = map[string]string{
	"nl": "nl-be",
	"fr": "fr-be",
}

// Name identifies a language either by a raw code or by a catalog entry.
// The catalog reference wins when both are set; the zero Name means "no
// language known".
type Name struct {
	Raw string
	Ref *refdata.Language
}

// Code returns the language code the Name resolves to, or "".
func (n Name) Code() string {
	if n.Ref != nil {
		return n.Ref.Code
	}
	return strings.ToLower(n.Raw)
}

// LocaleCodeFor maps a language to the UI locale to serve: "nl" → "nl-be",
// "fr" → "fr-be", anything else (the zero Name included) → "en".
func LocaleCodeFor(n Name) string {
	if code, ok := localeCodes[n.Code()]; ok {
		return code
	}
	return "en"
}

// OrgSuggestionFromEmail derives an organization-name suggestion from the
// domain of an email address:
//
//	"peter@acme.com"        → "Acme"
//	"info@my-company.co.uk" → "My Company"
func OrgSuggestionFromEmail(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return ""
	}

	// Strip the last extension, then one more for multi-part TLDs
	// (co.uk, com.au).
	stem := domain
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if i := strings.LastIndexByte(stem, '.'); i >= 0 {
		stem = stem[i+1:]
	}
	if stem == "" {
		return ""
	}

	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
