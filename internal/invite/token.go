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

// Package invite issues and validates invitation links.
//
// A token is bound to the invited account's mutable state (credential hash
// and active flag) as well as a secret and an issue timestamp. Accepting the
// invite sets a password, which changes the hash and invalidates every
// outstanding token for the account, so the token is single-use without any
// server-side token storage. Revoking the account invalidates tokens the
// same way.
package invite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crewbase/crewbase/internal/identity"
)

// ErrInvalidToken covers every validation failure: malformed uid or token,
// bad signature, expiry, and state drift since issue. Callers must not be
// able to distinguish these cases.
var ErrInvalidToken = errors.New("invalid or expired invitation")

// Generator creates and checks invitation tokens.
type Generator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGenerator creates a token generator. Tokens expire ttl after issue.
func NewGenerator(secret string, ttl time.Duration) *Generator {
	return &Generator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Token issues a token for the account's current state. The format is
// "<base36 issue timestamp>-<hex hmac-sha256>".
func (g *Generator) Token(account *identity.Account) string {
	ts := g.now().Unix()
	return fmt.Sprintf("%s-%s", strconv.FormatInt(ts, 36), g.sign(account, ts))
}

// Check reports whether token is valid for the account's current state.
func (g *Generator) Check(account *identity.Account, token string) bool {
	tsPart, mac, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}

	now := g.now()
	if ts > now.Unix() || now.Sub(time.Unix(ts, 0)) > g.ttl {
		return false
	}

	return hmac.Equal([]byte(mac), []byte(g.sign(account, ts)))
}

// sign computes the MAC over the account state the token must stay bound to.
func (g *Generator) sign(account *identity.Account, ts int64) string {
	h := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(h, "%s|%s|%t|%d", account.ID, account.CredentialHash, account.IsActive, ts)
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeUID encodes an account ID for use in an invitation URL.
func EncodeUID(accountID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(accountID))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(raw), nil
}
