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

package invite

import (
	"context"
	"fmt"
	"strings"

	"github.com/crewbase/crewbase/internal/identity"
)

// Service builds invitation links and resolves them back to accounts.
type Service struct {
	gen      *Generator
	accounts identity.AccountRepository
	mailer   Mailer
	baseURL  string
}

// NewService creates a new invitation service. baseURL is the externally
// reachable origin the accept link is built on.
func NewService(gen *Generator, accounts identity.AccountRepository, mailer Mailer, baseURL string) *Service {
	return &Service{
		gen:      gen,
		accounts: accounts,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Issue returns the uid and token for an invitation to the account.
func (s *Service) Issue(account *identity.Account) (uid, token string) {
	return EncodeUID(account.ID), s.gen.Token(account)
}

// AcceptLink builds the full invitation URL for the account.
func (s *Service) AcceptLink(account *identity.Account) string {
	uid, token := s.Issue(account)
	return fmt.Sprintf("%s/invite/accept/%s/%s", s.baseURL, uid, token)
}

// Resolve validates an invitation and returns the invited account. Every
// failure mode maps to ErrInvalidToken.
func (s *Service) Resolve(ctx context.Context, uid, token string) (*identity.Account, error) {
	accountID, err := DecodeUID(uid)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !s.gen.Check(account, token) {
		return nil, ErrInvalidToken
	}

	return account, nil
}

// NotifyInvited sends the invitation email for a freshly attached member.
func (s *Service) NotifyInvited(ctx context.Context, account *identity.Account, inviter *identity.Profile, organization string) error {
	name := ""
	if inviter != nil && inviter.DisplayName != nil {
		name = *inviter.DisplayName
	}
	return s.mailer.SendInvite(ctx, account.Email, s.AcceptLink(account), organization, name)
}
