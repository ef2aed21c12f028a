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
	"log/slog"
)

// Mailer delivers invitation emails.
type Mailer interface {
	SendInvite(ctx context.Context, email, link, organization, inviter string) error
}

// LogMailer writes the invitation to the structured log instead of sending
// mail. It is the default until an SMTP backend is configured.
type LogMailer struct{}

func (LogMailer) SendInvite(ctx context.Context, email, link, organization, inviter string) error {
	slog.InfoContext(ctx, "invitation issued",
		slog.String("email", email),
		slog.String("link", link),
		slog.String("organization", organization),
		slog.String("inviter", inviter),
	)
	return nil
}
