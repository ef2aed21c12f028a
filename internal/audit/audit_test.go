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

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func captureLog(t *testing.T, fn func()) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(old)

	fn()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return record
}

func TestAudit_Log_EmitsEventFields(t *testing.T) {
	l := NewSlogLogger()

	record := captureLog(t, func() {
		l.Log(context.Background(), Event{
			Type:     TypeMemberRevoked,
			TenantID: "tenant-1",
			ActorID:  "admin-1",
			Resource: "profile",
			Metadata: map[string]any{AttrTarget: "profile-2"},
		})
	})

	if record["audit_type"] != TypeMemberRevoked {
		t.Errorf("expected audit_type %q, got %v", TypeMemberRevoked, record["audit_type"])
	}
	if record["tenant_id"] != "tenant-1" {
		t.Errorf("expected tenant_id tenant-1, got %v", record["tenant_id"])
	}
	meta, ok := record["metadata"].(map[string]any)
	if !ok || meta[AttrTarget] != "profile-2" {
		t.Errorf("expected metadata target profile-2, got %v", record["metadata"])
	}
}

func TestAudit_Log_RedactsSecrets(t *testing.T) {
	l := NewSlogLogger()

	record := captureLog(t, func() {
		l.Log(context.Background(), Event{
			Type:     TypeInviteAccepted,
			Metadata: map[string]any{"token": "super-secret", AttrEmail: "a@x.com"},
		})
	})

	meta, ok := record["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("expected metadata group, got %v", record["metadata"])
	}
	if meta["token"] != "[REDACTED]" {
		t.Errorf("expected token redacted, got %v", meta["token"])
	}
	if meta[AttrEmail] != "a@x.com" {
		t.Errorf("expected email preserved, got %v", meta[AttrEmail])
	}
}
