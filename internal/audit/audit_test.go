package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kayz/modprompt/internal/composer"
	"github.com/kayz/modprompt/internal/config"
	"github.com/kayz/modprompt/internal/host"
)

func enabledConfig() config.AuditConfig {
	return config.AuditConfig{
		Enabled:       true,
		RetentionDays: 7,
		FilePrefix:    "compose",
	}
}

func TestRecordCompositionAppendsSameDay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	w := NewWriter(enabledConfig(), dir)

	now := time.Now()
	rec := host.Record{
		ID:         "c1",
		CreatedAt:  now,
		Library:    "default",
		Model:      "sdxl",
		Selections: map[string]string{"subject": "cat"},
		Prompt:     "(a cat:1.5)",
		Fragments:  []composer.Fragment{{Block: "subject", Option: "cat"}},
	}
	if err := w.RecordComposition(context.Background(), rec); err != nil {
		t.Fatalf("write first audit record: %v", err)
	}
	rec.ID = "c2"
	if err := w.RecordComposition(context.Background(), rec); err != nil {
		t.Fatalf("write second audit record: %v", err)
	}

	auditFile := filepath.Join(dir, "compose-"+now.Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(auditFile)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(lines))
	}

	var first, second record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal second line: %v", err)
	}
	if first.Timestamp == "" || first.RequestDigest == "" {
		t.Fatalf("expected timestamp and request_digest to be set")
	}
	if first.RequestDigest != second.RequestDigest {
		t.Fatalf("identical inputs must share a digest")
	}
	if first.FinalPrompt != "(a cat:1.5)" || len(first.Blocks) != 1 || first.Blocks[0] != "subject" {
		t.Fatalf("unexpected record: %+v", first)
	}
}

func TestRecordCompositionDisabled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	w := NewWriter(config.AuditConfig{Enabled: false}, dir)
	if err := w.RecordComposition(context.Background(), host.Record{ID: "x"}); err != nil {
		t.Fatalf("disabled writer must not fail: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("disabled writer must not create the audit dir")
	}
}

func TestCleanupByDateAndModTime(t *testing.T) {
	auditDir := filepath.Join(t.TempDir(), "audit")
	if err := os.MkdirAll(auditDir, 0755); err != nil {
		t.Fatalf("mkdir audit dir: %v", err)
	}

	now := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	prefix := "compose"

	oldByName := filepath.Join(auditDir, prefix+"-2026-02-18.jsonl")
	if err := os.WriteFile(oldByName, []byte("old"), 0644); err != nil {
		t.Fatalf("write old-by-name file: %v", err)
	}
	newByName := filepath.Join(auditDir, prefix+"-2026-02-26.jsonl")
	if err := os.WriteFile(newByName, []byte("new"), 0644); err != nil {
		t.Fatalf("write new-by-name file: %v", err)
	}
	fallbackOld := filepath.Join(auditDir, prefix+"-not-a-date.jsonl")
	if err := os.WriteFile(fallbackOld, []byte("fallback"), 0644); err != nil {
		t.Fatalf("write fallback file: %v", err)
	}
	oldModTime := now.AddDate(0, 0, -10)
	if err := os.Chtimes(fallbackOld, oldModTime, oldModTime); err != nil {
		t.Fatalf("set fallback old modtime: %v", err)
	}
	unrelated := filepath.Join(auditDir, "other-2020-01-01.jsonl")
	if err := os.WriteFile(unrelated, []byte("keep"), 0644); err != nil {
		t.Fatalf("write unrelated file: %v", err)
	}

	w := NewWriter(enabledConfig(), auditDir)
	if err := w.cleanupWithNow(now); err != nil {
		t.Fatalf("cleanup old audit files: %v", err)
	}

	if _, err := os.Stat(oldByName); !os.IsNotExist(err) {
		t.Fatalf("expected old-by-name file removed")
	}
	if _, err := os.Stat(newByName); err != nil {
		t.Fatalf("expected new-by-name file kept: %v", err)
	}
	if _, err := os.Stat(fallbackOld); !os.IsNotExist(err) {
		t.Fatalf("expected fallback old-modtime file removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected file with other prefix kept: %v", err)
	}
}
