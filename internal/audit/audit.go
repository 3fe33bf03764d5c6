// Package audit appends composed prompts to daily JSONL files and prunes old ones.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kayz/modprompt/internal/config"
	"github.com/kayz/modprompt/internal/host"
)

const defaultPrefix = "compose"

type record struct {
	Timestamp     string   `json:"timestamp"`
	ID            string   `json:"id"`
	RequestDigest string   `json:"request_digest"`
	Library       string   `json:"library"`
	Model         string   `json:"model"`
	FinalPrompt   string   `json:"final_prompt"`
	Blocks        []string `json:"blocks"`
}

// Writer writes audit records. It is safe for concurrent use.
type Writer struct {
	cfg config.AuditConfig
	dir string
	mu  sync.Mutex
}

// NewWriter creates a Writer rooted at dir (already resolved by the caller).
func NewWriter(cfg config.AuditConfig, dir string) *Writer {
	return &Writer{cfg: cfg, dir: dir}
}

func (w *Writer) prefix() string {
	prefix := strings.TrimSpace(w.cfg.FilePrefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix
}

// RecordComposition appends one line to today's audit file.
func (w *Writer) RecordComposition(_ context.Context, rec host.Record) error {
	if !w.cfg.Enabled {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	now := rec.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	fileName := fmt.Sprintf("%s-%s.jsonl", w.prefix(), now.Format("2006-01-02"))
	filePath := filepath.Join(w.dir, fileName)

	blocks := make([]string, 0, len(rec.Fragments))
	for _, f := range rec.Fragments {
		blocks = append(blocks, f.Block)
	}

	line, err := json.Marshal(record{
		Timestamp:     now.Format(time.RFC3339),
		ID:            rec.ID,
		RequestDigest: requestDigest(rec),
		Library:       rec.Library,
		Model:         rec.Model,
		FinalPrompt:   rec.Prompt,
		Blocks:        blocks,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := appendJSONL(filePath, line); err != nil {
		return err
	}
	return w.cleanupWithNow(now)
}

func appendJSONL(filePath string, line []byte) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// Cleanup removes audit files older than the retention window.
func (w *Writer) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cleanupWithNow(time.Now())
}

func (w *Writer) cleanupWithNow(now time.Time) error {
	if !w.cfg.Enabled || w.cfg.RetentionDays <= 0 {
		return nil
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list audit dir: %w", err)
	}

	prefix := w.prefix()
	cutoff := now.AddDate(0, 0, -w.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		filePath := filepath.Join(w.dir, name)
		if fileDate, ok := parseDate(name, prefix); ok {
			if fileDate.Before(startOfDay(cutoff)) {
				if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove old audit file %s: %w", filePath, err)
				}
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat audit file %s: %w", filePath, err)
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove old audit file %s: %w", filePath, err)
			}
		}
	}

	return nil
}

func parseDate(filename, prefix string) (time.Time, bool) {
	raw := strings.TrimSuffix(filename, ".jsonl")
	raw = strings.TrimPrefix(raw, prefix+"-")
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// requestDigest hashes the inputs of a composition, not its output.
func requestDigest(rec host.Record) string {
	digestInput := struct {
		Library    string      `json:"library"`
		Model      string      `json:"model"`
		Selections [][2]string `json:"selections"`
		Addons     [][2]string `json:"addons,omitempty"`
		CustomLen  int         `json:"custom_len"`
	}{
		Library:    rec.Library,
		Model:      rec.Model,
		Selections: sortedPairs(rec.Selections),
		Addons:     sortedPairs(rec.Addons),
		CustomLen:  len(rec.Custom),
	}
	payload, _ := json.Marshal(digestInput)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func sortedPairs(m map[string]string) [][2]string {
	pairs := make([][2]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, [2]string{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
