package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLogActionWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.LogAction(context.Background(), "set", "wlan", "success", 42*time.Millisecond)
	logger.LogAction(context.Background(), "epo", "all", "failure", 5*time.Millisecond)

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("malformed audit line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "set" || entries[0].Radio != "wlan" || entries[0].Outcome != "success" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].LatencyMs != 42 {
		t.Errorf("expected latency 42ms, got %d", entries[0].LatencyMs)
	}
	if entries[1].Action != "epo" || entries[1].Outcome != "failure" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}
}

func TestLogActionConcurrent(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				logger.LogAction(context.Background(), "set", "bluetooth", "success", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("interleaved write produced bad line: %v", err)
		}
		lines++
	}
	if lines != writers*perWriter {
		t.Errorf("expected %d lines, got %d", writers*perWriter, lines)
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger, err := NewLogger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(filepath.Join(dir, "audit.jsonl")); err != nil {
		t.Errorf("audit file not created: %v", err)
	}
}
