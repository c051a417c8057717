package sink_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/burstline/burstline/internal/record"
	"github.com/burstline/burstline/internal/sink"
)

func testRecord(id int) record.Record {
	return record.Record{
		RequestID:      id,
		Timestamp:      time.Now().UTC(),
		URL:            "http://example.com",
		Method:         "GET",
		Headers:        map[string]string{},
		Params:         map[string]string{},
		ResponseTimeMs: 1.5,
		Success:        true,
	}
}

func TestAppendConcurrentWritersNoInterleaving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := sink.Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 1; i <= n; i++ {
		go func(id int) {
			defer wg.Done()
			if err := s.Append(testRecord(id)); err != nil {
				t.Errorf("Append(%d): %v", id, err)
			}
		}(i)
	}
	wg.Wait()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	seen := map[int]bool{}
	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		lines++
		var rec map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		id := int(rec["request_id"].(float64))
		if seen[id] {
			t.Errorf("duplicate request_id %d", id)
		}
		seen[id] = true
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	if lines != n {
		t.Fatalf("line count = %d, want %d", lines, n)
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			t.Errorf("request_id %d missing", i)
		}
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "run.jsonl")
	s, err := sink.Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestOpenTruncatesByDefaultAndAppendsWhenAsked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	s, err := sink.Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(testRecord(1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Append mode keeps the previous record.
	s, err = sink.Open(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(testRecord(2)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if got := countLines(t, path); got != 2 {
		t.Fatalf("append mode line count = %d, want 2", got)
	}

	// Default mode starts fresh.
	s, err = sink.Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(testRecord(3)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if got := countLines(t, path); got != 1 {
		t.Fatalf("fresh mode line count = %d, want 1", got)
	}
}

func TestOpenRefusesLockedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := sink.Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := sink.Open(path, false); err == nil {
		t.Fatal("second Open on a locked log should fail")
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := sink.Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if err := s.Append(testRecord(1)); err == nil {
		t.Fatal("Append after Close should fail")
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n
}
