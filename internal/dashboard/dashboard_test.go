package dashboard

import (
	"strings"
	"testing"
	"time"
)

func TestFormatStatusRows(t *testing.T) {
	rows := formatStatusRows(map[int]int64{500: 3, 200: 10, 404: 1})
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	// Sorted by code, failures highlighted.
	if rows[0] != "[200](fg:green) 10" {
		t.Errorf("rows[0] = %q", rows[0])
	}
	if rows[1] != "[404](fg:red) 1" {
		t.Errorf("rows[1] = %q", rows[1])
	}
	if rows[2] != "[500](fg:red) 3" {
		t.Errorf("rows[2] = %q", rows[2])
	}
}

func TestFormatStatusRowsEmpty(t *testing.T) {
	rows := formatStatusRows(nil)
	if len(rows) != 1 || !strings.Contains(rows[0], "Awaiting data") {
		t.Errorf("rows = %v", rows)
	}
}

func TestFormatErrorRows(t *testing.T) {
	rows := formatErrorRows(map[string]int{"timeout": 2, "connection": 5})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0] != "[connection](fg:red) 5" {
		t.Errorf("rows[0] = %q", rows[0])
	}
	if rows[1] != "[timeout](fg:red) 2" {
		t.Errorf("rows[1] = %q", rows[1])
	}

	if rows := formatErrorRows(nil); len(rows) != 1 || !strings.Contains(rows[0], "No failures") {
		t.Errorf("empty rows = %v", rows)
	}
}

func TestFormatRunParams(t *testing.T) {
	cfg := TestConfig{
		TargetURL:   "https://api.example.com/health",
		Method:      "POST",
		Concurrency: 10,
		Total:       100,
		Rate:        50,
		Timeout:     60 * time.Second,
		LogFile:     "api_stress_test.jsonl",
	}
	got := formatRunParams(cfg)
	for _, want := range []string{"Method: POST", "Workers: 10", "Rate: 50/s", "Total: 100", "Timeout: 1m0s", "Log: api_stress_test.jsonl"} {
		if !strings.Contains(got, want) {
			t.Errorf("params missing %q: %s", want, got)
		}
	}
}

func TestFormatRunParamsDefaults(t *testing.T) {
	got := formatRunParams(TestConfig{Method: "GET", Concurrency: 10, Total: 100})
	if strings.Contains(got, "Method:") {
		t.Errorf("GET should be omitted: %s", got)
	}
	if !strings.Contains(got, "Rate: unlimited") {
		t.Errorf("unlimited rate missing: %s", got)
	}
}
