package config

import (
	"testing"
	"time"
)

func TestLookupSettingMatchesCaseInsensitively(t *testing.T) {
	settings := map[string]interface{}{
		"Total_Requests": 25,
		"rate":           5,
	}

	if v, ok := lookupSetting(settings, "total", "total_requests"); !ok || v.(int) != 25 {
		t.Errorf("lookupSetting(total_requests) = %v, %v", v, ok)
	}
	if v, ok := lookupSetting(settings, "RATE"); !ok || v.(int) != 5 {
		t.Errorf("lookupSetting(RATE) = %v, %v", v, ok)
	}
	if _, ok := lookupSetting(settings, "missing"); ok {
		t.Error("lookupSetting found a key that is not there")
	}
}

func TestAsIntCoercions(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    int
		wantErr bool
	}{
		{"int", 7, 7, false},
		{"int64", int64(8), 8, false},
		{"json float", float64(9), 9, false},
		{"string", " 10 ", 10, false},
		{"empty string", "", 0, false},
		{"nil", nil, 0, false},
		{"garbage string", "ten", 0, true},
		{"wrong type", []int{1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asInt(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("asInt(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("asInt(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAsDurationBareNumbersAreSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want time.Duration
	}{
		{"int seconds", 30, 30 * time.Second},
		{"float seconds", 0.5, 500 * time.Millisecond},
		{"duration string", "1m30s", 90 * time.Second},
		{"empty string", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asDuration(tt.in)
			if err != nil {
				t.Fatalf("asDuration(%v): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("asDuration(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := asDuration(struct{}{}); err == nil {
		t.Error("asDuration accepted a struct")
	}
}

func TestAsBoolAndFloat(t *testing.T) {
	if v, err := asBool("true"); err != nil || !v {
		t.Errorf("asBool(true) = %v, %v", v, err)
	}
	if _, err := asBool(3); err == nil {
		t.Error("asBool accepted an int")
	}
	if v, err := asFloat64("0.75"); err != nil || v != 0.75 {
		t.Errorf("asFloat64(0.75) = %v, %v", v, err)
	}
	if v, err := asFloat64(int64(2)); err != nil || v != 2 {
		t.Errorf("asFloat64(int64) = %v, %v", v, err)
	}
}

func TestAsStringMapHandlesYAMLKeys(t *testing.T) {
	got, err := asStringMap(map[interface{}]interface{}{
		"Authorization": "Bearer token",
		"retries":       3,
	})
	if err != nil {
		t.Fatalf("asStringMap: %v", err)
	}
	if got["Authorization"] != "Bearer token" {
		t.Errorf("Authorization = %q", got["Authorization"])
	}
	if got["retries"] != "3" {
		t.Errorf("retries = %q, want \"3\"", got["retries"])
	}

	if _, err := asStringMap(map[interface{}]interface{}{" ": "x"}); err == nil {
		t.Error("asStringMap accepted an empty key")
	}
	if _, err := asStringMap("not a map"); err == nil {
		t.Error("asStringMap accepted a string")
	}
}

func TestToStringKeyMapLowercasesKeys(t *testing.T) {
	got, err := toStringKeyMap(map[interface{}]interface{}{"EndPoint": "localhost:4317"})
	if err != nil {
		t.Fatalf("toStringKeyMap: %v", err)
	}
	if got["endpoint"] != "localhost:4317" {
		t.Errorf("endpoint = %v", got["endpoint"])
	}
	if _, err := toStringKeyMap(42); err == nil {
		t.Error("toStringKeyMap accepted an int")
	}
}
