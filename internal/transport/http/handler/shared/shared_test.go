package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSONErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONError(rec, "key not found", http.StatusNotFound)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "key not found" {
		t.Errorf("error = %v", body["error"])
	}
	// Flat shape with timestamp, same as the proxy error bodies
	if _, ok := body["timestamp_utc"].(string); !ok {
		t.Errorf("timestamp_utc missing: %v", body)
	}
}

func TestIsValidAdminPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"abc12345", true},
		{"ABCdef789", true},
		{"short1", false},
		{"has space", false},
		{"symbols!123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidAdminPassword(tt.password); got != tt.want {
			t.Errorf("IsValidAdminPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}
