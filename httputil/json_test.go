package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "ok"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"ok"}` {
		t.Errorf("body = %q", got)
	}
}

func TestJSONErrorSimple(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONErrorSimple(rec, http.StatusForbidden, "Access denied")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Access denied"}` {
		t.Errorf("body = %q", got)
	}
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"Ann"}`, ""},
		{"unknown fields ignored", `{"name":"Ann","extra":1}`, ""},
		{"empty body", ``, "request body is empty"},
		{"malformed", `{"name":}`, "malformed JSON at position 9"},
		{"truncated", `{"name":`, "invalid JSON in request body"},
		{"wrong type", `{"name":42}`, `invalid value for field "name": expected string`},
		{"multiple values", `{"name":"a"} {"name":"b"}`, "request body contains multiple JSON values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := BindJSON(req, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
