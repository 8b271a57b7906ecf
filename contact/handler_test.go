package contact

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *Store) {
	t.Helper()
	s := newTestStore(t)
	h := NewHandler(s, NewGuard("example.com", false), zap.NewNop())
	return h, s
}

func postContact(h *Handler, host, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("response body %q: %v", rec.Body.String(), err)
	}
	return m
}

const validBody = `{"name":"Ann","email":"ann@example.com","subject":"Hi","message":"Hello there"}`

func rowCount(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSubmitSuccess(t *testing.T) {
	h, s := newTestHandler(t)

	rec := postContact(h, "example.com", validBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["message"]; got != "Contact form submitted successfully" {
		t.Errorf("message = %q", got)
	}

	var name, email, subject, message string
	var created time.Time
	err := s.db.QueryRow(`SELECT name, email, subject, message, created_at FROM contacts WHERE id = 1`).
		Scan(&name, &email, &subject, &message, &created)
	if err != nil {
		t.Fatalf("query stored row: %v", err)
	}
	if name != "Ann" || email != "ann@example.com" || subject != "Hi" || message != "Hello there" {
		t.Errorf("stored row = (%q, %q, %q, %q)", name, email, subject, message)
	}
	if created.IsZero() {
		t.Error("created_at not set")
	}
}

func TestSubmitForbiddenHost(t *testing.T) {
	h, s := newTestHandler(t)

	rec := postContact(h, "evil.com", validBody)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Access denied" {
		t.Errorf("error = %q", got)
	}
	if n := rowCount(t, s); n != 0 {
		t.Errorf("rows = %d, want 0 (nothing stored on rejection)", n)
	}
}

func TestSubmitForeignReferer(t *testing.T) {
	h, s := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(validBody))
	req.Host = "example.com"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://evil.com/form")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if n := rowCount(t, s); n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestSubmitBadBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", ``, "request body is empty"},
		{"not json", `hello`, "malformed JSON at position 1"},
		{"missing name", `{"email":"a@b.io","subject":"s","message":"m"}`, `missing field "name"`},
		{"missing subject", `{"name":"a","email":"a@b.io","message":"m"}`, `missing field "subject"`},
		{"mistyped field", `{"name":1,"email":"a@b.io","subject":"s","message":"m"}`, `invalid value for field "name": expected string`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s := newTestHandler(t)
			rec := postContact(h, "example.com", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := decodeBody(t, rec)["error"]; got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
			if n := rowCount(t, s); n != 0 {
				t.Errorf("rows = %d, want 0", n)
			}
		})
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	h, s := newTestHandler(t)

	body := `{"name":"","email":"ann@example.com","subject":"Hi","message":"Hello"}`
	rec := postContact(h, "example.com", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Name cannot be empty" {
		t.Errorf("error = %q", got)
	}
	if n := rowCount(t, s); n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	h, s := newTestHandler(t)
	s.Close()

	rec := postContact(h, "example.com", validBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Failed to store contact form" {
		t.Errorf("error = %q", got)
	}
}

func TestSubmitConcurrent(t *testing.T) {
	h, s := newTestHandler(t)

	const n = 5
	done := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			rec := postContact(h, "example.com", validBody)
			done <- rec.Code
		}()
	}
	for i := 0; i < n; i++ {
		if code := <-done; code != http.StatusCreated {
			t.Errorf("status = %d, want 201", code)
		}
	}
	if got := rowCount(t, s); got != n {
		t.Errorf("rows = %d, want %d", got, n)
	}
}
