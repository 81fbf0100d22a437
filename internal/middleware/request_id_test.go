package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDMiddleware_GeneratesUUID(t *testing.T) {
	mw := NewRequestIDMiddleware()

	var gotID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if gotID == "" {
		t.Fatal("expected request ID in context")
	}
	if _, err := uuid.Parse(gotID); err != nil {
		t.Errorf("request ID %q is not a valid UUID: %v", gotID, err)
	}
	if rec.Header().Get("X-Request-ID") != gotID {
		t.Errorf("response header = %q, want %q", rec.Header().Get("X-Request-ID"), gotID)
	}
}

func TestRequestIDMiddleware_PreservesIncomingID(t *testing.T) {
	mw := NewRequestIDMiddleware()

	var gotID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "incoming-id-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotID != "incoming-id-123" {
		t.Errorf("request ID = %q, want incoming-id-123", gotID)
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("request ID = %q, want empty", got)
	}
}
