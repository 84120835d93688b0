package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == "" {
		t.Fatal("expected a request ID in context")
	}
	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("expected a valid UUID, got %q: %v", captured, err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("expected response header %q, got %q", captured, got)
	}
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	const incoming = "client-supplied-id"

	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured != incoming {
		t.Errorf("expected incoming id %q, got %q", incoming, captured)
	}
	if got := rec.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("expected response header %q, got %q", incoming, got)
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}
}
