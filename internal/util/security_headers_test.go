package util

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithHeaders(t *testing.T, req *http.Request) http.Header {
	t.Helper()
	h := WithSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Header()
}

func TestWithSecurityHeaders(t *testing.T) {
	got := serveWithHeaders(t, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	for _, kv := range apiHeaders {
		if got.Get(kv[0]) != kv[1] {
			t.Fatalf("%s = %q, want %q", kv[0], got.Get(kv[0]), kv[1])
		}
	}
	if v := got.Get("Strict-Transport-Security"); v != "" {
		t.Fatalf("plain http must not send HSTS, got %q", v)
	}
}

func TestWithSecurityHeadersHSTS(t *testing.T) {
	tests := map[string]func(*http.Request){
		"direct tls": func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
		"forwarded":  func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") },
		"forwarded chain": func(r *http.Request) {
			r.Header.Set("X-Forwarded-Proto", "https, http")
		},
	}
	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			setup(req)
			if v := serveWithHeaders(t, req).Get("Strict-Transport-Security"); v != hstsValue {
				t.Fatalf("HSTS = %q", v)
			}
		})
	}
}
