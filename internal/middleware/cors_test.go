package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	const allowed = "https://resume.example.com"

	tests := []struct {
		name          string
		method        string
		origin        string
		preflight     bool
		wantStatus    int
		wantNext      bool
		wantAllowOrig string
		wantMethods   string
	}{
		{name: "同一オリジン（Originなし）", method: http.MethodGet, wantStatus: http.StatusOK, wantNext: true},
		{name: "許可オリジンのPOST", method: http.MethodPost, origin: allowed, wantStatus: http.StatusOK, wantNext: true, wantAllowOrig: allowed},
		{name: "他オリジン", method: http.MethodPost, origin: "https://evil.example.com", wantStatus: http.StatusOK, wantNext: true},
		{name: "許可オリジンのプリフライト", method: http.MethodOptions, origin: allowed, preflight: true, wantStatus: http.StatusNoContent, wantAllowOrig: allowed, wantMethods: "GET, POST, DELETE, OPTIONS"},
		{name: "他オリジンのプリフライト", method: http.MethodOptions, origin: "https://evil.example.com", preflight: true, wantStatus: http.StatusOK, wantNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			handler := NewCORSMiddleware(allowed + "/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/summaries", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if nextCalled != tt.wantNext {
				t.Errorf("next called = %v, want %v", nextCalled, tt.wantNext)
			}
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrig {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllowOrig)
			}
			if got := resp.Header.Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, tt.wantMethods)
			}
			if resp.Header.Get("Vary") != "Origin" {
				t.Errorf("Vary = %q, want Origin", resp.Header.Get("Vary"))
			}
		})
	}
}

func TestCORSMiddleware_AllowedPreflightSetsHeaderList(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:8080")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/summaries/generate", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-CSRF-Token" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}
