package pprofserver

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAuthOrLocalOnly(t *testing.T) {
	cases := []struct {
		name       string
		cfg        Config
		remoteAddr string
		auth       string
		wantCode   int
	}{
		{
			name:       "loopback passes without auth",
			remoteAddr: "127.0.0.1:12345",
			wantCode:   http.StatusTeapot,
		},
		{
			name:       "remote without configured creds is closed",
			remoteAddr: "8.8.8.8:54444",
			wantCode:   http.StatusUnauthorized,
		},
		{
			name:       "remote with wrong password",
			cfg:        Config{User: "u", Pass: "p"},
			remoteAddr: "8.8.8.8:54444",
			auth:       basicAuth("u", "WRONG"),
			wantCode:   http.StatusUnauthorized,
		},
		{
			name:       "remote with missing header",
			cfg:        Config{User: "u", Pass: "p"},
			remoteAddr: "8.8.8.8:54444",
			wantCode:   http.StatusUnauthorized,
		},
		{
			name:       "remote with correct creds",
			cfg:        Config{User: "u", Pass: "p"},
			remoteAddr: "8.8.8.8:54444",
			auth:       basicAuth("u", "p"),
			wantCode:   http.StatusTeapot,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
			h := authOrLocalOnly(next, tc.cfg)

			req := httptest.NewRequest(http.MethodGet, "http://example/debug/pprof/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if tc.wantCode == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("expected WWW-Authenticate header")
			}
		})
	}
}

func TestIsLoopback(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"127.0.0.1:123", true},
		{"127.0.0.1", true},
		{" 127.0.0.1 ", true},
		{"[::1]:123", true},
		{"8.8.8.8:1", false},
		{"not-an-ip:1", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isLoopback(tc.in); got != tc.want {
			t.Fatalf("isLoopback(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSecureEq(t *testing.T) {
	if secureEq("a", "ab") {
		t.Fatal("expected false for different lengths")
	}
	if !secureEq("abc", "abc") {
		t.Fatal("expected true for equal strings")
	}
	if secureEq("abc", "abd") {
		t.Fatal("expected false for different strings")
	}
}
