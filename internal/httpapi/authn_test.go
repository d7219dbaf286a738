package httpapi

import (
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"plain", "Bearer abc123", "abc123", true},
		{"case insensitive scheme", "bearer abc123", "abc123", true},
		{"surrounding whitespace", "  Bearer abc123  ", "abc123", true},
		{"empty header", "", "", false},
		{"scheme only", "Bearer ", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"no scheme", "abc123", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractBearerToken(tc.header)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("extractBearerToken(%q): %v", tc.header, err)
				}
				if got != tc.want {
					t.Fatalf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("extractBearerToken(%q) succeeded with %q", tc.header, got)
			}
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/healthz", "/readyz", "/metrics", "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/auth/refresh"}
	for _, p := range public {
		if !isPublicPath(p) {
			t.Fatalf("%s should be public", p)
		}
	}
	private := []string{"/api/v1/auth/logout", "/api/v1/profile", "/api/v1/classes/1/members", "/"}
	for _, p := range private {
		if isPublicPath(p) {
			t.Fatalf("%s should not be public", p)
		}
	}
}
