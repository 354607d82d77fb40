package app

import "testing"

func TestExtractOriginHost(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://app.example.com", "app.example.com"},
		{"http://localhost:3000", "localhost:3000"},
		{"not-a-url", "not-a-url"},
	}
	for _, tc := range cases {
		if got := extractOriginHost(tc.in); got != tc.want {
			t.Errorf("extractOriginHost(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatchOriginPattern(t *testing.T) {
	cases := []struct {
		pattern, host string
		want          bool
	}{
		{"app.example.com", "app.example.com", true},
		{"app.example.com", "evil.com", false},
		{"*.example.com", "app.example.com", true},
		{"*.example.com", "example.org", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "remotehost:3000", false},
	}
	for _, tc := range cases {
		if got := matchOriginPattern(tc.pattern, tc.host); got != tc.want {
			t.Errorf("matchOriginPattern(%q, %q) = %v, want %v", tc.pattern, tc.host, got, tc.want)
		}
	}
}
