package app

import (
	"net/url"
	"strings"
)

// extractOriginHost returns the "host[:port]" part of an Origin header
// value, or the raw value when it does not parse as a URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOriginPattern matches a host against an allowed-origin pattern.
// "*.example.com" matches any subdomain, "localhost:*" any port.
func matchOriginPattern(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
