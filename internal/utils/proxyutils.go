package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseProxyURL normalizes a proxy string into a *url.URL suitable for
// http.Transport.Proxy. A bare host:port gets the http scheme prepended.
// Empty input means no proxy and returns nil without error.
func ParseProxyURL(proxyInput string) (*url.URL, error) {
	trimmed := strings.TrimSpace(proxyInput)
	if trimmed == "" {
		return nil, nil
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy '%s': %w", proxyInput, err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("proxy '%s' has no host", proxyInput)
	}
	switch parsed.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("proxy '%s' has unsupported scheme '%s'", proxyInput, parsed.Scheme)
	}
	return parsed, nil
}
