package utils

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// BuildCandidateURL injects candidate as the value of paramName in rawURL's
// query string, replacing any existing value. The rest of the URL is left
// untouched so repeated trials hit the exact same endpoint.
func BuildCandidateURL(rawURL, paramName, candidate string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse target URL '%s': %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("target URL '%s' must use http or https", rawURL)
	}
	q := u.Query()
	q.Set(paramName, candidate)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// GetDomainFromURL extracts the hostname from a URL string.
func GetDomainFromURL(urlString string) (string, error) {
	u, err := url.Parse(urlString)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL '%s' has no hostname", urlString)
	}
	return u.Hostname(), nil
}

// RegisteredDomain reduces a hostname to its registrable domain
// (e.g. "a1da2a97.ctf.example.in" -> "example.in"). Pacing state is keyed on
// this so per-challenge subdomains of one host share a single budget.
// Falls back to the raw hostname for IPs and hosts the PSL cannot resolve.
func RegisteredDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld
}

// IsValidURL reports whether rawURL parses as an absolute http(s) URL.
func IsValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
