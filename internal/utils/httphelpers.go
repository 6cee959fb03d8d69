package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// ParseHeaderLines converts "Name: Value" strings into an http.Header.
// Lines without a colon are rejected so a typo'd flag fails loudly instead of
// silently probing without the header.
func ParseHeaderLines(lines []string) (http.Header, error) {
	headers := make(http.Header)
	for _, line := range lines {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header '%s': expected 'Name: Value'", line)
		}
		headers.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	return headers, nil
}
