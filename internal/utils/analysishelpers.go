package utils

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// BodyReflectsCandidate reports whether candidate appears in the visible text
// of an HTML response body. Search endpoints usually echo matching prefixes
// back into the result list, so reflection is a useful secondary signal next
// to the timing measurement. It never drives the accept/reject decision.
//
// Bodies that do not parse as HTML fall back to a plain substring check.
func BodyReflectsCandidate(body []byte, candidate string) bool {
	if len(body) == 0 || candidate == "" {
		return false
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return bytes.Contains(body, []byte(candidate))
	}

	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.TextNode {
			// Script/style text is not user-visible output.
			if p := n.Parent; p != nil && p.Type == html.ElementNode && (p.Data == "script" || p.Data == "style") {
				return
			}
			if strings.Contains(n.Data, candidate) {
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
			if found {
				return
			}
		}
	}
	walk(doc)

	return found
}
