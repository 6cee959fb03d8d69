package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyReflectsCandidateInVisibleText(t *testing.T) {
	body := []byte(`<html><body><ul><li>Result: flag{par</li></ul></body></html>`)
	assert.True(t, BodyReflectsCandidate(body, "flag{par"))
	assert.False(t, BodyReflectsCandidate(body, "flag{zzz"))
}

func TestBodyReflectsCandidateIgnoresScriptText(t *testing.T) {
	body := []byte(`<html><head><script>var q = "flag{par";</script></head><body>no results</body></html>`)
	assert.False(t, BodyReflectsCandidate(body, "flag{par"))
}

func TestBodyReflectsCandidateEmptyInputs(t *testing.T) {
	assert.False(t, BodyReflectsCandidate(nil, "x"))
	assert.False(t, BodyReflectsCandidate([]byte("x"), ""))
}

func TestParseHeaderLines(t *testing.T) {
	headers, err := ParseHeaderLines([]string{"Cookie: a=b", "X-Forwarded-For:10.0.0.1"})
	assert.NoError(t, err)
	assert.Equal(t, "a=b", headers.Get("Cookie"))
	assert.Equal(t, "10.0.0.1", headers.Get("X-Forwarded-For"))

	_, err = ParseHeaderLines([]string{"no-colon-here"})
	assert.Error(t, err)

	_, err = ParseHeaderLines([]string{": empty-name"})
	assert.Error(t, err)
}

func TestParseProxyURL(t *testing.T) {
	u, err := ParseProxyURL("127.0.0.1:8080")
	assert.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "127.0.0.1:8080", u.Host)

	u, err = ParseProxyURL("socks5://127.0.0.1:1080")
	assert.NoError(t, err)
	assert.Equal(t, "socks5", u.Scheme)

	u, err = ParseProxyURL("")
	assert.NoError(t, err)
	assert.Nil(t, u)

	_, err = ParseProxyURL("ftp://127.0.0.1:21")
	assert.Error(t, err)
}
