package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader loads charsets and wordlists from files or stdin.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadLines reads non-empty, non-comment lines from r.
func (r *Reader) ReadLines(src io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ReadLinesFromFile reads non-empty, non-comment lines from a file.
func (r *Reader) ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.ReadLines(file)
}

// ReadCharsetFromFile builds a charset string from a file. Each line
// contributes its characters in order, so both one-rune-per-line files and a
// single-line alphabet work. File order is preserved because it doubles as
// the tie-break order at each position.
func (r *Reader) ReadCharsetFromFile(filePath string) (string, error) {
	lines, err := r.ReadLinesFromFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read charset file %s: %w", filePath, err)
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("charset file %s contains no characters", filePath)
	}
	return sb.String(), nil
}
