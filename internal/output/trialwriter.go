package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nkov/timedrip/internal/core"
)

// ANSI color codes, local to the trial stream.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// TrialWriter renders probe progress to the console in the same shape as the
// original exploit output: one line per measured candidate, an acceptance
// announcement per discovered character, and a ranked slow-candidate table
// when a position stalls. It implements core.TrialSink.
type TrialWriter struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
	quiet   bool // suppress per-candidate lines, keep decisions
}

// NewTrialWriter creates a TrialWriter targeting w.
func NewTrialWriter(w io.Writer, noColor bool, quiet bool) *TrialWriter {
	return &TrialWriter{w: w, noColor: noColor, quiet: quiet}
}

func (t *TrialWriter) paint(s, color string) string {
	if t.noColor {
		return s
	}
	return color + s + colorReset
}

// CandidateMeasured prints a per-trial latency line as it is measured.
func (t *TrialWriter) CandidateMeasured(candidate string, average time.Duration, reflected bool) {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	marker := ""
	if reflected {
		marker = " " + t.paint("[reflected]", colorCyan)
	}
	fmt.Fprintf(t.w, "%s '%s' %s %s%s\n",
		t.paint("Trying", colorDim),
		candidate,
		t.paint("→", colorDim),
		formatLatency(average),
		marker,
	)
}

// CharacterAccepted announces a discovered character and the new prefix.
func (t *TrialWriter) CharacterAccepted(char string, known string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\n%s Found next character: '%s' → current known: '%s'\n\n",
		t.paint("[+]", colorGreen), char, known)
}

// PositionStalled prints the ranked slow-candidate table for manual review.
func (t *TrialWriter) PositionStalled(known string, ranked []core.Candidate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n%s No character crossed the threshold after '%s'. Slowest responses:\n",
		t.paint("[!]", colorYellow), known)
	for _, cand := range ranked {
		fmt.Fprintf(t.w, "  %s → %s\n", cand.Candidate, formatLatency(cand.Average))
	}
}

// formatLatency matches the original's seconds-with-millis rendering.
func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
