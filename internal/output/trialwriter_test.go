package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nkov/timedrip/internal/core"
)

func TestTrialWriterCandidateLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewTrialWriter(&buf, true, false)

	w.CandidateMeasured("Ca", 172*time.Millisecond, false)
	assert.Equal(t, "Trying 'Ca' → 0.172s\n", buf.String())
}

func TestTrialWriterReflectionMarker(t *testing.T) {
	var buf bytes.Buffer
	w := NewTrialWriter(&buf, true, false)

	w.CandidateMeasured("Ca", 172*time.Millisecond, true)
	assert.Contains(t, buf.String(), "[reflected]")
}

func TestTrialWriterQuietSuppressesCandidates(t *testing.T) {
	var buf bytes.Buffer
	w := NewTrialWriter(&buf, true, true)

	w.CandidateMeasured("Ca", 172*time.Millisecond, false)
	assert.Empty(t, buf.String())

	// Decisions still print in quiet mode.
	w.CharacterAccepted("a", "Ca")
	assert.Contains(t, buf.String(), "Found next character: 'a'")
	assert.Contains(t, buf.String(), "current known: 'Ca'")
}

func TestTrialWriterStallTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewTrialWriter(&buf, true, false)

	w.PositionStalled("C", []core.Candidate{
		{Candidate: "Cx", Average: 163 * time.Millisecond},
		{Candidate: "Cy", Average: 101 * time.Millisecond},
	})
	out := buf.String()
	assert.Contains(t, out, "No character crossed the threshold after 'C'")
	assert.Contains(t, out, "Cx → 0.163s")
	assert.Contains(t, out, "Cy → 0.101s")
}
