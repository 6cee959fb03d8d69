package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkov/timedrip/internal/core"
)

func sampleState() core.State {
	accepted := core.Candidate{Candidate: "CT", Char: "T", Average: 400 * time.Millisecond, Samples: 7}
	return core.State{
		Seed:       "C",
		Known:      "CT",
		Phase:      core.PhaseStalled,
		StopReason: core.StopThreshold,
		Positions: []core.Position{
			{Index: 0, Accepted: &accepted, Measured: 3, Requests: 21},
			{
				Index:    1,
				Measured: 2,
				Requests: 14,
				Ranked: []core.Candidate{
					{Candidate: "CTb", Char: "b", Average: 150 * time.Millisecond, Samples: 7},
					{Candidate: "CTa", Char: "a", Average: 120 * time.Millisecond, Samples: 7},
				},
			},
		},
	}
}

func TestBuildRunReport(t *testing.T) {
	rep := BuildRunReport("https://ctf.example.in/search", "q", sampleState(), 42*time.Second)

	assert.Equal(t, "CT", rep.Secret)
	assert.Equal(t, "T", rep.Discovered)
	assert.Equal(t, "C", rep.Seed)
	assert.Equal(t, core.StopThreshold, rep.StopReason)
	assert.Equal(t, 5, rep.CandidatesMeasured)
	assert.Equal(t, 35, rep.RequestsIssued)
	assert.Equal(t, 42*time.Second, rep.Duration)
	assert.False(t, rep.GeneratedAt.IsZero())
}

func TestGenerateJSONRoundTrips(t *testing.T) {
	rep := BuildRunReport("https://ctf.example.in/search", "q", sampleState(), time.Minute)
	outPath := filepath.Join(t.TempDir(), "out", "report.json")

	require.NoError(t, NewReporter().Generate(rep, outPath, "json"))

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var decoded RunReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rep.Secret, decoded.Secret)
	assert.Equal(t, rep.StopReason, decoded.StopReason)
	require.Len(t, decoded.Positions, 2)
	assert.Equal(t, "T", decoded.Positions[0].Accepted.Char)
}

func TestGenerateTextIncludesSecretAndRanking(t *testing.T) {
	rep := BuildRunReport("https://ctf.example.in/search", "q", sampleState(), time.Minute)
	outPath := filepath.Join(t.TempDir(), "report.txt")

	require.NoError(t, NewReporter().Generate(rep, outPath, "text"))

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Secret discovered: CT")
	assert.Contains(t, text, "Stop reason: no candidate crossed the threshold")
	assert.Contains(t, text, "CTb")
	assert.Contains(t, text, "0.150s")
}
