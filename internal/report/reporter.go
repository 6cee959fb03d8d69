package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nkov/timedrip/internal/core"
	"github.com/nkov/timedrip/internal/utils"
)

// RunReport is the final outcome of a probe run: the (possibly partial)
// secret plus enough per-position history to audit every decision.
type RunReport struct {
	Target             string          `json:"target"`
	Param              string          `json:"param"`
	Seed               string          `json:"seed,omitempty"`
	Secret             string          `json:"secret"`     // full known prefix at termination
	Discovered         string          `json:"discovered"` // secret minus the seed
	StopReason         core.StopReason `json:"stop_reason"`
	Positions          []core.Position `json:"positions"`
	CandidatesMeasured int             `json:"candidates_measured"`
	RequestsIssued     int             `json:"requests_issued"`
	Duration           time.Duration   `json:"duration_ns"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// BuildRunReport assembles a RunReport from the final prober state.
func BuildRunReport(target, param string, st core.State, duration time.Duration) RunReport {
	return RunReport{
		Target:             target,
		Param:              param,
		Seed:               st.Seed,
		Secret:             st.Known,
		Discovered:         st.Discovered(),
		StopReason:         st.StopReason,
		Positions:          st.Positions,
		CandidatesMeasured: st.TotalCandidatesMeasured(),
		Duration:           duration,
		RequestsIssued:     st.TotalRequestsIssued(),
		GeneratedAt:        time.Now().UTC(),
	}
}

// Reporter renders RunReports as text or JSON, to stdout or a file.
type Reporter struct{}

// NewReporter creates a new Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Generate writes the report in the requested format. An empty outputPath
// means stdout.
func (r *Reporter) Generate(rep RunReport, outputPath string, format string) error {
	var out io.Writer = os.Stdout
	if outputPath != "" {
		if err := utils.EnsureFilepathExists(outputPath); err != nil {
			return err
		}
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rep)
	}
	return r.writeText(out, rep)
}

func (r *Reporter) writeText(out io.Writer, rep RunReport) error {
	if _, err := fmt.Fprintf(out, "\nSecret discovered: %s\n", rep.Secret); err != nil {
		return err
	}
	fmt.Fprintf(out, "Target: %s (param '%s')\n", rep.Target, rep.Param)
	if rep.Seed != "" {
		fmt.Fprintf(out, "Seed prefix: '%s' (+%d characters discovered)\n", rep.Seed, len(rep.Discovered))
	}
	fmt.Fprintf(out, "Stop reason: %s\n", rep.StopReason)
	fmt.Fprintf(out, "Positions probed: %d, candidates measured: %d, requests issued: %d, duration: %s\n",
		len(rep.Positions), rep.CandidatesMeasured, rep.RequestsIssued, rep.Duration.Round(time.Millisecond))

	// On a stall, repeat the ranked table in the report so it survives
	// scrollback even when the console stream is discarded.
	if rep.StopReason == core.StopThreshold && len(rep.Positions) > 0 {
		last := rep.Positions[len(rep.Positions)-1]
		if last.Accepted == nil && len(last.Ranked) > 0 {
			fmt.Fprintf(out, "Slowest candidates at the stalled position:\n")
			for _, cand := range last.Ranked {
				fmt.Fprintf(out, "  %s → %.3fs\n", cand.Candidate, cand.Average.Seconds())
			}
		}
	}
	return nil
}
