package core

import "time"

// Phase is the prober's state-machine phase. The machine only ever moves
// Extending -> Extending (a character was accepted) or Extending -> Stalled
// (terminal).
type Phase string

const (
	PhaseExtending Phase = "Extending"
	PhaseStalled   Phase = "Stalled"
)

// StopReason records why the run reached its terminal phase. A threshold
// stall is the normal, expected end; it is not an error.
type StopReason string

const (
	StopNone        StopReason = ""
	StopThreshold   StopReason = "no candidate crossed the threshold"
	StopLengthLimit StopReason = "maximum secret length reached"
	StopCanceled    StopReason = "canceled"
)

// Candidate is one measured extension of the known prefix.
type Candidate struct {
	Candidate string        `json:"candidate"` // known prefix + trial character
	Char      string        `json:"char"`
	Average   time.Duration `json:"average_ns"`
	Samples   int           `json:"samples"`
	Failures  int           `json:"failures"`  // trials that ended in transport failure
	Reflected bool          `json:"reflected"` // candidate echoed in a response body
}

// Position is the outcome of probing one secret position.
type Position struct {
	Index    int         `json:"index"`    // 0-based position beyond the seed
	Accepted *Candidate  `json:"accepted"` // nil when the position stalled
	Ranked   []Candidate `json:"ranked"`   // slowest candidates, descending; only set on stall
	Measured int         `json:"measured"` // candidates measured before the decision
	Requests int         `json:"requests"` // total trial requests issued at this position
}

// State is the explicit run state: the growing known prefix plus the history
// of every position decision. It is passed into and returned from each step
// instead of living in a package-level accumulator, so a run is fully
// reconstructable and unit-testable.
type State struct {
	Seed       string     `json:"seed"`
	Known      string     `json:"known"`
	Phase      Phase      `json:"phase"`
	StopReason StopReason `json:"stop_reason"`
	Positions  []Position `json:"positions"`
}

// NewState starts a run in the Extending phase with the given seed prefix.
func NewState(seed string) State {
	return State{
		Seed:  seed,
		Known: seed,
		Phase: PhaseExtending,
	}
}

// Discovered returns only the portion of the secret found by this run,
// excluding the caller-supplied seed.
func (s State) Discovered() string {
	return s.Known[len(s.Seed):]
}

// TotalCandidatesMeasured sums measured candidates across all positions.
func (s State) TotalCandidatesMeasured() int {
	total := 0
	for _, pos := range s.Positions {
		total += pos.Measured
	}
	return total
}

// TotalRequestsIssued sums trial requests across all positions.
func (s State) TotalRequestsIssued() int {
	total := 0
	for _, pos := range s.Positions {
		total += pos.Requests
	}
	return total
}
