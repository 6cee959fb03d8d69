package core

import (
	"context"
	"sort"
	"time"

	"github.com/nkov/timedrip/internal/config"
	"github.com/nkov/timedrip/internal/networking"
	"github.com/nkov/timedrip/internal/utils"
)

// Measurement is the aggregated latency observation for one candidate.
type Measurement struct {
	Candidate string
	Samples   []time.Duration
	Average   time.Duration // aggregate per the configured policy
	Failures  int           // samples that came from failed trials
	Reflected bool          // candidate seen in at least one response body
}

// Oracle answers "how slow is this candidate". The network implementation
// below is the production one; tests inject deterministic fakes so the prober
// logic never depends on wall clocks or sockets.
type Oracle interface {
	Measure(ctx context.Context, candidate string) (Measurement, error)
}

// NetworkOracle measures candidates against the real target endpoint. Each
// Measure call issues the configured number of trials and aggregates them.
// Individual trial failures are absorbed: the trial still contributes its
// clamped elapsed time, so a flaky network drags averages toward the timeout
// ceiling instead of silently shrinking the sample set.
type NetworkOracle struct {
	cfg    *config.Config
	client *networking.Client
	pacer  *networking.Pacer
	logger utils.Logger
	host   string
}

// NewNetworkOracle validates the target URL once and returns the oracle.
func NewNetworkOracle(cfg *config.Config, client *networking.Client, pacer *networking.Pacer, logger utils.Logger) (*NetworkOracle, error) {
	// Building a candidate URL up front surfaces malformed targets at startup
	// rather than as ceiling-valued samples mid-run.
	if _, err := utils.BuildCandidateURL(cfg.TargetURL, cfg.ParamName, cfg.Seed); err != nil {
		return nil, err
	}
	host, err := utils.GetDomainFromURL(cfg.TargetURL)
	if err != nil {
		return nil, err
	}
	return &NetworkOracle{
		cfg:    cfg,
		client: client,
		pacer:  pacer,
		logger: logger,
		host:   host,
	}, nil
}

// Measure runs the trial loop for one candidate. The only error it returns
// is context cancellation; transport failures are data, not errors.
func (o *NetworkOracle) Measure(ctx context.Context, candidate string) (Measurement, error) {
	m := Measurement{Candidate: candidate}

	trialURL, err := utils.BuildCandidateURL(o.cfg.TargetURL, o.cfg.ParamName, candidate)
	if err != nil {
		// Cannot happen after the constructor check unless the candidate
		// itself breaks encoding; count full-ceiling samples regardless.
		o.logger.Warnf("Failed to build trial URL for candidate '%s': %v", candidate, err)
		for i := 0; i < o.cfg.Attempts; i++ {
			m.Samples = append(m.Samples, o.cfg.RequestTimeout)
			m.Failures++
		}
		m.Average = Aggregate(m.Samples, o.cfg.Aggregation)
		return m, nil
	}

	for i := 0; i < o.cfg.Attempts; i++ {
		if err := o.pacer.Wait(ctx, o.host); err != nil {
			return m, err
		}

		trial := o.client.MeasuredGet(ctx, trialURL, candidate)
		o.pacer.RecordResult(o.host, trial.StatusCode)

		m.Samples = append(m.Samples, trial.Elapsed)
		if trial.Failed {
			m.Failures++
			if ctx.Err() != nil {
				// The whole run is being torn down, not a flaky trial.
				return m, ctx.Err()
			}
			o.logger.Debugf("Trial %d/%d for '%s' failed (%v); counting %s toward the average.",
				i+1, o.cfg.Attempts, candidate, trial.Err, trial.Elapsed.Round(time.Millisecond))
		}
		if trial.Reflected {
			m.Reflected = true
		}
	}

	m.Average = Aggregate(m.Samples, o.cfg.Aggregation)
	return m, nil
}

// Aggregate collapses latency samples per the chosen policy. The arithmetic
// mean is the default; median and trimmed mean discard outliers on noisy
// links. All policies return a value within [min(samples), max(samples)],
// so the [0, timeout] bound on samples carries over to the aggregate.
func Aggregate(samples []time.Duration, policy config.Aggregation) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	switch policy {
	case config.AggregationMedian:
		sorted := sortedCopy(samples)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid]
		}
		return (sorted[mid-1] + sorted[mid]) / 2

	case config.AggregationTrimmed:
		// Drop one sample at each extreme; fall back to the mean when there
		// are too few samples to trim.
		if len(samples) < 3 {
			return mean(samples)
		}
		sorted := sortedCopy(samples)
		return mean(sorted[1 : len(sorted)-1])

	default:
		return mean(samples)
	}
}

func mean(samples []time.Duration) time.Duration {
	var total time.Duration
	for _, s := range samples {
		total += s
	}
	return total / time.Duration(len(samples))
}

func sortedCopy(samples []time.Duration) []time.Duration {
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}
