package networking

import (
	"context"
	"sync"
	"time"

	"github.com/nkov/timedrip/internal/config"
	"github.com/nkov/timedrip/internal/utils"
)

// Standby policy after an HTTP 429. Each repeated 429 grows the next window.
const (
	initialStandbyDuration   = 5 * time.Second
	standbyDurationIncrement = 5 * time.Second
	maxStandbyDuration       = 60 * time.Second
)

// paceState tracks pacing for one registrable domain.
type paceState struct {
	lastRequestTime        time.Time
	standbyUntil           time.Time
	currentStandbyDuration time.Duration
}

// Pacer spaces trials out per registrable domain so the probe does not trip
// rate limits that would poison every subsequent sample. Waiting happens
// before a trial's clock starts, so pacing never inflates a measurement.
//
// The probe is strictly sequential, but state is still keyed per domain (via
// the public suffix list) so a run that is pointed at a rotating set of
// challenge subdomains shares one budget per challenge host.
type Pacer struct {
	cfg     *config.Config
	logger  utils.Logger
	mu      sync.Mutex
	domains map[string]*paceState
}

// NewPacer creates a Pacer using cfg.TrialDelay as the minimum gap between
// consecutive trials against the same domain.
func NewPacer(cfg *config.Config, logger utils.Logger) *Pacer {
	return &Pacer{
		cfg:     cfg,
		logger:  logger,
		domains: make(map[string]*paceState),
	}
}

func (p *Pacer) key(host string) string {
	return utils.RegisteredDomain(host)
}

func (p *Pacer) getOrCreateState(key string) *paceState {
	ps, ok := p.domains[key]
	if !ok {
		ps = &paceState{currentStandbyDuration: initialStandbyDuration}
		p.domains[key] = ps
	}
	return ps
}

// Wait blocks until the next trial against host may start, or until ctx is
// canceled. It accounts for both the configured trial delay and any active
// 429 standby window.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	key := p.key(host)

	p.mu.Lock()
	ps := p.getOrCreateState(key)
	now := time.Now()

	var wait time.Duration
	if ps.standbyUntil.After(now) {
		wait = ps.standbyUntil.Sub(now)
		p.logger.Warnf("Domain '%s' is in standby after rate limiting. Waiting %s before next trial.", key, wait.Round(time.Millisecond))
	} else if p.cfg.TrialDelay > 0 && !ps.lastRequestTime.IsZero() {
		if since := now.Sub(ps.lastRequestTime); since < p.cfg.TrialDelay {
			wait = p.cfg.TrialDelay - since
		}
	}
	p.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.mu.Lock()
	ps.lastRequestTime = time.Now()
	p.mu.Unlock()
	return nil
}

// RecordResult feeds a trial outcome back into the pacing state. A 429
// schedules a standby window and grows the next one; any other outcome
// shrinks the window back to its initial value.
func (p *Pacer) RecordResult(host string, statusCode int) {
	key := p.key(host)

	p.mu.Lock()
	defer p.mu.Unlock()
	ps := p.getOrCreateState(key)

	if statusCode != 429 {
		ps.currentStandbyDuration = initialStandbyDuration
		return
	}

	ps.standbyUntil = time.Now().Add(ps.currentStandbyDuration)
	p.logger.Warnf("Domain '%s' returned 429. Standing by for %s.", key, ps.currentStandbyDuration)
	ps.currentStandbyDuration += standbyDurationIncrement
	if ps.currentStandbyDuration > maxStandbyDuration {
		ps.currentStandbyDuration = maxStandbyDuration
	}
}

// InStandby reports whether host currently has an active standby window.
func (p *Pacer) InStandby(host string) (bool, time.Time) {
	key := p.key(host)

	p.mu.Lock()
	defer p.mu.Unlock()
	ps, ok := p.domains[key]
	if !ok || ps.standbyUntil.IsZero() || time.Now().After(ps.standbyUntil) {
		return false, time.Time{}
	}
	return true, ps.standbyUntil
}
