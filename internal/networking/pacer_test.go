package networking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkov/timedrip/internal/config"
	"github.com/nkov/timedrip/internal/utils"
)

func pacerTestConfig(delay time.Duration) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.TargetURL = "http://ctf.example/search"
	cfg.TrialDelay = delay
	return cfg
}

func TestPacerEnforcesTrialDelay(t *testing.T) {
	pacer := NewPacer(pacerTestConfig(50*time.Millisecond), utils.NewNoOpLogger())
	ctx := context.Background()

	require.NoError(t, pacer.Wait(ctx, "a.ctf.example.com"))
	start := time.Now()
	require.NoError(t, pacer.Wait(ctx, "a.ctf.example.com"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerZeroDelayDoesNotBlock(t *testing.T) {
	pacer := NewPacer(pacerTestConfig(0), utils.NewNoOpLogger())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, pacer.Wait(ctx, "ctf.example.com"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerSharesBudgetAcrossSubdomains(t *testing.T) {
	pacer := NewPacer(pacerTestConfig(50*time.Millisecond), utils.NewNoOpLogger())
	ctx := context.Background()

	require.NoError(t, pacer.Wait(ctx, "a1da2a97.ctfsite.org"))
	start := time.Now()
	// Different subdomain, same registrable domain: must share the budget.
	require.NoError(t, pacer.Wait(ctx, "b2eb3b08.ctfsite.org"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerStandbyAfter429(t *testing.T) {
	pacer := NewPacer(pacerTestConfig(0), utils.NewNoOpLogger())

	pacer.RecordResult("ctf.example.com", 429)
	inStandby, until := pacer.InStandby("ctf.example.com")
	assert.True(t, inStandby)
	assert.True(t, until.After(time.Now()))

	// A success resets the growth but an already scheduled window stays.
	pacer.RecordResult("ctf.example.com", 200)
	inStandby, _ = pacer.InStandby("ctf.example.com")
	assert.True(t, inStandby)
}

func TestPacerWaitHonorsCancellation(t *testing.T) {
	pacer := NewPacer(pacerTestConfig(0), utils.NewNoOpLogger())
	pacer.RecordResult("ctf.example.com", 429) // schedules a multi-second standby

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := pacer.Wait(ctx, "ctf.example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
