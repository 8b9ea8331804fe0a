package health

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intp(n int) *int         { return &n }
func f64p(f float64) *float64 { return &f }

func TestClassify_HealthyProbe(t *testing.T) {
	res := ProbeResult{
		IsUp:       true,
		Status:     StatusOperational,
		StatusCode: intp(200),
		Checks: &ComponentChecks{
			Database: &ComponentCheck{Status: "ok", LatencyMs: 12},
			Cache:    &ComponentCheck{Status: "ok", LatencyMs: 3},
		},
	}

	c := Classify(res)
	require.Equal(t, StatusOperational, c.Status)
	require.Equal(t, 100, c.Score)
	require.Empty(t, c.Factors)
}

func TestClassify_Deterministic(t *testing.T) {
	res := ProbeResult{
		IsUp:   true,
		Status: StatusDegraded,
		Checks: &ComponentChecks{
			Database: &ComponentCheck{Status: "slow", LatencyMs: 900},
			Queue:    &QueueCheck{Status: "warning", PendingJobs: 42},
		},
	}

	first := Classify(res)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Classify(res))
	}
}

func TestClassify_DerivesStatusWhenUnreported(t *testing.T) {
	up := Classify(ProbeResult{IsUp: true, StatusCode: intp(200)})
	require.Equal(t, StatusOperational, up.Status)

	down := Classify(ProbeResult{IsUp: false, StatusCode: intp(503)})
	require.Equal(t, StatusDown, down.Status)
	require.Equal(t, 0, down.Score)
}

func TestClassify_ComponentImpacts(t *testing.T) {
	tests := []struct {
		name   string
		checks ComponentChecks
		score  int
	}{
		{"database error", ComponentChecks{Database: &ComponentCheck{Status: "error"}}, 60},
		{"database slow", ComponentChecks{Database: &ComponentCheck{Status: "slow", LatencyMs: 800}}, 90},
		{"cache error", ComponentChecks{Cache: &ComponentCheck{Status: "error"}}, 70},
		{"cache slow", ComponentChecks{Cache: &ComponentCheck{Status: "slow", LatencyMs: 120}}, 95},
		{"queue critical", ComponentChecks{Queue: &QueueCheck{Status: "critical", FailedJobs: 7}}, 75},
		{"queue warning", ComponentChecks{Queue: &QueueCheck{Status: "warning", PendingJobs: 100}}, 90},
		{"storage error", ComponentChecks{Storage: &StorageCheck{Status: "error"}}, 80},
		{"acquirer critical", ComponentChecks{Acquirers: []AcquirerCheck{{Name: "visa", Status: "critical", FailureRate: 31.5}}}, 85},
		{"acquirer warning", ComponentChecks{Acquirers: []AcquirerCheck{{Name: "mc", Status: "warning", FailureRate: 8}}}, 95},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(ProbeResult{IsUp: true, Status: StatusDegraded, Checks: &tc.checks})
			require.Equal(t, tc.score, c.Score)
		})
	}
}

func TestClassify_InactivityTiers(t *testing.T) {
	tests := []struct {
		minutes float64
		score   int
	}{
		{5, 100},
		{10, 100},
		{10.5, 90},
		{30.5, 80},
		{61, 60},
		{1441, 0},
	}

	for _, tc := range tests {
		c := Classify(ProbeResult{
			IsUp:   true,
			Status: StatusOperational,
			Checks: &ComponentChecks{LastTransactionMinutes: f64p(tc.minutes)},
		})
		require.Equal(t, tc.score, c.Score, "minutes=%v", tc.minutes)
	}
}

func TestClassify_ScoreClampsAtZero(t *testing.T) {
	// Many acquirers in trouble at once push the raw sum well below zero.
	acqs := make([]AcquirerCheck, 8)
	for i := range acqs {
		acqs[i] = AcquirerCheck{Name: "acq", Status: "critical", FailureRate: 50}
	}
	c := Classify(ProbeResult{
		IsUp:   true,
		Status: StatusDegraded,
		Checks: &ComponentChecks{Acquirers: acqs},
	})
	require.Equal(t, 0, c.Score)
	require.Len(t, c.Factors, 8)
}

func TestClassify_HardZeroOverride(t *testing.T) {
	// Reported down with spotless component checks still scores zero.
	c := Classify(ProbeResult{
		IsUp:   false,
		Status: StatusDown,
		Checks: &ComponentChecks{
			Database: &ComponentCheck{Status: "ok"},
		},
	})
	require.Equal(t, StatusDown, c.Status)
	require.Equal(t, 0, c.Score)
}

func TestClassify_ProbeFailure(t *testing.T) {
	c := Classify(ProbeResult{IsUp: false, Err: "dial tcp: connection refused"})
	require.Equal(t, StatusDown, c.Status)
	require.Equal(t, 0, c.Score)
	require.Empty(t, c.Factors)
}
