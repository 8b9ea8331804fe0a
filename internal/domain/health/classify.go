package health

import "fmt"

// Factor is one human-readable contribution to the health score.
type Factor struct {
	Label  string `json:"label"`
	Impact int    `json:"impact"`
}

// Classification is the derived verdict for one probe result. Status is
// authoritative for alerting; Score and Factors are display aids.
type Classification struct {
	Status  Status   `json:"status"`
	Score   int      `json:"score"`
	Factors []Factor `json:"factors"`
}

// Classify derives the tri-state verdict and the 0-100 health score.
// Pure and deterministic: the same ProbeResult always yields the same
// classification.
func Classify(res ProbeResult) Classification {
	status := res.Status
	if !status.Known() {
		if res.IsUp {
			status = StatusOperational
		} else {
			status = StatusDown
		}
	}

	factors := scoreFactors(res.Checks)
	score := 100
	for _, f := range factors {
		score += f.Impact
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	// The score never contradicts a failed or reported-down probe.
	if !res.IsUp || res.Status == StatusDown {
		score = 0
	}

	return Classification{Status: status, Score: score, Factors: factors}
}

func scoreFactors(checks *ComponentChecks) []Factor {
	if checks == nil {
		return nil
	}

	var factors []Factor
	add := func(label string, impact int) {
		factors = append(factors, Factor{Label: label, Impact: impact})
	}

	if db := checks.Database; db != nil {
		switch db.Status {
		case "error":
			add("database: error", -40)
		case "slow":
			add(fmt.Sprintf("database: slow (%.0fms)", db.LatencyMs), -10)
		}
	}
	if c := checks.Cache; c != nil {
		switch c.Status {
		case "error":
			add("cache: error", -30)
		case "slow":
			add(fmt.Sprintf("cache: slow (%.0fms)", c.LatencyMs), -5)
		}
	}
	if q := checks.Queue; q != nil {
		switch q.Status {
		case "critical":
			add(fmt.Sprintf("queue: critical (%d failed)", q.FailedJobs), -25)
		case "warning":
			add(fmt.Sprintf("queue: warning (%d pending)", q.PendingJobs), -10)
		}
	}
	if s := checks.Storage; s != nil && s.Status == "error" {
		add("storage: error", -20)
	}
	for _, a := range checks.Acquirers {
		switch a.Status {
		case "critical":
			add(fmt.Sprintf("acquirer %s: critical (%.1f%% failures)", a.Name, a.FailureRate), -15)
		case "warning":
			add(fmt.Sprintf("acquirer %s: warning (%.1f%% failures)", a.Name, a.FailureRate), -5)
		}
	}
	if m := checks.LastTransactionMinutes; m != nil {
		if impact := inactivityImpact(*m); impact != 0 {
			add(fmt.Sprintf("no transactions for %.0f min", *m), impact)
		}
	}
	return factors
}

func inactivityImpact(minutes float64) int {
	switch {
	case minutes > 1440:
		return -100
	case minutes > 60:
		return -40
	case minutes > 30:
		return -20
	case minutes > 10:
		return -10
	default:
		return 0
	}
}
