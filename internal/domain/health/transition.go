package health

import (
	"fmt"
	"time"
)

// DefaultReminderInterval gates repeat alerts while the gateway stays in
// a non-operational state.
const DefaultReminderInterval = time.Hour

// Decision is the outcome of evaluating one tick against the tracker.
type Decision struct {
	Notify bool
	Reason string
}

// Decide applies the transition rule for a single project tick.
//
// An alert fires on any status change (including recovery), and while the
// current status stays down or degraded, again once per reminder interval.
// prev is the stored last_status (callers substitute StatusOperational
// when no tracker row exists yet); cur is the freshly classified status.
// Unknown collapses to down on both sides, so probe failures never
// re-alert against a gateway already known to be down.
func Decide(prev Status, lastNotifiedAt *time.Time, cur Status, now time.Time, reminder time.Duration) Decision {
	if reminder <= 0 {
		reminder = DefaultReminderInterval
	}
	p, c := Effective(prev), Effective(cur)

	if c != p {
		return Decision{
			Notify: true,
			Reason: fmt.Sprintf("status_change: %s -> %s", p, c),
		}
	}
	if c == StatusDown || c == StatusDegraded {
		if lastNotifiedAt == nil || now.Sub(*lastNotifiedAt) >= reminder {
			return Decision{
				Notify: true,
				Reason: fmt.Sprintf("reminder: still %s", c),
			}
		}
	}
	return Decision{}
}
