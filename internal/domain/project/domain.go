package project

import "time"

// Project is one monitored deployment of the gateway dashboard. All
// projects share the same probed endpoint; the interval controls how
// often each one is evaluated.
type Project struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Active    bool          `json:"active"`
	NextRun   time.Time     `json:"next_run"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
