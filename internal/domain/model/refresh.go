package model

import "time"

// RefreshOutcome reports what happened to one account during a refresh.
type RefreshOutcome struct {
	AccountID  int64
	Provider   string
	Identity   string
	Balance    int
	ExpireDate *time.Time
	Err        error
}

// OK reports whether the refresh recorded a balance.
func (o RefreshOutcome) OK() bool {
	return o.Err == nil
}

// RefreshReport collects the outcomes of one batch refresh.
type RefreshReport struct {
	RunID     string
	StartedAt time.Time
	Outcomes  []RefreshOutcome
}

// Failed returns the number of outcomes that did not record a balance.
func (r RefreshReport) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}
