package scheduler

import "time"

// DefaultPeriod is the spacing between scheduled fires.
const DefaultPeriod = 24 * time.Hour

// Plan describes when the daily report is sent: an anchor wall-clock time in
// Location, repeated every Period.
type Plan struct {
	Hour, Minute, Second int
	Location             *time.Location
	Period               time.Duration
}

func (p Plan) period() time.Duration {
	if p.Period <= 0 {
		return DefaultPeriod
	}
	return p.Period
}

func (p Plan) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// FirstFire returns today's anchor time, or the anchor one period later if now
// has already reached it.
func (p Plan) FirstFire(now time.Time) time.Time {
	local := now.In(p.location())
	anchor := time.Date(local.Year(), local.Month(), local.Day(), p.Hour, p.Minute, p.Second, 0, p.location())
	if !now.Before(anchor) {
		anchor = anchor.Add(p.period())
	}
	return anchor
}

// Next returns the fire following prev. It is a fixed step from the previous
// planned fire, not a fresh anchor computation.
func (p Plan) Next(prev time.Time) time.Time {
	return prev.Add(p.period())
}
