package clock

import "time"

// Clock abstracts the current time so schedules and captions can be tested.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// At returns a Clock frozen at t.
func At(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
