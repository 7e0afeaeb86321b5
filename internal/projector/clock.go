package projector

import "time"

// Clock supplies "now" for the reserved current-date placeholders. It is an
// explicit collaborator rather than an ambient global so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the real time in UTC.
var SystemClock Clock = systemClock{}

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// FixedClock returns a Clock frozen at t.
func FixedClock(t time.Time) Clock { return fixedClock{t: t} }
