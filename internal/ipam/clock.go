package ipam

import "time"

// Clock abstracts "now" so tests can control time deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
