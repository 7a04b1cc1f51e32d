package services

import "time"

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) orNow() Clock {
	if c == nil {
		return time.Now
	}
	return c
}
