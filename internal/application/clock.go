package application

import "time"

// Clock dipakai service untuk timestamp submission, bisa diganti di test.
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Since is time.Since measured on c; never negative.
func Since(c Clock, start time.Time) time.Duration {
	d := c.Now().Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
