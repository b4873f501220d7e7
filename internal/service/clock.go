package service

import "time"

// nowFunc is the clock used for persisted timestamps. Tests pin it to a
// fixed instant.
type nowFunc func() time.Time

func defaultNow() time.Time { return time.Now() }
