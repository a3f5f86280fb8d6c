package test_test

import "time"

// UTCTime creates a time in UTC so tests behave the same regardless of the timezone
// of the machine running them.
func UTCTime(sec int64) time.Time {
	return time.Unix(sec, 0).In(time.UTC)
}
