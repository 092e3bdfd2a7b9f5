package postgres

import "time"

func utcNow(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	// timestamptz keeps microseconds; truncating keeps returned values equal to stored ones.
	return now().UTC().Truncate(time.Microsecond)
}
