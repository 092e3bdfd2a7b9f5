// Package memory keeps reports, admins and sessions in process memory.
// Everything is lost on restart; it backs local development and tests.
package memory

import "time"

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
