package model

import "strconv"

// Slot is the unit of booking exclusivity: one table on one calendar
// date at one time bucket.  Every concurrency mechanism in the core
// (distributed lock, availability cache, row lock, unique index) is
// keyed by this tuple.
type Slot struct {
	TableID uint64
	Date    string // YYYY-MM-DD
	Time    string // HH:MM:SS
}

// Key renders the slot as "<table>:<date>:<time>" for use inside Redis
// key names.  Callers prepend their own namespace prefix.
func (s Slot) Key() string {
	return strconv.FormatUint(s.TableID, 10) + ":" + s.Date + ":" + s.Time
}
