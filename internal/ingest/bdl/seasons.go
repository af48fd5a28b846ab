package bdl

import "time"

// SeasonsFor returns the season parameter set to query for a given date.
//
// The provider labels a season by its starting calendar year. From October
// through June there is exactly one season in play. July through September
// straddle the boundary: late-summer requests can land before the new
// schedule is published, so both the outgoing and the incoming season are
// queried and the caller filters by date window.
func SeasonsFor(t time.Time) []int {
	y := t.Year()
	switch {
	case t.Month() >= time.October:
		return []int{y}
	case t.Month() <= time.June:
		return []int{y - 1}
	default:
		return []int{y - 1, y}
	}
}
