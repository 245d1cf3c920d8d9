package service

import (
	"fmt"
	"time"
)

// DateOnly truncates t to midnight of its calendar day in loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysLeft counts whole calendar days from now's date to deadline's date,
// both read as wall-clock dates in now's location. Past deadlines are negative.
func DaysLeft(deadline, now time.Time) int {
	dy, dm, dd := deadline.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	// UTC has no DST, so the difference is an exact multiple of 24h.
	d := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(n).Hours() / 24)
}

func FormatDaysLeft(days int) string {
	return fmt.Sprintf("%d days", days)
}
