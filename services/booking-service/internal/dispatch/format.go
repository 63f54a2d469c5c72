package dispatch

import "time"

const whenLayout = "Jan 02, 2006 at 3:04 PM"

// FormatWhen renders t in loc for message bodies, e.g. "Jan 10, 2025 at 10:00 AM".
func FormatWhen(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(whenLayout)
}
