package ingestion

import "time"

// LastNPublicationDays returns the last n days on which FIRDS files are
// published (most recent first), counting back from and including from.
// Weekends and TARGET2 closing days are excluded.
func LastNPublicationDays(n int, from time.Time) []time.Time {
	out := make([]time.Time, 0, n)
	d := truncateToDate(from)

	for len(out) < n {
		if isPublicationDay(d) {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

// DefaultWindow is the publication date range covering the last n
// publication days up to now, as (oldest, newest).
func DefaultWindow(n int, now time.Time) (time.Time, time.Time) {
	if n < 1 {
		n = 1
	}
	days := LastNPublicationDays(n, now)
	return days[len(days)-1], days[0]
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isPublicationDay returns true if d is a TARGET2 business day.
func isPublicationDay(d time.Time) bool {
	// Weekend
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	// Fixed closing days
	switch d.Format("01-02") {
	case "01-01", // New Year
		"05-01", // Labour Day
		"12-25", // Christmas
		"12-26": // Boxing Day
		return false
	}

	// Good Friday and Easter Monday
	easter := easterSunday(d.Year())
	day := truncateToDate(d)
	if day.Equal(easter.AddDate(0, 0, -2)) || day.Equal(easter.AddDate(0, 0, 1)) {
		return false
	}

	return true
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
