package domain

import "time"

// LocalDateTime is a wall-clock moment in a user's zone.
type LocalDateTime struct {
	Date    LocalDate
	Minutes int // minutes from midnight (0..1439)
}

// In resolves the wall-clock moment in loc and returns it in UTC.
func (l LocalDateTime) In(loc *time.Location) time.Time {
	h, m := l.Minutes/60, l.Minutes%60
	return time.Date(l.Date.Year, l.Date.Month, l.Date.Day, h, m, 0, 0, loc).UTC()
}

// LocalParts splits a UTC instant into the date and clock seen in loc.
func LocalParts(t time.Time, loc *time.Location) LocalDateTime {
	lt := t.In(loc)
	return LocalDateTime{
		Date:    LocalDate{Year: lt.Year(), Month: lt.Month(), Day: lt.Day()},
		Minutes: lt.Hour()*60 + lt.Minute(),
	}
}

// DateNotPast reports whether d is today or later in loc, i.e. still has
// instants strictly in the future.
func DateNotPast(d LocalDate, nowUTC time.Time, loc *time.Location) bool {
	today := LocalParts(nowUTC, loc).Date
	if d.Year != today.Year {
		return d.Year > today.Year
	}
	if d.Month != today.Month {
		return d.Month > today.Month
	}
	return d.Day >= today.Day
}

// WithDate moves a UTC instant to another local date, keeping its local clock.
func WithDate(t time.Time, d LocalDate, loc *time.Location) time.Time {
	p := LocalParts(t, loc)
	p.Date = d
	return p.In(loc)
}

// WithClock moves a UTC instant to another local clock, keeping its local date.
func WithClock(t time.Time, mins int, loc *time.Location) time.Time {
	p := LocalParts(t, loc)
	p.Minutes = mins
	return p.In(loc)
}
