package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var (
	ErrEmptyInput   = errors.New("empty input")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidClock = errors.New("invalid time")
)

// MinRegionLen is the shortest accepted region name, in runes.
const MinRegionLen = 3

// LocalDate is a calendar date without a zone.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ISO renders the date as YYYY-MM-DD.
func (d LocalDate) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate parses "dd.mm.yyyy"; spaces are ignored.
func ParseDate(s string) (LocalDate, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return LocalDate{}, ErrEmptyInput
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return LocalDate{}, fmt.Errorf("%w: expected dd.mm.yyyy", ErrInvalidDate)
	}
	d, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || y < 1000 || y > 9999 {
		return LocalDate{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	// time.Date normalises 31.02 into March; reject instead.
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m || t.Year() != y {
		return LocalDate{}, fmt.Errorf("%w: no such day %s", ErrInvalidDate, s)
	}
	return LocalDate{Year: y, Month: time.Month(m), Day: d}, nil
}

// ParseISODate parses the YYYY-MM-DD form kept in dialog scratch.
func ParseISODate(s string) (LocalDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseClock parses "hh:mm" into minutes since midnight; spaces are ignored.
func ParseClock(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, ErrEmptyInput
	}
	m, err := parseHHMM(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidClock, err)
	}
	return m, nil
}

func parseHHMM(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.New("invalid minute")
	}
	return h*60 + m, nil
}

// ValidateRegion trims the input and enforces MinRegionLen.
func ValidateRegion(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < MinRegionLen {
		return "", &ValidationError{Field: "region", Reason: "too short"}
	}
	return s, nil
}

// ValidateText trims a reminder body and rejects an empty one.
func ValidateText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "text", Reason: "empty"}
	}
	return s, nil
}

var zones sync.Map // name -> zoneEntry

type zoneEntry struct {
	loc *time.Location
	err error
}

// LoadLocation is time.LoadLocation with a process-wide cache. Zone names
// come from a small fixed set, so entries are never evicted.
func LoadLocation(name string) (*time.Location, error) {
	if e, ok := zones.Load(name); ok {
		z := e.(zoneEntry)
		return z.loc, z.err
	}
	loc, err := time.LoadLocation(name)
	zones.Store(name, zoneEntry{loc: loc, err: err})
	return loc, err
}

// LocalizeTime formats t in the given zone as dd.mm.yyyy HH:MM.
func LocalizeTime(t time.Time, tz string) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format("02.01.2006 15:04"), nil
}
