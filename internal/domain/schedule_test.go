package domain

import (
	"encoding/json"
	"testing"
	"time"
)

// helper: build a time in given tz and return its UTC
func mustLocalUTC(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc).UTC()
}

func mustLoc(t *testing.T, tz string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestLocalDateTime_MoscowToUTC(t *testing.T) {
	d, err := ParseDate("15.03.2026")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	mins, err := ParseClock("14:30")
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	got := LocalDateTime{Date: d, Minutes: mins}.In(mustLoc(t, "Europe/Moscow"))
	want := time.Date(2026, time.March, 15, 11, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestWithDate_KeepsLocalClock(t *testing.T) {
	loc := mustLoc(t, "Asia/Novosibirsk")
	due := mustLocalUTC(t, "Asia/Novosibirsk", 2026, time.April, 2, 7, 45)
	moved := WithDate(due, LocalDate{Year: 2026, Month: time.May, Day: 9}, loc)
	got, _ := LocalizeTime(moved, "Asia/Novosibirsk")
	if got != "09.05.2026 07:45" {
		t.Fatalf("want 09.05.2026 07:45, got %s", got)
	}
}

func TestWithClock_KeepsLocalDate(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")
	// 01:00 local is still the previous day in UTC.
	due := mustLocalUTC(t, "Europe/Moscow", 2026, time.June, 1, 1, 0)
	moved := WithClock(due, 23*60+10, loc)
	got, _ := LocalizeTime(moved, "Europe/Moscow")
	if got != "01.06.2026 23:10" {
		t.Fatalf("want 01.06.2026 23:10, got %s", got)
	}
}

func TestDateNotPast_UsesUserZone(t *testing.T) {
	// 22:30 UTC on 14 Mar is already 15 Mar in Moscow.
	now := time.Date(2026, time.March, 14, 22, 30, 0, 0, time.UTC)
	loc := mustLoc(t, "Europe/Moscow")
	if DateNotPast(LocalDate{2026, time.March, 14}, now, loc) {
		t.Fatalf("14.03 must be past in Moscow")
	}
	if !DateNotPast(LocalDate{2026, time.March, 15}, now, loc) {
		t.Fatalf("15.03 is today in Moscow")
	}
	if !DateNotPast(LocalDate{2026, time.March, 14}, now, time.UTC) {
		t.Fatalf("14.03 is today in UTC")
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "15-03-2026", "31.02.2026", "aa.bb.cccc", "1.1.26"} {
		if _, err := ParseDate(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
	if d, err := ParseDate(" 05 . 11 . 2026 "); err != nil || d.ISO() != "2026-11-05" {
		t.Fatalf("spaces: got %v %v", d, err)
	}
}

func TestParseClock_Rejects(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "1230", "ab:cd"} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestValidateRegion_CountsRunes(t *testing.T) {
	if _, err := ValidateRegion("Ош"); err == nil {
		t.Fatalf("two runes must be rejected")
	}
	if r, err := ValidateRegion("  Уфа "); err != nil || r != "Уфа" {
		t.Fatalf("got %q %v", r, err)
	}
}

func TestDialogState_RejectsUnknownName(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"state":"dancing"}`), &u); err == nil {
		t.Fatalf("unknown state must fail decoding")
	}
	if err := json.Unmarshal([]byte(`{"state":"adding_reminder_date"}`), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.State != StateAddingReminderDate {
		t.Fatalf("got %s", u.State)
	}
}

func TestEnterIdle_ClearsScratch(t *testing.T) {
	u := NewUser("1", time.Now())
	u.Enter(StateAddingReminderDate)
	u.Stash(ScratchText, "water tomatoes")
	u.Reset()
	if u.State != StateIdle || len(u.Scratch) != 0 {
		t.Fatalf("state %s scratch %v", u.State, u.Scratch)
	}
}

func TestPremiumExpiry_Corrupt(t *testing.T) {
	u := &User{Premium: true, PremiumUntil: "next tuesday"}
	if _, err := u.PremiumExpiry(); err != ErrStaleEntitlement {
		t.Fatalf("want ErrStaleEntitlement, got %v", err)
	}
}

func TestLoadLocation_Cached(t *testing.T) {
	a, err := LoadLocation("Asia/Omsk")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, _ := LoadLocation("Asia/Omsk")
	if a != b {
		t.Fatal("second lookup returned a different *time.Location")
	}
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Fatal("unknown zone must fail")
	}
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Fatal("cached unknown zone must still fail")
	}
}

func TestUserLocation_FallsBackToUTC(t *testing.T) {
	u := &User{TimeZone: "Mars/Olympus"}
	if u.Location() != time.UTC {
		t.Fatalf("want UTC, got %v", u.Location())
	}
	u.TimeZone = "Europe/Moscow"
	if u.Location() != u.Location() {
		t.Fatal("location not cached")
	}
}
