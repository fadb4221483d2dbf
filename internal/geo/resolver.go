// Package geo maps free-text region names to IANA time zones.
package geo

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// Resolver resolves region text to a zone using a keyword table and, as a
// fallback, direct IANA names such as "Europe/Moscow".
type Resolver struct {
	entries []entry
}

type entry struct {
	keyword string
	zone    string
	// whole keywords must end at a word boundary ("тула" but not "тулун");
	// the rest are stems matched at the start of a word ("самар" in "самарская").
	whole bool
}

// The first matching entry wins.
var defaultTable = []entry{
	{"калининград", "Europe/Kaliningrad", false},
	{"kaliningrad", "Europe/Kaliningrad", false},
	{"самар", "Europe/Samara", false},
	{"samara", "Europe/Samara", false},
	{"ижевск", "Europe/Samara", false},
	{"удмурт", "Europe/Samara", false},
	{"ульяновск", "Europe/Ulyanovsk", false},
	{"саратов", "Europe/Saratov", false},
	{"астрахан", "Europe/Astrakhan", false},
	{"волгоград", "Europe/Volgograd", false},
	{"volgograd", "Europe/Volgograd", false},
	{"екатеринбург", "Asia/Yekaterinburg", false},
	{"yekaterinburg", "Asia/Yekaterinburg", false},
	{"свердлов", "Asia/Yekaterinburg", false},
	{"челябинск", "Asia/Yekaterinburg", false},
	{"тюмен", "Asia/Yekaterinburg", false},
	{"пермь", "Asia/Yekaterinburg", false},
	{"пермск", "Asia/Yekaterinburg", false},
	{"уфа", "Asia/Yekaterinburg", true},
	{"башкир", "Asia/Yekaterinburg", false},
	{"оренбург", "Asia/Yekaterinburg", false},
	{"курган", "Asia/Yekaterinburg", false},
	{"томск", "Asia/Tomsk", false},
	{"tomsk", "Asia/Tomsk", false},
	{"омск", "Asia/Omsk", false},
	{"omsk", "Asia/Omsk", false},
	{"новосибирск", "Asia/Novosibirsk", false},
	{"novosibirsk", "Asia/Novosibirsk", false},
	{"бердск", "Asia/Novosibirsk", false},
	{"барнаул", "Asia/Barnaul", false},
	{"алтай", "Asia/Barnaul", false},
	{"кемеров", "Asia/Novokuznetsk", false},
	{"новокузнецк", "Asia/Novokuznetsk", false},
	{"красноярск", "Asia/Krasnoyarsk", false},
	{"krasnoyarsk", "Asia/Krasnoyarsk", false},
	{"иркутск", "Asia/Irkutsk", false},
	{"тулун", "Asia/Irkutsk", false},
	{"братск", "Asia/Irkutsk", false},
	{"irkutsk", "Asia/Irkutsk", false},
	{"бурят", "Asia/Irkutsk", false},
	{"улан-удэ", "Asia/Irkutsk", false},
	{"чита", "Asia/Chita", true},
	{"читинск", "Asia/Chita", false},
	{"забайкал", "Asia/Chita", false},
	{"якутск", "Asia/Yakutsk", false},
	{"якутия", "Asia/Yakutsk", false},
	{"владивосток", "Asia/Vladivostok", false},
	{"vladivostok", "Asia/Vladivostok", false},
	{"приморск", "Asia/Vladivostok", false},
	{"хабаровск", "Asia/Vladivostok", false},
	{"сахалин", "Asia/Sakhalin", false},
	{"магадан", "Asia/Magadan", false},
	{"камчат", "Asia/Kamchatka", false},
	{"минск", "Europe/Minsk", false},
	{"беларус", "Europe/Minsk", false},
	{"киев", "Europe/Kyiv", false},
	{"алматы", "Asia/Almaty", false},
	{"астана", "Asia/Almaty", false},
	{"казахстан", "Asia/Almaty", false},
	{"ташкент", "Asia/Tashkent", false},
	{"бишкек", "Asia/Bishkek", false},
	{"ереван", "Asia/Yerevan", false},
	{"тбилиси", "Asia/Tbilisi", false},
	{"баку", "Asia/Baku", true},
	// Moscow time covers most of European Russia; keep it last.
	{"москв", "Europe/Moscow", false},
	{"московск", "Europe/Moscow", false},
	{"moscow", "Europe/Moscow", false},
	{"подмосков", "Europe/Moscow", false},
	{"петербург", "Europe/Moscow", false},
	{"ленинград", "Europe/Moscow", false},
	{"спб", "Europe/Moscow", true},
	{"казан", "Europe/Moscow", false},
	{"татарстан", "Europe/Moscow", false},
	{"нижний новгород", "Europe/Moscow", false},
	{"нижегород", "Europe/Moscow", false},
	{"воронеж", "Europe/Moscow", false},
	{"ростов", "Europe/Moscow", false},
	{"краснодар", "Europe/Moscow", false},
	{"кубан", "Europe/Moscow", false},
	{"сочи", "Europe/Moscow", true},
	{"крым", "Europe/Simferopol", false},
	{"симферопол", "Europe/Simferopol", false},
	{"севастопол", "Europe/Simferopol", false},
	{"ставрополь", "Europe/Moscow", false},
	{"тула", "Europe/Moscow", true},
	{"тульск", "Europe/Moscow", false},
	{"рязан", "Europe/Moscow", false},
	{"ярослав", "Europe/Moscow", false},
	{"твер", "Europe/Moscow", false},
	{"смоленск", "Europe/Moscow", false},
	{"брянск", "Europe/Moscow", false},
	{"белгород", "Europe/Moscow", false},
	{"курск", "Europe/Moscow", false},
	{"липецк", "Europe/Moscow", false},
	{"тамбов", "Europe/Moscow", false},
	{"пенз", "Europe/Moscow", false},
	{"архангельск", "Europe/Moscow", false},
	{"мурманск", "Europe/Moscow", false},
	{"вологд", "Europe/Moscow", false},
	{"карели", "Europe/Moscow", false},
	{"петрозаводск", "Europe/Moscow", false},
	{"киров", "Europe/Kirov", false},
}

// NewResolver returns a resolver with the built-in table.
func NewResolver() *Resolver {
	return &Resolver{entries: defaultTable}
}

// Resolve returns the zone for region and whether it was recognised.
func (r *Resolver) Resolve(region string) (string, bool) {
	raw := strings.TrimSpace(region)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "/") || strings.EqualFold(raw, "UTC") {
		if loc, err := domain.LoadLocation(raw); err == nil {
			return loc.String(), true
		}
	}
	norm := strings.ReplaceAll(strings.ToLower(raw), "ё", "е")
	for _, e := range r.entries {
		if matchWord(norm, e.keyword, e.whole) {
			return e.zone, true
		}
	}
	return "", false
}

// matchWord reports whether kw occurs in text starting at a word boundary,
// and when whole is set, also ending at one.
func matchWord(text, kw string, whole bool) bool {
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(kw)
		if boundaryBefore(text, start) && (!whole || boundaryAfter(text, end)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
