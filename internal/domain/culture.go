package domain

import "strings"

// Culture is a crop offered by the planting calendar.
type Culture struct {
	Slug  string // callback key
	Label string // button text
	Name  string // Russian name used in prompts and typed input
}

var cultures = []Culture{
	{"tomatoes", "Tomatoes 🍅", "томаты"},
	{"pepper", "Pepper 🌶️", "перец"},
	{"cucumbers", "Cucumbers 🥒", "огурцы"},
	{"cabbage", "Cabbage 🥬", "капуста"},
	{"carrots", "Carrots 🥕", "морковь"},
	{"beets", "Beets", "свекла"},
	{"potatoes", "Potatoes 🥔", "картофель"},
	{"onions", "Onions 🧅", "лук"},
	{"garlic", "Garlic 🧄", "чеснок"},
	{"strawberries", "Strawberries 🍓", "клубника"},
	{"raspberries", "Raspberries", "малина"},
	{"greens", "Greens 🌿", "зелень"},
	{"eggplant", "Eggplant 🍆", "баклажаны"},
	{"zucchini", "Zucchini", "кабачки"},
	{"watermelon", "Watermelon 🍉", "арбуз"},
	{"melon", "Melon 🍈", "дыня"},
	{"beans", "Beans", "фасоль"},
	{"peas", "Peas", "горох"},
	{"flowers", "Flowers 🌸", "цветы"},
}

// Cultures lists the calendar crops in keyboard order.
func Cultures() []Culture {
	out := make([]Culture, len(cultures))
	copy(out, cultures)
	return out
}

// LookupCulture finds a crop by slug.
func LookupCulture(slug string) (Culture, bool) {
	for _, c := range cultures {
		if c.Slug == slug {
			return c, true
		}
	}
	return Culture{}, false
}

// MatchCulture recognises text that is nothing but a crop name, in English
// or Russian, with or without the button emoji. Longer text is not a match.
func MatchCulture(text string) (Culture, bool) {
	norm := normCulture(text)
	if norm == "" {
		return Culture{}, false
	}
	for _, c := range cultures {
		if norm == c.Slug || norm == c.Name || norm == normCulture(c.Label) {
			return c, true
		}
	}
	return Culture{}, false
}

func normCulture(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	// Drop emoji and variation selectors.
	s = strings.Map(func(r rune) rune {
		if r >= 0x2000 {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
