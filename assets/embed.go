package assets

import (
	_ "embed"
	"strings"
)

//go:embed calendar.txt
var calendar string

// Calendar returns the planting calendar shown by the calendar button.
func Calendar() string {
	return strings.TrimSpace(calendar)
}
