package util

import (
	"strings"
	"time"
)

// Day-first layouts tried in order; ISO comes last as a fallback for
// exports that already carry normalized dates.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2006-01-02",
}

func ParseDate(input string) (time.Time, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
