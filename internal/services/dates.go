package services

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateLayouts are tried in order when no layouts are configured.
// Slash dates are month-first, matching US card and bank exports.
var DefaultDateLayouts = []string{
	"01/02/2006",    // MM/DD/YYYY
	"1/2/2006",      // M/D/YYYY
	"2006-01-02",    // YYYY-MM-DD (ISO)
	"2006/01/02",    // YYYY/MM/DD
	"01-02-2006",    // MM-DD-YYYY
	"02-Jan-2006",   // DD-MMM-YYYY
	"Jan 2, 2006",   // MMM D, YYYY
	"January 2, 2006",
	time.RFC3339,
}

// DateParser parses free-form date strings against an explicit layout list
type DateParser struct {
	layouts []string
}

// NewDateParser creates a parser for the given layouts, or the defaults when none are given
func NewDateParser(layouts ...string) *DateParser {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	return &DateParser{layouts: append([]string(nil), layouts...)}
}

// Layouts returns the accepted layouts in the order they are tried
func (p *DateParser) Layouts() []string {
	return append([]string(nil), p.layouts...)
}

// Parse returns the calendar date for dateStr using the first matching layout
func (p *DateParser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range p.layouts {
		t, err := time.Parse(layout, dateStr)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

var defaultDateParser = NewDateParser()

// ParseDate parses date strings using the default layouts
func ParseDate(dateStr string) (time.Time, error) {
	return defaultDateParser.Parse(dateStr)
}
