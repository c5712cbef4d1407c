package timex

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expression is a possibly partial calendar date. A component value of zero
// means "not specified", so "March 22" parses to {Month: 3, Day: 22} and is
// not definite until a year is known.
type Expression struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// Definite reports whether the expression resolves to exactly one calendar date.
func (e Expression) Definite() bool {
	return e.Year != 0 && e.Month != 0 && e.Day != 0
}

// String renders the expression in a TIMEX-like canonical form:
// "2020-03-22", "2020-03", "XXXX-03-22".
func (e Expression) String() string {
	switch {
	case e.Definite():
		return fmt.Sprintf("%04d-%02d-%02d", e.Year, e.Month, e.Day)
	case e.Year != 0 && e.Month != 0:
		return fmt.Sprintf("%04d-%02d", e.Year, e.Month)
	case e.Month != 0 && e.Day != 0:
		return fmt.Sprintf("XXXX-%02d-%02d", e.Month, e.Day)
	case e.Year != 0:
		return fmt.Sprintf("%04d", e.Year)
	case e.Month != 0:
		return fmt.Sprintf("XXXX-%02d", e.Month)
	default:
		return ""
	}
}

// Time converts a definite expression to a time.Time at midnight UTC.
// Calling Time on an indefinite expression is a programming error.
func (e Expression) Time() time.Time {
	return time.Date(e.Year, time.Month(e.Month), e.Day, 0, 0, 0, 0, time.UTC)
}

// Natural renders a definite expression in conversational English:
// "today", "tomorrow", "next Tuesday" within the coming week, otherwise
// "March 22" for the current year and "March 22, 2020" for other years.
// Indefinite expressions fall back to the canonical form.
func (e Expression) Natural(now time.Time) string {
	if !e.Definite() {
		return e.String()
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(e.Time().Sub(today).Hours() / 24)

	switch {
	case diff == 0:
		return "today"
	case diff == 1:
		return "tomorrow"
	case diff >= 2 && diff <= 7:
		return "next " + e.Time().Weekday().String()
	}

	month := time.Month(e.Month).String()
	if e.Year == now.Year() {
		return fmt.Sprintf("%s %d", month, e.Day)
	}
	return fmt.Sprintf("%s %d, %d", month, e.Day, e.Year)
}

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7,
	"aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// Parse interprets free text as a date expression. Relative forms ("today",
// "tomorrow", weekday names) resolve against now. Partial forms keep the
// unspecified components at zero. Returns an error when no date can be read
// from the text at all.
func Parse(text string, now time.Time) (Expression, error) {
	norm := normalize(text)
	if norm == "" {
		return Expression{}, fmt.Errorf("empty date text")
	}

	if e, ok := parseRelative(norm, now); ok {
		return e, nil
	}
	if e, ok := parseNumeric(norm); ok {
		return e, nil
	}
	if e, ok := parseMonthName(norm); ok {
		return e, nil
	}

	return Expression{}, fmt.Errorf("unrecognized date %q", text)
}

func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range []string{"on ", "the ", "by "} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.ReplaceAll(s, ",", " ")
	return strings.Join(strings.Fields(s), " ")
}

func parseRelative(s string, now time.Time) (Expression, bool) {
	switch s {
	case "today":
		return fromTime(now), true
	case "tomorrow":
		return fromTime(now.AddDate(0, 0, 1)), true
	}

	name := strings.TrimPrefix(s, "next ")
	wd, ok := weekdays[name]
	if !ok {
		return Expression{}, false
	}
	ahead := (int(wd) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return fromTime(now.AddDate(0, 0, ahead)), true
}

// parseNumeric handles ISO and US slash forms, including the TIMEX
// year-less marker: 2020-03-22, 2020-03, XXXX-03-22, 03/22/2020, 03/22.
func parseNumeric(s string) (Expression, bool) {
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		switch len(parts) {
		case 3:
			y := 0
			if parts[0] != "xxxx" {
				var ok bool
				if y, ok = atoiRange(parts[0], 1000, 9999); !ok {
					return Expression{}, false
				}
			}
			m, okM := atoiRange(parts[1], 1, 12)
			d, okD := atoiRange(parts[2], 1, 31)
			if !okM || !okD {
				return Expression{}, false
			}
			return Expression{Year: y, Month: m, Day: d}, true
		case 2:
			y, okY := atoiRange(parts[0], 1000, 9999)
			m, okM := atoiRange(parts[1], 1, 12)
			if !okY || !okM {
				return Expression{}, false
			}
			return Expression{Year: y, Month: m}, true
		}
		return Expression{}, false
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		m, okM := atoiRange(parts[0], 1, 12)
		if !okM {
			return Expression{}, false
		}
		switch len(parts) {
		case 3:
			d, okD := atoiRange(parts[1], 1, 31)
			y, okY := atoiRange(parts[2], 1000, 9999)
			if !okD || !okY {
				return Expression{}, false
			}
			return Expression{Year: y, Month: m, Day: d}, true
		case 2:
			d, okD := atoiRange(parts[1], 1, 31)
			if !okD {
				return Expression{}, false
			}
			return Expression{Month: m, Day: d}, true
		}
	}

	return Expression{}, false
}

// parseMonthName handles "march 22 2020", "march 22", "22 march 2020",
// "march 2020" and bare "march". Ordinal suffixes on the day are dropped.
func parseMonthName(s string) (Expression, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 3 {
		return Expression{}, false
	}

	var e Expression
	for _, f := range fields {
		if m, ok := months[f]; ok && e.Month == 0 {
			e.Month = m
			continue
		}
		f = stripOrdinal(f)
		if y, ok := atoiRange(f, 1000, 9999); ok && e.Year == 0 {
			e.Year = y
			continue
		}
		if d, ok := atoiRange(f, 1, 31); ok && e.Day == 0 {
			e.Day = d
			continue
		}
		return Expression{}, false
	}

	if e.Month == 0 {
		return Expression{}, false
	}
	return e, true
}

func stripOrdinal(s string) string {
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok && trimmed != "" {
			if _, err := strconv.Atoi(trimmed); err == nil {
				return trimmed
			}
		}
	}
	return s
}

func atoiRange(s string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func fromTime(t time.Time) Expression {
	return Expression{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}
