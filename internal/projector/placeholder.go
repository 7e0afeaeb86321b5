package projector

import (
	"regexp"
	"strconv"
	"strings"
)

// placeholderKind is the closed set of template placeholder variants. A
// template string is classified once, up front, instead of being re-parsed at
// every recursive projection step.
type placeholderKind int

const (
	phNone placeholderKind = iota // not a placeholder at all
	phLookup
	phMonths
	phDayIndex
	phDayRange
	phCurrentYear
	phCurrentMonth
	phCurrentDay
	phCurrentDate
)

type placeholder struct {
	kind placeholderKind
	name string // identifier between the braces
	from int    // day index, or range start
	to   int    // range end (inclusive)
}

var reDays = regexp.MustCompile(`^days(\d+)(?:-(\d+))?$`)

// parsePlaceholder classifies a template string. Anything that is not exactly
// "{identifier}" is phNone and passes through projection unchanged.
func parsePlaceholder(s string) placeholder {
	if len(s) < 3 || !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return placeholder{kind: phNone}
	}
	name := s[1 : len(s)-1]
	if strings.ContainsAny(name, "{}") {
		return placeholder{kind: phNone}
	}

	switch name {
	case "currentYear":
		return placeholder{kind: phCurrentYear, name: name}
	case "currentMonth":
		return placeholder{kind: phCurrentMonth, name: name}
	case "currentDay":
		return placeholder{kind: phCurrentDay, name: name}
	case "currentDate":
		return placeholder{kind: phCurrentDate, name: name}
	case "months":
		return placeholder{kind: phMonths, name: name}
	}

	if m := reDays.FindStringSubmatch(name); m != nil {
		from, err := strconv.Atoi(m[1])
		if err == nil {
			if m[2] == "" {
				return placeholder{kind: phDayIndex, name: name, from: from}
			}
			if to, err := strconv.Atoi(m[2]); err == nil {
				return placeholder{kind: phDayRange, name: name, from: from, to: to}
			}
		}
	}

	return placeholder{kind: phLookup, name: name}
}
