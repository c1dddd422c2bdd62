package activity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDayMonth resolves one "a/b" date token. The site prints dates without
// naming its locale, so this is a heuristic: whichever side exceeds 12 must
// be the day; when both fit in a month, month-first wins. A genuine
// day-first date like 5/6 is indistinguishable and will parse as May 6,
// matching the site's apparent format.
func parseDayMonth(token string) (month, day int, err error) {
	parts := strings.SplitN(token, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("date token %q: want two fields separated by /", token)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("date token %q: %w", token, err)
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("date token %q: %w", token, err)
	}

	switch {
	case a > 12 && b > 12:
		return 0, 0, fmt.Errorf("date token %q: no field fits a month", token)
	case a > 12:
		return b, a, nil
	case b > 12:
		return a, b, nil
	default:
		// both fit: assume month-first
		return a, b, nil
	}
}

// parseEndpoint parses one side of the range: "11/10 08:00:00" or bare
// "11/10". The year comes from the reference time.
func parseEndpoint(s string, ref time.Time) (time.Time, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("empty date endpoint")
	}

	month, day, err := parseDayMonth(fields[0])
	if err != nil {
		return time.Time{}, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date %q out of range", fields[0])
	}

	hour, min, sec := 0, 0, 0
	if len(fields) > 1 {
		clock := strings.SplitN(fields[1], ":", 3)
		if len(clock) > 0 {
			hour, _ = strconv.Atoi(clock[0])
		}
		if len(clock) > 1 {
			min, _ = strconv.Atoi(clock[1])
		}
		if len(clock) > 2 {
			sec, _ = strconv.Atoi(clock[2])
		}
	}

	return time.Date(ref.Year(), time.Month(month), day, hour, min, sec, 0, ref.Location()), nil
}

// ParseDateRange parses "start ~ end" as printed on event pages. A range
// that appears to end before it starts is assumed to cross the new year.
func ParseDateRange(s string, ref time.Time) (start, end time.Time, err error) {
	parts := strings.SplitN(s, "~", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("date range %q: missing ~ separator", s)
	}

	start, err = parseEndpoint(parts[0], ref)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseEndpoint(parts[1], ref)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	return start, end, nil
}

// InRange reports whether now falls inside [start, end] inclusive.
func InRange(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}
