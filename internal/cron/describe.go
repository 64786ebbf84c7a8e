package cron

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	monthNames   = []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
)

// Describe returns a short English description of a valid 5-field expression.
// Invalid expressions return the Validate error.
func Describe(expr string) (string, error) {
	if err := Validate(expr); err != nil {
		return "", err
	}
	f := strings.Fields(expr)
	minute, hour, dom, month, dow := f[0], f[1], f[2], f[3], f[4]
	restAny := dom == "*" && month == "*" && dow == "*"

	switch {
	case minute == "*" && hour == "*" && restAny:
		return "every minute", nil
	case strings.HasPrefix(minute, "*/") && hour == "*" && restAny:
		return "every " + strings.TrimPrefix(minute, "*/") + " minutes", nil
	case hour == "*" && restAny:
		return "at minute " + listText(minute, nil, 0) + " of every hour", nil
	case restAny:
		return "every day " + timeText(minute, hour), nil
	case month == "*" && dom == "*":
		return "every " + listText(dow, weekdayNames, 0) + " " + timeText(minute, hour), nil
	case month == "*" && dow == "*":
		return "on day " + listText(dom, nil, 0) + " of every month " + timeText(minute, hour), nil
	}

	parts := []string{timeText(minute, hour)}
	if dom != "*" {
		parts = append(parts, "on day "+listText(dom, nil, 0)+" of the month")
	}
	if month != "*" {
		parts = append(parts, "in "+listText(month, monthNames, 1))
	}
	if dow != "*" {
		parts = append(parts, "on "+listText(dow, weekdayNames, 0))
	}
	return strings.Join(parts, ", "), nil
}

func timeText(minute, hour string) string {
	h, herr := strconv.Atoi(hour)
	m, merr := strconv.Atoi(minute)
	if herr == nil && merr == nil {
		return fmt.Sprintf("at %02d:%02d", h, m)
	}
	if minute == "*" && hour == "*" {
		return "every minute"
	}
	return "at " + unitText(minute, "minute") + " of " + unitText(hour, "hour")
}

// unitText names a minute or hour token: "every hour", "every 15th minute",
// "hour 9 through 17".
func unitText(tok, unit string) string {
	if tok == "*" {
		return "every " + unit
	}
	if base, step, ok := strings.Cut(tok, "/"); ok && !strings.Contains(tok, ",") {
		out := "every " + ordinal(step) + " " + unit
		if base != "*" {
			out += " from " + base
		}
		return out
	}
	return unit + " " + listText(tok, nil, 0)
}

// listText renders a field token, naming values when names is non-nil.
// offset is the value of names[0].
func listText(tok string, names []string, offset int) string {
	name := func(s string) string {
		n, err := strconv.Atoi(s)
		if err != nil || names == nil || n-offset < 0 || n-offset >= len(names) {
			return s
		}
		return names[n-offset]
	}

	switch {
	case tok == "*":
		return "every value"
	case strings.Contains(tok, ","):
		var out []string
		for _, p := range strings.Split(tok, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, listText(p, names, offset))
			}
		}
		return strings.Join(out, ", ")
	case strings.Contains(tok, "-"):
		b := strings.SplitN(tok, "-", 2)
		return name(b[0]) + " through " + name(b[1])
	case strings.Contains(tok, "/"):
		p := strings.SplitN(tok, "/", 2)
		if p[0] == "*" {
			return "every " + ordinal(p[1])
		}
		return "every " + ordinal(p[1]) + " from " + listText(p[0], names, offset)
	default:
		return name(tok)
	}
}

func ordinal(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return s + "th"
	case n%10 == 1:
		return s + "st"
	case n%10 == 2:
		return s + "nd"
	case n%10 == 3:
		return s + "rd"
	}
	return s + "th"
}
