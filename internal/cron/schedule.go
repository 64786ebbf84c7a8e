package cron

import (
	"errors"
	"fmt"
	"strings"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// ErrUnknownPreset is returned (wrapped) for "@..." values that are neither a
// workflow preset nor a descriptor robfig/cron understands.
var ErrUnknownPreset = errors.New("unknown schedule preset")

// presets accepted without delegating to robfig/cron. These have no standard
// cron descriptor equivalent.
var presets = map[string]struct{}{
	"@once":       {},
	"@continuous": {},
	"@quarterly":  {},
}

// IsPreset reports whether s looks like an "@..." schedule preset.
func IsPreset(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "@")
}

// ValidateSchedule validates a schedule_interval value. Presets match
// case-insensitively: "@Daily" and "@daily" are the same schedule.
//
// Supported forms:
//   - 5-field expression: "0 6 * * *" (see Validate)
//   - workflow preset: "@once", "@continuous", "@quarterly"
//   - robfig/cron descriptor: "@hourly", "@daily", "@midnight", "@weekly",
//     "@monthly", "@yearly", "@annually", "@every 90m"
//
// "@every" requires a positive duration; robfig/cron would silently round a
// zero or negative one up to a second.
func ValidateSchedule(raw string) error {
	s := strings.TrimSpace(raw)
	if !IsPreset(s) {
		return Validate(s)
	}
	ls := strings.ToLower(s)
	if _, ok := presets[ls]; ok {
		return nil
	}
	if rest, ok := strings.CutPrefix(ls, "@every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(rest))
		if err != nil || d <= 0 {
			return fmt.Errorf("%w %q", ErrUnknownPreset, s)
		}
		return nil
	}
	if _, err := robfig.ParseStandard(ls); err != nil {
		return fmt.Errorf("%w %q", ErrUnknownPreset, s)
	}
	return nil
}
