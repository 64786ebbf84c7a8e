package dagconfig

import (
	"fmt"
	"regexp"
	"strings"

	"dagforge/internal/cron"
)

var (
	TriggerRules = []string{"all_success", "all_failed", "all_done", "one_success", "one_failed", "none_failed", "none_skipped", "dummy"}
	WeightRules  = []string{"downstream", "upstream", "absolute"}
	DefaultViews = []string{"tree", "graph", "duration", "gantt", "landing_times"}
	Orientations = []string{"LR", "TB", "RL", "BT"}
)

var reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Validate returns every problem found in doc, in rule order. An empty result
// means the document can be emitted. Rules do not short-circuit each other.
func Validate(doc Document) []string {
	var errs []string

	errs = appendRequiredText(errs, "dag_id", doc["dag_id"])
	errs = appendRequiredText(errs, "start_date", doc["start_date"])

	args := doc.DefaultArgs()
	for _, addr := range splitList(args["email"]) {
		if !reEmail.MatchString(addr) {
			errs = append(errs, fmt.Sprintf("invalid email address %q", addr))
		}
	}

	if v, ok := doc["schedule_interval"]; ok && v != nil {
		s, isText := v.(string)
		switch {
		case !isText:
			errs = append(errs, fmt.Sprintf("schedule_interval must be text, got %T", v))
		case strings.TrimSpace(s) != "":
			if err := cron.ValidateSchedule(s); err != nil {
				errs = append(errs, "schedule_interval: "+err.Error())
			}
		}
	}

	errs = appendEnum(errs, "trigger_rule", args["trigger_rule"], TriggerRules)
	errs = appendEnum(errs, "weight_rule", args["weight_rule"], WeightRules)
	errs = appendEnum(errs, "default_view", doc["default_view"], DefaultViews)
	errs = appendEnum(errs, "orientation", doc["orientation"], Orientations)

	return append(errs, validateTasks(doc)...)
}

// appendRequiredText reports a missing or blank value as required and any
// non-string value (a mapping, a number) as a type error.
func appendRequiredText(errs []string, name string, v any) []string {
	if v == nil {
		return append(errs, name+" is required")
	}
	s, ok := v.(string)
	if !ok {
		return append(errs, fmt.Sprintf("%s must be a non-empty string, got %T", name, v))
	}
	if strings.TrimSpace(s) == "" {
		return append(errs, name+" is required")
	}
	return errs
}

func appendEnum(errs []string, name string, v any, allowed []string) []string {
	if v == nil {
		return errs
	}
	s := stringOf(v)
	for _, a := range allowed {
		if s == a {
			return errs
		}
	}
	return append(errs, fmt.Sprintf("invalid %s %q (allowed: %s)", name, s, strings.Join(allowed, ", ")))
}
