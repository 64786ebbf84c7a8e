package dagconfig

import (
	"sort"
	"strings"
)

// RuleKind selects how a raw value is normalized.
type RuleKind int

const (
	// RuleList splits comma text (or takes a sequence) into trimmed, non-empty strings.
	RuleList RuleKind = iota
	// RulePositiveInt truncates a number; values <= 0 become absent.
	RulePositiveInt
	// RuleCount truncates a number; values < 0 become absent, 0 is kept.
	RuleCount
	// RuleBool coerces by truthiness.
	RuleBool
	// RuleText keeps trimmed text, absent when empty.
	RuleText
	// RuleJSON keeps structured values and parses textual ones; failures become absent.
	RuleJSON
	// RuleSchedule keeps trimmed text; "none"/"null" mean unscheduled (absent).
	RuleSchedule
	// RuleVerbatim stores the value unchanged.
	RuleVerbatim
)

func (k RuleKind) String() string {
	switch k {
	case RuleList:
		return "list"
	case RulePositiveInt:
		return "positive_int"
	case RuleCount:
		return "count"
	case RuleBool:
		return "bool"
	case RuleText:
		return "text"
	case RuleJSON:
		return "json"
	case RuleSchedule:
		return "schedule"
	case RuleVerbatim:
		return "verbatim"
	default:
		return "unknown"
	}
}

// Scope is where a normalized value lands in the Document.
type Scope int

const (
	ScopeTop Scope = iota
	ScopeDefaultArgs
)

// Rule routes one input key.
type Rule struct {
	Kind  RuleKind
	Scope Scope
}

// rules is the routing table. Each known key maps to exactly one rule.
var rules = map[string]Rule{
	// sequences
	"tags":  {RuleList, ScopeTop},
	"email": {RuleList, ScopeDefaultArgs},

	// durations (seconds) and priorities
	"retry_delay":       {RulePositiveInt, ScopeDefaultArgs},
	"max_retry_delay":   {RulePositiveInt, ScopeDefaultArgs},
	"execution_timeout": {RulePositiveInt, ScopeDefaultArgs},
	"timeout":           {RulePositiveInt, ScopeDefaultArgs},
	"pool_slots":        {RulePositiveInt, ScopeDefaultArgs},
	"priority_weight":   {RulePositiveInt, ScopeDefaultArgs},
	"sla":               {RulePositiveInt, ScopeDefaultArgs},

	// counts
	"retries":          {RuleCount, ScopeDefaultArgs},
	"max_active_runs":  {RulePositiveInt, ScopeTop},
	"concurrency":      {RulePositiveInt, ScopeTop},
	"max_active_tasks": {RulePositiveInt, ScopeTop},
	"dagrun_timeout":   {RulePositiveInt, ScopeTop},

	// flags
	"email_on_failure":              {RuleBool, ScopeDefaultArgs},
	"email_on_retry":                {RuleBool, ScopeDefaultArgs},
	"email_on_success":              {RuleBool, ScopeDefaultArgs},
	"depends_on_past":               {RuleBool, ScopeDefaultArgs},
	"retry_exponential_backoff":     {RuleBool, ScopeDefaultArgs},
	"provide_context":               {RuleBool, ScopeDefaultArgs},
	"catchup":                       {RuleBool, ScopeTop},
	"is_paused_upon_creation":       {RuleBool, ScopeTop},
	"render_template_as_native_obj": {RuleBool, ScopeTop},

	// free text / enums
	"trigger_rule": {RuleText, ScopeDefaultArgs},
	"pool":         {RuleText, ScopeDefaultArgs},
	"weight_rule":  {RuleText, ScopeDefaultArgs},
	"queue":        {RuleText, ScopeDefaultArgs},
	"default_view": {RuleText, ScopeTop},
	"orientation":  {RuleText, ScopeTop},
	"doc_md":       {RuleText, ScopeTop},

	// callbacks (opaque names)
	"on_failure_callback": {RuleText, ScopeDefaultArgs},
	"on_success_callback": {RuleText, ScopeDefaultArgs},
	"on_retry_callback":   {RuleText, ScopeDefaultArgs},
	"sla_miss_callback":   {RuleText, ScopeTop},

	// embedded json
	"access_control": {RuleJSON, ScopeTop},
	"params":         {RuleJSON, ScopeTop},

	"schedule_interval": {RuleSchedule, ScopeTop},

	// stored as-is
	"dag_id":      {RuleVerbatim, ScopeTop},
	"description": {RuleVerbatim, ScopeTop},
	"start_date":  {RuleVerbatim, ScopeTop},
	"end_date":    {RuleVerbatim, ScopeTop},
	"owner":       {RuleVerbatim, ScopeDefaultArgs},
}

// RuleFor returns the routing rule for key.
func RuleFor(key string) (Rule, bool) {
	r, ok := rules[key]
	return r, ok
}

// KnownKeys returns the sorted routed keys for the given scope.
func KnownKeys(scope Scope) []string {
	out := make([]string, 0, len(rules))
	for k, r := range rules {
		if r.Scope == scope {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// normalize applies r to v. ok=false means the key must be absent.
func (r Rule) normalize(v any) (any, bool) {
	switch r.Kind {
	case RuleList:
		items := splitList(v)
		return items, len(items) > 0
	case RulePositiveInt:
		n, ok := bestEffort(v, parseInt)
		return n, ok && n > 0
	case RuleCount:
		n, ok := bestEffort(v, parseInt)
		return n, ok && n >= 0
	case RuleBool:
		return truthy(v), true
	case RuleText:
		s := text(v)
		return s, s != ""
	case RuleJSON:
		return bestEffort(v, parseJSON)
	case RuleSchedule:
		s := text(v)
		if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
			return nil, false
		}
		return s, true
	default:
		return v, v != nil
	}
}
