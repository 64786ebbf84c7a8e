package dagconfig

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestApplyEndToEnd(t *testing.T) {
	t.Parallel()
	doc := NewBuilder().Apply(map[string]any{
		"dag_id":            "etl_job",
		"start_date":        "2024-01-01",
		"schedule_interval": "0 6 * * *",
		"tags":              "a, b ,, c",
	})

	if got := doc["tags"]; !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("tags = %#v", got)
	}
	if got := doc["schedule_interval"]; got != "0 6 * * *" {
		t.Fatalf("schedule_interval = %#v", got)
	}
	if errs := Validate(doc); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestApplySkeletonDefaults(t *testing.T) {
	t.Parallel()
	doc := NewBuilder().Apply(nil)
	args := doc.DefaultArgs()
	if args["owner"] != "airflow" || args["retries"] != 1 || args["retry_delay"] != 300 {
		t.Fatalf("default_args = %#v", args)
	}
	if doc["catchup"] != false || doc["max_active_runs"] != 1 {
		t.Fatalf("doc = %#v", doc)
	}

	doc = NewBuilder(WithDefaultOwner("data-team")).Apply(nil)
	if doc.DefaultArgs()["owner"] != "data-team" {
		t.Fatalf("owner = %v", doc.DefaultArgs()["owner"])
	}
}

func TestApplyRouting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  map[string]any
		path string
		want any
		gone bool
	}{
		{name: "email string", raw: map[string]any{"email": "a@x.io, ,b@y.io"}, path: "default_args.email", want: []string{"a@x.io", "b@y.io"}},
		{name: "email list", raw: map[string]any{"email": []any{" a@x.io ", ""}}, path: "default_args.email", want: []string{"a@x.io"}},
		{name: "tags blank", raw: map[string]any{"tags": " , "}, path: "tags", gone: true},
		{name: "retry_delay float", raw: map[string]any{"retry_delay": 90.9}, path: "default_args.retry_delay", want: 90},
		{name: "retry_delay text", raw: map[string]any{"retry_delay": " 120 "}, path: "default_args.retry_delay", want: 120},
		{name: "retry_delay zero", raw: map[string]any{"retry_delay": 0}, path: "default_args.retry_delay", gone: true},
		{name: "retry_delay bad", raw: map[string]any{"retry_delay": "soon"}, path: "default_args.retry_delay", gone: true},
		{name: "sla negative", raw: map[string]any{"sla": -5}, path: "default_args.sla", gone: true},
		{name: "pool_slots json number", raw: map[string]any{"pool_slots": json.Number("3")}, path: "default_args.pool_slots", want: 3},
		{name: "retries zero kept", raw: map[string]any{"retries": 0}, path: "default_args.retries", want: 0},
		{name: "retries negative", raw: map[string]any{"retries": -1}, path: "default_args.retries", gone: true},
		{name: "retries true", raw: map[string]any{"retries": true}, path: "default_args.retries", want: 1},
		{name: "retries false", raw: map[string]any{"retries": false}, path: "default_args.retries", want: 0},
		{name: "concurrency false", raw: map[string]any{"concurrency": false}, path: "concurrency", gone: true},
		{name: "max_active_runs zero", raw: map[string]any{"max_active_runs": "0"}, path: "max_active_runs", gone: true},
		{name: "concurrency", raw: map[string]any{"concurrency": 16.0}, path: "concurrency", want: 16},
		{name: "dagrun_timeout NaN", raw: map[string]any{"dagrun_timeout": "NaN"}, path: "dagrun_timeout", gone: true},
		{name: "catchup text", raw: map[string]any{"catchup": "yes"}, path: "catchup", want: true},
		{name: "catchup false text", raw: map[string]any{"catchup": "false"}, path: "catchup", want: false},
		{name: "depends_on_past num", raw: map[string]any{"depends_on_past": 1}, path: "default_args.depends_on_past", want: true},
		{name: "email_on_success nil", raw: map[string]any{"email_on_success": nil}, path: "default_args.email_on_success", want: false},
		{name: "trigger_rule trimmed", raw: map[string]any{"trigger_rule": "  all_done "}, path: "default_args.trigger_rule", want: "all_done"},
		{name: "queue blank", raw: map[string]any{"queue": "   "}, path: "default_args.queue", gone: true},
		{name: "orientation", raw: map[string]any{"orientation": "LR"}, path: "orientation", want: "LR"},
		{name: "on_failure_callback", raw: map[string]any{"on_failure_callback": " notify "}, path: "default_args.on_failure_callback", want: "notify"},
		{name: "sla_miss_callback top", raw: map[string]any{"sla_miss_callback": "page"}, path: "sla_miss_callback", want: "page"},
		{name: "params text", raw: map[string]any{"params": `{"env": "prod"}`}, path: "params", want: map[string]any{"env": "prod"}},
		{name: "params jsonc", raw: map[string]any{"params": "{\"env\": \"prod\", // note\n}"}, path: "params", want: map[string]any{"env": "prod"}},
		{name: "params bad", raw: map[string]any{"params": "{oops"}, path: "params", gone: true},
		{name: "access_control map", raw: map[string]any{"access_control": map[string]any{"ops": []any{"can_read"}}}, path: "access_control", want: map[string]any{"ops": []any{"can_read"}}},
		{name: "schedule none", raw: map[string]any{"schedule_interval": "None"}, path: "schedule_interval", gone: true},
		{name: "schedule trimmed", raw: map[string]any{"schedule_interval": " @daily "}, path: "schedule_interval", want: "@daily"},
		{name: "owner verbatim", raw: map[string]any{"owner": "ana"}, path: "default_args.owner", want: "ana"},
		{name: "description verbatim", raw: map[string]any{"description": "Nightly ETL"}, path: "description", want: "Nightly ETL"},
		{name: "unknown ignored", raw: map[string]any{"team": "x"}, path: "team", gone: true},
		{name: "nested default_args", raw: map[string]any{"default_args": map[string]any{"retries": "4", "catchup": true}}, path: "default_args.retries", want: 4},
		{name: "nested top-level key ignored", raw: map[string]any{"default_args": map[string]any{"catchup": true}}, path: "default_args.catchup", gone: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := NewBuilder().Apply(tt.raw)
			got, ok := doc.Lookup(tt.path)
			if tt.gone {
				if ok {
					t.Fatalf("%s = %#v, want absent", tt.path, got)
				}
				return
			}
			if !ok {
				t.Fatalf("%s absent, want %#v", tt.path, tt.want)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("%s = %#v, want %#v", tt.path, got, tt.want)
			}
		})
	}
}

func TestApplyTopLevelWinsOverNested(t *testing.T) {
	t.Parallel()
	doc := NewBuilder().Apply(map[string]any{
		"default_args": map[string]any{"retries": 2},
		"retries":      5,
	})
	if got := doc.DefaultArgs()["retries"]; got != 5 {
		t.Fatalf("retries = %v, want 5", got)
	}
}

func TestApplyDeterministic(t *testing.T) {
	t.Parallel()
	raw := map[string]any{
		"dag_id":          "etl_job",
		"tags":            "x,y",
		"email":           "a@x.io",
		"params":          `{"k": [1, 2]}`,
		"retry_delay":     "45",
		"catchup":         "on",
		"unknown_setting": 1,
	}
	a := NewBuilder().Apply(raw)
	b := NewBuilder().Apply(raw)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("documents differ:\n%#v\n%#v", a, b)
	}
}

func TestApplyDoesNotShareSkeleton(t *testing.T) {
	t.Parallel()
	a := NewBuilder().Apply(nil)
	a.DefaultArgs()["owner"] = "mutated"
	b := NewBuilder().Apply(nil)
	if b.DefaultArgs()["owner"] != "airflow" {
		t.Fatal("skeleton leaked between builders")
	}
}

func TestOverlayPrecedence(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.Apply(map[string]any{"dag_id": "original"})
	b.AddOverlay(map[string]any{"dag_id": "overridden", "team": map[string]any{"name": "data"}})
	doc := b.Document()
	if doc["dag_id"] != "overridden" {
		t.Fatalf("dag_id = %v", doc["dag_id"])
	}
	if got, _ := doc.Lookup("team.name"); got != "data" {
		t.Fatalf("team.name = %v", got)
	}
}

func TestOverlayIsCopied(t *testing.T) {
	t.Parallel()
	frag := map[string]any{"labels": map[string]any{"tier": "gold"}}
	b := NewBuilder()
	b.AddOverlay(frag)
	frag["labels"].(map[string]any)["tier"] = "bronze"
	if got, _ := b.Document().Lookup("labels.tier"); got != "gold" {
		t.Fatalf("labels.tier = %v", got)
	}
}

func TestOverlayEmptyValuesCleaned(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.Apply(map[string]any{"description": "keep me"})
	b.AddOverlay(map[string]any{"description": "", "extra": map[string]any{"a": nil, "b": []any{}}})
	doc := b.Document()
	for _, k := range []string{"description", "extra"} {
		if _, ok := doc[k]; ok {
			t.Fatalf("%s should be absent: %#v", k, doc)
		}
	}
}

func TestOverlaySequencesCleaned(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.AddOverlay(map[string]any{
		"tags":   []any{"", ""},
		"extra":  []any{map[string]any{}},
		"labels": []any{"", "keep", map[string]any{"x": ""}, []any{nil}},
	})
	doc := b.Document()
	for _, k := range []string{"tags", "extra"} {
		if _, ok := doc[k]; ok {
			t.Fatalf("%s should be absent: %#v", k, doc)
		}
	}
	if got := doc["labels"]; !reflect.DeepEqual(got, []any{"keep"}) {
		t.Fatalf("labels = %#v", got)
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	doc, errs := Generate(Request{
		Config: map[string]any{"dag_id": "etl", "start_date": "2024-01-01"},
		Tasks: []map[string]any{
			{"task_id": "extract"},
			{"task_id": "load", "task_type": "PythonOperator", "dependencies": "extract"},
		},
		Overlay: map[string]any{"owner_team": "data"},
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if doc["owner_team"] != "data" {
		t.Fatalf("overlay missing: %#v", doc)
	}
	tasks, _ := doc[KeyTasks].([]any)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %#v", doc[KeyTasks])
	}
}

func TestGenerateFailure(t *testing.T) {
	t.Parallel()
	_, errs := Generate(Request{Config: map[string]any{"schedule_interval": "0 99 * * *"}})
	if len(errs) < 3 {
		t.Fatalf("errors = %v, want at least 3", errs)
	}
	joined := strings.Join(errs, "\n")
	for _, want := range []string{"dag_id is required", "start_date is required", `invalid hour field "99"`} {
		if !strings.Contains(joined, want) {
			t.Fatalf("errors %v missing %q", errs, want)
		}
	}
}

func TestKnownKeys(t *testing.T) {
	t.Parallel()
	top := KnownKeys(ScopeTop)
	args := KnownKeys(ScopeDefaultArgs)
	if len(top)+len(args) != len(rules) {
		t.Fatalf("scopes do not partition the rule table")
	}
	for _, k := range args {
		if r, _ := RuleFor(k); r.Scope != ScopeDefaultArgs {
			t.Fatalf("%s routed to wrong scope", k)
		}
	}
	if r, ok := RuleFor("sla_miss_callback"); !ok || r.Scope != ScopeTop || r.Kind != RuleText {
		t.Fatalf("sla_miss_callback rule = %+v", r)
	}
}

func TestParseOverlay(t *testing.T) {
	t.Parallel()
	m, err := ParseOverlay(`{
  // team override
  "max_active_runs": 4,
}`)
	if err != nil || m["max_active_runs"] != float64(4) {
		t.Fatalf("ParseOverlay text = %v, %v", m, err)
	}
	if m, err := ParseOverlay(map[string]any{"a": 1}); err != nil || m["a"] != 1 {
		t.Fatalf("ParseOverlay map = %v, %v", m, err)
	}
	for _, v := range []any{nil, "  "} {
		if m, err := ParseOverlay(v); err != nil || m != nil {
			t.Fatalf("ParseOverlay(%#v) = %v, %v", v, m, err)
		}
	}
	for _, v := range []any{"[1,2]", "{broken", 42} {
		if _, err := ParseOverlay(v); err == nil {
			t.Fatalf("ParseOverlay(%#v) should fail", v)
		}
	}
}
