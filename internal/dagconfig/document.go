package dagconfig

import (
	"fmt"
	"reflect"
	"strings"
)

// Document is the canonical workflow configuration tree.
//
// Values are generic structured data (maps, slices, scalars) so the tree can
// carry arbitrary overlay keys and be rendered as JSON or YAML directly.
type Document map[string]any

const (
	KeyDefaultArgs = "default_args"
	KeyTasks       = "tasks"

	defaultOwner    = "airflow"
	defaultTaskType = "BashOperator"
)

// Defaults tunes the skeleton a Builder starts from.
type Defaults struct {
	Owner string
}

// skeleton returns a fresh default document. Nothing is shared between calls.
func skeleton(def Defaults) Document {
	owner := strings.TrimSpace(def.Owner)
	if owner == "" {
		owner = defaultOwner
	}
	return Document{
		"catchup":         false,
		"max_active_runs": 1,
		KeyDefaultArgs: map[string]any{
			"owner":            owner,
			"depends_on_past":  false,
			"email_on_failure": false,
			"email_on_retry":   false,
			"retries":          1,
			"retry_delay":      300,
		},
	}
}

// DefaultArgs returns the nested default_args mapping, or nil when absent or
// replaced by a non-mapping value.
func (d Document) DefaultArgs() map[string]any {
	m, _ := d[KeyDefaultArgs].(map[string]any)
	return m
}

// defaultArgsForWrite returns default_args, creating it when needed.
func (d Document) defaultArgsForWrite() map[string]any {
	m := d.DefaultArgs()
	if m == nil {
		m = map[string]any{}
		d[KeyDefaultArgs] = m
	}
	return m
}

// Lookup resolves a dotted path ("default_args.retries").
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneValue(map[string]any(d)).(map[string]any))
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = cloneValue(vv)
		}
		return m
	case Document:
		return cloneValue(map[string]any(x))
	case []any:
		s := make([]any, len(x))
		for i := range x {
			s[i] = cloneValue(x[i])
		}
		return s
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}

// clean enforces the clean-or-absent invariant: nil, empty strings, empty
// sequences and empty mappings are removed from every mapping in the tree.
// Sequences lose their empty elements too, so ["", {}] ends up absent.
func clean(m map[string]any) {
	for k, v := range m {
		v = cleanValue(v)
		if isEmpty(v) {
			delete(m, k)
			continue
		}
		m[k] = v
	}
}

func cleanValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		clean(x)
		return x
	case Document:
		clean(x)
		return map[string]any(x)
	case []any:
		out := x[:0]
		for _, item := range x {
			item = cleanValue(item)
			if isEmpty(item) {
				continue
			}
			out = append(out, item)
		}
		return out
	default:
		return v
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// stringOf renders a scalar document value as text.
func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
