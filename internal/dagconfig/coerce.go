package dagconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

var errNotNumber = errors.New("not a number")

// bestEffort runs parse and maps any failure to "absent" (ok=false).
// Normalization never surfaces these errors.
func bestEffort[T any](v any, parse func(any) (T, error)) (T, bool) {
	out, err := parse(v)
	if err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// parseInt reads a number (native, json.Number or numeric text) and truncates
// it toward zero. Booleans count as 1 and 0.
func parseInt(v any) (int, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, errNotNumber
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case json.Number:
		p, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, err
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, err
		}
		f = p
	default:
		rv := reflect.ValueOf(v)
		switch {
		case rv.CanInt():
			return int(rv.Int()), nil
		case rv.CanUint():
			return int(rv.Uint()), nil
		case rv.CanFloat():
			f = rv.Float()
		default:
			return 0, fmt.Errorf("%w: %T", errNotNumber, v)
		}
	}
	if math.IsNaN(f) || f >= float64(math.MaxInt64) || f <= float64(math.MinInt64) {
		return 0, errNotNumber
	}
	return int(math.Trunc(f)), nil
}

// truthy coerces v to a boolean.
//
// Text follows form conventions: "", "false", "0", "no", "off", "f" and "n" are
// false, any other non-empty text is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "false", "0", "no", "off", "f", "n":
			return false
		}
		return true
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		return err == nil && f != 0
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int() != 0
	case rv.CanUint():
		return rv.Uint() != 0
	case rv.CanFloat():
		return rv.Float() != 0
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len() > 0
	}
	return true
}

// text returns the trimmed textual form of a scalar; non-scalars yield "".
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// splitList turns "a, b ,, c" or a sequence into ["a","b","c"].
func splitList(v any) []string {
	var items []string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(x, ",")
	case []string:
		items = x
	case []any:
		for _, it := range x {
			items = append(items, text(it))
		}
	default:
		items = []string{text(v)}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// parseJSON accepts structured values as-is and parses textual ones.
// Comments and trailing commas in text are tolerated.
func parseJSON(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any, []any:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, errors.New("empty json")
		}
		var out any
		if err := json.Unmarshal(jsonc.ToJSON([]byte(s)), &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported json value %T", v)
	}
}
