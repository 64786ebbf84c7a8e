package cron

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFieldCount is returned (wrapped) when an expression does not split into
// exactly FieldCount tokens.
var ErrFieldCount = fmt.Errorf("cron expression must have exactly %d fields", FieldCount)

// FieldError reports the first field whose token failed the grammar.
type FieldError struct {
	Field string
	Token string
	Min   int
	Max   int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s field %q (allowed range %d-%d)", e.Field, e.Token, e.Min, e.Max)
}

// AsFieldError unwraps err into a *FieldError, if it is one.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Validate checks a 5-field expression ("minute hour day_of_month month day_of_week").
//
// The expression is split on runs of whitespace, so leading/trailing blanks never
// produce empty fields. Validation stops at the first failing field.
func Validate(expr string) error {
	parts := strings.Fields(expr)
	if len(parts) != FieldCount {
		return fmt.Errorf("%w, got %d", ErrFieldCount, len(parts))
	}
	for i, spec := range fieldSpecs {
		if !validToken(parts[i], spec.Min, spec.Max) {
			return &FieldError{Field: spec.Name, Token: parts[i], Min: spec.Min, Max: spec.Max}
		}
	}
	return nil
}

// ValidField reports whether tok is valid for the field at position index.
func ValidField(index int, tok string) bool {
	if index < 0 || index >= FieldCount {
		return false
	}
	spec := fieldSpecs[index]
	return validToken(tok, spec.Min, spec.Max)
}

func validToken(tok string, min, max int) bool {
	if tok == "*" {
		return true
	}

	if strings.Contains(tok, ",") {
		for _, part := range strings.Split(tok, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !validToken(part, min, max) {
				return false
			}
		}
		return true
	}

	if strings.Contains(tok, "-") {
		bounds := strings.Split(tok, "-")
		if len(bounds) != 2 {
			return false
		}
		start, err := atoi(bounds[0])
		if err != nil {
			return false
		}
		end, err := atoi(bounds[1])
		if err != nil {
			return false
		}
		return inRange(start, min, max) && inRange(end, min, max) && start <= end
	}

	if strings.Contains(tok, "/") {
		pieces := strings.Split(tok, "/")
		if len(pieces) != 2 {
			return false
		}
		step, err := atoi(pieces[1])
		if err != nil || step <= 0 {
			return false
		}
		if pieces[0] == "*" {
			return true
		}
		return validToken(pieces[0], min, max)
	}

	n, err := atoi(tok)
	if err != nil {
		return false
	}
	return inRange(n, min, max)
}

// atoi accepts unsigned decimal digits only; strconv.Atoi alone would take "+5".
func atoi(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func inRange(n, min, max int) bool { return n >= min && n <= max }
