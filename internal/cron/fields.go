package cron

// FieldSpec is the accepted numeric range of one positional cron field.
type FieldSpec struct {
	Index int
	Min   int
	Max   int
	Name  string
}

// fieldSpecs is consulted by position only.
var fieldSpecs = [...]FieldSpec{
	{Index: 0, Min: 0, Max: 59, Name: "minute"},
	{Index: 1, Min: 0, Max: 23, Name: "hour"},
	{Index: 2, Min: 1, Max: 31, Name: "day_of_month"},
	{Index: 3, Min: 1, Max: 12, Name: "month"},
	{Index: 4, Min: 0, Max: 6, Name: "day_of_week"},
}

// FieldCount is the number of whitespace-separated fields in an expression.
const FieldCount = len(fieldSpecs)

// Fields returns a copy of the positional field table.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(fieldSpecs))
	copy(out, fieldSpecs[:])
	return out
}
