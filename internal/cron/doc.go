// Package cron validates 5-field schedule expressions.
//
// The grammar is small and checked in a single linear pass per
// field token. Each token is routed by the first special character it
// contains, in this order:
//   - "*"        wildcard
//   - ","        list; every non-empty member must be valid on its own
//   - "-"        range "a-b" with a <= b, both inside the field bounds
//   - "/"        step "x/n" with n > 0; x is "*" or another valid token
//   - otherwise  a single integer inside the field bounds
//
// A token is never re-evaluated by a later branch, so "1-5/2" is a range
// whose end operand ("5/2") is not an integer, and is rejected.
//
// The "L" (last day of month) literal is not part of the grammar.
//
// Validation only; computing run times is out of scope for this package.
package cron
