// Package dagconfig normalizes and validates workflow (DAG) configuration
// documents submitted through a form.
//
// The flow for one request:
//
//  1. NewBuilder: fresh skeleton with defaults (owner, retries, retry_delay, ...)
//  2. Apply: every known input key is routed through a static rule table
//     (rules.go). Coercion is best-effort; bad values leave the key absent.
//  3. AddTask / AddOverlay: optional task list and free-form top-level keys
//  4. Document: cleaned deep copy (no nil, "", empty sequence or empty mapping)
//  5. Validate: ordered, user-facing error messages; empty means valid
//
// Normalization never fails; only validation reports problems.
package dagconfig
