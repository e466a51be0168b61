package models

import (
	"encoding/json"
	"fmt"
)

// Record is the structured job data produced by an extraction pipeline.
// It is a two-branch sum: either a map of posting fields, or an error
// message. Pipelines return Records for every outcome — callers never see
// a pipeline exception, only a Record with one of the two branches set.
type Record struct {
	fields map[string]any
	errMsg string
}

// Success wraps extracted posting fields into a Record.
func Success(fields map[string]any) Record {
	return Record{fields: fields}
}

// Failure wraps a human-readable error message into a Record.
func Failure(msg string) Record {
	return Record{errMsg: msg}
}

// Failuref wraps a formatted error into a Record.
func Failuref(format string, args ...any) Record {
	return Failure(fmt.Sprintf(format, args...))
}

// Failed reports whether this Record carries the error branch.
func (r Record) Failed() bool {
	return r.errMsg != ""
}

// Fields returns the posting fields and true on the success branch.
func (r Record) Fields() (map[string]any, bool) {
	if r.Failed() {
		return nil, false
	}
	return r.fields, true
}

// ErrMessage returns the error message, or "" on the success branch.
func (r Record) ErrMessage() string {
	return r.errMsg
}

// AsMap flattens the Record into the wire shape: the fields map on success,
// or {"error": message} on failure. Never nil.
func (r Record) AsMap() map[string]any {
	if r.Failed() {
		return map[string]any{"error": r.errMsg}
	}
	if r.fields == nil {
		return map[string]any{}
	}
	return r.fields
}

// MarshalJSON serializes the Record in its wire shape.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}
