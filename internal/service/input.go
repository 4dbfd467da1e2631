package service

import (
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Field error messages shared by the service and HTTP coercion layers.
const (
	MsgFieldRequired = "This field is required."
	MsgFieldNull     = "This field may not be null."
	MsgFieldBlank    = "This field may not be blank."
)

// Optional distinguishes "not supplied" from "supplied as null" for partial
// updates. Set with a nil Value means an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a supplied, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a supplied null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// IsNull reports an explicit null.
func (o Optional[T]) IsNull() bool {
	return o.Set && o.Value == nil
}

// FieldErrors maps a JSON field name to its messages. It is returned for
// input that fails coercion before the habit rules run.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(e[key], " "))
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Add appends a message for field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err returns nil when no field failed.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from user supplied free text and leaves plain text.
func sanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

// sanitizeOptional sanitizes value. Only an explicit null clears the field;
// an empty string stays set.
func sanitizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	clean := sanitizeText(*value)
	return &clean
}
