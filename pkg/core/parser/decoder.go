// Package parser turns raw reasoning-engine output into validated domain
// objects.
//
// Decoding is total. Text that is not a JSON object yields a complete
// fallback object built only from defaults. A JSON object is decoded field by
// field; every absent or mis-shaped field takes its default and is reported as
// a FieldWarning.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// FieldWarning names a field that was defaulted, clamped or dropped.
type FieldWarning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (w FieldWarning) String() string {
	return w.Field + ": " + w.Reason
}

// DocumentField is the FieldWarning.Field used when the whole response was
// replaced by the fallback object.
const DocumentField = "$"

// Warning reasons.
const (
	ReasonMalformedJSON = "malformed JSON"
	ReasonMissing       = "missing"
	ReasonWrongType     = "wrong type"
	ReasonEmpty         = "empty"
	ReasonOutOfRange    = "out of range"
	ReasonInvalidEnum   = "not a recognized value"
	ReasonDuplicate     = "duplicate"
	ReasonInconsistent  = "inconsistent"
)

// StripFences removes surrounding whitespace and an optional fenced-code
// wrapper (```json or ``` opening, ``` closing).
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseObject parses raw as a JSON object after stripping fences.
func parseObject(raw string) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(StripFences(raw)), &doc); err != nil || doc == nil {
		return nil, false
	}
	return doc, true
}

// decoder reads loosely-typed JSON values and records every substitution.
type decoder struct {
	warnings []FieldWarning
}

func (d *decoder) warn(field, reason string) {
	d.warnings = append(d.warnings, FieldWarning{Field: field, Reason: reason})
}

func fieldPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func index(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// object returns m[key] as an object. Absent or mis-shaped values yield an
// empty object.
func (d *decoder) object(m map[string]any, key, path string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		d.warn(path, ReasonMissing)
		return map[string]any{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		d.warn(path, ReasonWrongType)
		return map[string]any{}
	}
	return obj
}

// list returns m[key] as an array, or nil with a warning.
func (d *decoder) list(m map[string]any, key, path string) []any {
	v, ok := m[key]
	if !ok || v == nil {
		d.warn(path, ReasonMissing)
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		d.warn(path, ReasonWrongType)
		return nil
	}
	return items
}

func (d *decoder) str(m map[string]any, key, path, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		d.warn(path, ReasonMissing)
		return def
	}
	s, err := toScalarString(v)
	if err != nil {
		d.warn(path, ReasonWrongType)
		return def
	}
	return s
}

// optStr reads a nullable string; absence is not a substitution.
func (d *decoder) optStr(m map[string]any, key, path string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	s, err := toScalarString(v)
	if err != nil {
		d.warn(path, ReasonWrongType)
		return nil
	}
	return &s
}

func (d *decoder) integer(m map[string]any, key, path string, def int) int {
	v, ok := m[key]
	if !ok || v == nil {
		d.warn(path, ReasonMissing)
		return def
	}
	n, ok := d.intValue(v, path)
	if !ok {
		return def
	}
	return n
}

// intValue converts a present value to an int, warning on failure.
func (d *decoder) intValue(v any, path string) (int, bool) {
	if _, isBool := v.(bool); isBool || v == nil {
		d.warn(path, ReasonWrongType)
		return 0, false
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		d.warn(path, ReasonWrongType)
		return 0, false
	}
	return n, true
}

func (d *decoder) number(m map[string]any, key, path string, def float64) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		d.warn(path, ReasonMissing)
		return def
	}
	if _, isBool := v.(bool); isBool {
		d.warn(path, ReasonWrongType)
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		d.warn(path, ReasonWrongType)
		return def
	}
	return f
}

func (d *decoder) boolean(m map[string]any, key, path string, def bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		d.warn(path, ReasonMissing)
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		d.warn(path, ReasonWrongType)
		return def
	}
	return b
}

// stringList reads an array of scalars. Non-scalar elements are dropped.
func (d *decoder) stringList(m map[string]any, key, path string) []string {
	out := []string{}
	for i, item := range d.list(m, key, path) {
		s, err := toScalarString(item)
		if err != nil || item == nil {
			d.warn(index(path, i), ReasonWrongType)
			continue
		}
		out = append(out, s)
	}
	return out
}

// eachObject calls fn for every object element of the array m[key], with the
// element's field path. Other elements are dropped with a warning.
func (d *decoder) eachObject(m map[string]any, key, path string, fn func(itemPath string, obj map[string]any)) {
	for i, item := range d.list(m, key, path) {
		obj, ok := item.(map[string]any)
		if !ok {
			d.warn(index(path, i), ReasonWrongType)
			continue
		}
		fn(index(path, i), obj)
	}
}

func toScalarString(v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("not a scalar: %T", v)
	}
	return cast.ToStringE(v)
}
