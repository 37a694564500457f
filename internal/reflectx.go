package internal

import (
	"reflect"
	"strings"
)

// ParseSiriusTag parses `sirius:"-"` and reports whether the field is
// skipped. Unknown options are ignored so tags can grow without breaking
// existing types.
func ParseSiriusTag(f reflect.StructField) (skip bool) {
	tag, ok := f.Tag.Lookup("sirius")
	if !ok {
		return false
	}
	parts := strings.Split(tag, ",")
	return strings.TrimSpace(parts[0]) == "-"
}

// Fields returns the indices of the encodable fields of struct type t in
// declaration order: exported, not tagged `sirius:"-"`, and not blank.
func Fields(t reflect.Type) []int {
	var out []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Name == "_" {
			continue
		}
		if ParseSiriusTag(f) {
			continue
		}
		out = append(out, i)
	}
	return out
}
