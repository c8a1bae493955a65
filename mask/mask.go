// Package mask redacts sensitive struct fields before they reach logs or
// the config print on startup.
package mask

import (
	"fmt"
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const tagName = "mask"

// placeholder is what a masked non-zero value is replaced with.
const placeholder = "******"

// Struct returns an ordered map of the struct's fields with values of
// fields tagged `mask:"true"` replaced by a placeholder.
// Nested structs are flattened with dot-joined names. Field names follow
// yaml tag > json tag > struct field name; a "-" tag omits the field.
func Struct(v any) *orderedmap.OrderedMap[string, any] {
	if v == nil {
		return nil
	}
	return walk(reflect.ValueOf(v), "")
}

func walk(val reflect.Value, prefix string) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()

	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			om.Set(prefix, nil)
			return om
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		om.Set(prefix, val.Interface())
		return om
	}

	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		ftype := typ.Field(i)

		if !ftype.IsExported() {
			continue
		}

		name, skip := fieldName(ftype)
		if skip {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		switch {
		case strings.EqualFold(ftype.Tag.Get(tagName), "true"):
			om.Set(name, redact(field))
		case nestedStruct(field):
			for pair := walk(field, name).Oldest(); pair != nil; pair = pair.Next() {
				om.Set(pair.Key, pair.Value)
			}
		default:
			om.Set(name, field.Interface())
		}
	}

	return om
}

func nestedStruct(val reflect.Value) bool {
	kind := val.Kind()
	if kind == reflect.Pointer {
		if val.IsNil() {
			return false
		}
		kind = val.Elem().Kind()
	}
	return kind == reflect.Struct
}

// redact keeps nils and zero values as-is so an operator can still tell
// whether a secret was configured at all.
func redact(val reflect.Value) any {
	switch val.Kind() { //nolint:exhaustive // remaining kinds fall through
	case reflect.Pointer:
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	case reflect.Slice, reflect.Map:
		if val.IsNil() {
			return nil
		}
	}

	if val.IsZero() {
		return val.Interface()
	}

	if val.Kind() == reflect.String {
		return placeholder
	}
	return fmt.Sprintf("%s(%s)", placeholder, val.Kind())
}

// fieldName resolves the printed name: yaml tag first (configs are the main
// consumer), then json, then the Go field name. A "-" tag omits the field.
func fieldName(field reflect.StructField) (string, bool) {
	for _, tag := range []string{"yaml", "json"} {
		v, ok := field.Tag.Lookup(tag)
		if !ok {
			continue
		}
		if v == "-" {
			return "", true
		}
		if idx := strings.Index(v, ","); idx != -1 {
			v = v[:idx]
		}
		if v != "" {
			return v, false
		}
	}
	return field.Name, false
}
