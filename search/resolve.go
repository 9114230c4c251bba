package search

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/sift/core"
)

// FieldsProvider declares which parts of an item are searchable.
// Use Static, StaticTexts, Computed or ComputedTexts to build one.
type FieldsProvider[T any] interface {
	fieldsFor(item T) []core.Field
}

type staticProvider[T any] struct {
	fields []core.Field
}

func (p staticProvider[T]) fieldsFor(T) []core.Field {
	return p.fields
}

type computedProvider[T any] struct {
	fn func(T) []core.Field
}

func (p computedProvider[T]) fieldsFor(item T) []core.Field {
	if p.fn == nil {
		return nil
	}
	return p.fn(item)
}

// Static uses the same fields for every item.
func Static[T any](fields ...core.Field) FieldsProvider[T] {
	return staticProvider[T]{fields: fields}
}

// StaticTexts uses the same plain text fields for every item.
func StaticTexts[T any](texts ...string) FieldsProvider[T] {
	return staticProvider[T]{fields: textFields(texts)}
}

// Computed derives fields from each item. The function is called once per
// item per search.
func Computed[T any](fn func(item T) []core.Field) FieldsProvider[T] {
	return computedProvider[T]{fn: fn}
}

// ComputedTexts derives plain text fields from each item.
func ComputedTexts[T any](fn func(item T) []string) FieldsProvider[T] {
	if fn == nil {
		return computedProvider[T]{}
	}
	return computedProvider[T]{fn: func(item T) []core.Field {
		return textFields(fn(item))
	}}
}

func textFields(texts []string) []core.Field {
	fields := make([]core.Field, len(texts))
	for i, text := range texts {
		fields[i] = core.Field{Text: text}
	}
	return fields
}

// ResolveFields returns the ordered search fields for an item.
//
// An explicit provider wins. Without one, items implementing core.Searchable
// supply their own fields and everything else is inspected by reflection.
// Provider and Searchable results drop entries with empty text.
func ResolveFields[T any](item T, provider FieldsProvider[T]) []core.Field {
	if provider != nil {
		return compactFields(provider.fieldsFor(item))
	}
	if s, ok := any(item).(core.Searchable); ok && !isNilValue(reflect.ValueOf(s)) {
		return compactFields(s.SearchFields())
	}
	return DefaultFields(item)
}

func compactFields(fields []core.Field) []core.Field {
	out := make([]core.Field, 0, len(fields))
	for _, f := range fields {
		if f.Text == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DefaultFields derives fields from an item's shape.
//
//   - strings and numbers yield a single field holding their text form
//   - string-keyed maps and structs yield one field per string or number
//     value, skipping entries named "id" or "key"
//   - anything else yields a single empty field, which never matches
//
// Map keys are visited in sorted order. Struct fields are visited in
// declaration order; the tag `search:"-"` skips a field and
// `search:"exact"` requires whole-value matches.
func DefaultFields(item any) []core.Field {
	v := indirect(reflect.ValueOf(item))
	if !v.IsValid() {
		return emptyField()
	}

	if text, ok := scalarText(v); ok {
		return []core.Field{{Text: text}}
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)

		fields := make([]core.Field, 0, len(keys))
		for _, k := range keys {
			if k == "id" || k == "key" {
				continue
			}
			value := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
			if text, ok := scalarText(indirect(value)); ok {
				fields = append(fields, core.Field{Text: text})
			}
		}
		return fields
	case reflect.Struct:
		return structFields(v)
	}
	return emptyField()
}

func structFields(v reflect.Value) []core.Field {
	t := v.Type()
	fields := make([]core.Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || core.IsIdentifierName(sf.Name) {
			continue
		}
		tag := sf.Tag.Get("search")
		if tag == "-" {
			continue
		}
		text, ok := scalarText(indirect(v.Field(i)))
		if !ok {
			continue
		}
		fields = append(fields, core.Field{Text: text, Entirely: tagHas(tag, "exact")})
	}
	return fields
}

func tagHas(tag, option string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == option {
			return true
		}
	}
	return false
}

// scalarText formats strings and numbers. Floats use the shortest
// representation without an exponent.
func scalarText(v reflect.Value) (string, bool) {
	if !v.IsValid() {
		return "", false
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}

// indirect unwraps interfaces and pointers. A nil pointer or interface
// becomes the invalid Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func emptyField() []core.Field {
	return []core.Field{{Text: ""}}
}
