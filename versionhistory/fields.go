package versionhistory

import (
	"bytes"
	"maps"
	"reflect"
	"sort"
	"time"
)

// Fields is the snapshot of an entity's non-identity fields, keyed by field name.
type Fields map[string]any

// Clone returns a shallow copy of the mapping.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}

	return maps.Clone(f)
}

// Names returns the field names in ascending order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Equal compares the whole mapping: both must hold the same field names and every value must be equal.
// A single differing field makes the snapshots unequal.
func (f Fields) Equal(other Fields) bool {
	if len(f) != len(other) {
		return false
	}

	for name, value := range f {
		otherValue, ok := other[name]
		if !ok {
			return false
		}

		if !FieldValuesEqual(value, otherValue) {
			return false
		}
	}

	return true
}

// FieldValuesEqual compares two field values exactly.
//
// Timestamps are compared by instant (location and monotonic reading are ignored), also when they are
// nested in structs, maps, slices, or arrays. Byte slices are compared by content, pointers by what they
// point to, everything else like reflect.DeepEqual does. Timestamps in unexported struct fields can not be
// read through reflection and are compared like any other struct.
func FieldValuesEqual(a, b any) bool {
	a, aNil := indirect(a)
	b, bNil := indirect(b)

	if aNil || bNil {
		return aNil == bNil
	}

	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)

	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)

	default:
		return nestedValuesEqual(reflect.ValueOf(a), reflect.ValueOf(b), make(map[visit]struct{}))
	}
}

var timeType = reflect.TypeFor[time.Time]()

// visit marks a pair of references already being compared, so cyclic values terminate.
type visit struct {
	a, b uintptr
	typ  reflect.Type
}

func nestedValuesEqual(a, b reflect.Value, visited map[visit]struct{}) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}

	if a.Type() != b.Type() {
		return false
	}

	if a.Type() == timeType && a.CanInterface() && b.CanInterface() {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	}

	switch a.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}

		seen := visit{a: a.Pointer(), b: b.Pointer(), typ: a.Type()}
		if _, ok := visited[seen]; ok {
			return true
		}
		visited[seen] = struct{}{}
	}

	switch a.Kind() {
	case reflect.Pointer:
		return nestedValuesEqual(a.Elem(), b.Elem(), visited)

	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}

		return nestedValuesEqual(a.Elem(), b.Elem(), visited)

	case reflect.Struct:
		for i := range a.NumField() {
			if !nestedValuesEqual(a.Field(i), b.Field(i), visited) {
				return false
			}
		}

		return true

	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			return false
		}

		for i := range a.Len() {
			if !nestedValuesEqual(a.Index(i), b.Index(i), visited) {
				return false
			}
		}

		return true

	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}

		for iter := a.MapRange(); iter.Next(); {
			bValue := b.MapIndex(iter.Key())
			if !bValue.IsValid() || !nestedValuesEqual(iter.Value(), bValue, visited) {
				return false
			}
		}

		return true

	default:
		return scalarValuesEqual(a, b)
	}
}

// scalarValuesEqual compares leaf values, including those read from unexported fields.
func scalarValuesEqual(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	default:
		return false
	}
}

// indirect dereferences pointers and reports whether the value is nil.
func indirect(value any) (any, bool) {
	if value == nil {
		return nil, true
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true
		}

		rv = rv.Elem()
	}

	return rv.Interface(), false
}

// FieldSnapshotter extracts identity and field snapshot of one entity type.
type FieldSnapshotter[E any] interface {
	// Identity returns the entity's identity and false if the entity was never persisted.
	Identity(entity E) (string, bool)

	// Snapshot returns all fields of the entity except its identity.
	Snapshot(entity E) (Fields, error)
}

// SnapshotterFuncs builds a FieldSnapshotter from an explicit, compile-time known field list.
// Both functions are required.
type SnapshotterFuncs[E any] struct {
	IdentityFunc func(entity E) (string, bool)
	SnapshotFunc func(entity E) Fields
}

// Identity calls IdentityFunc.
func (s SnapshotterFuncs[E]) Identity(entity E) (string, bool) {
	return s.IdentityFunc(entity)
}

// Snapshot calls SnapshotFunc.
func (s SnapshotterFuncs[E]) Snapshot(entity E) (Fields, error) {
	return s.SnapshotFunc(entity), nil
}

func (s SnapshotterFuncs[E]) complete() bool {
	return s.IdentityFunc != nil && s.SnapshotFunc != nil
}
