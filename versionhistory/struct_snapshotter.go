package versionhistory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

const snapshotTagName = "db"

var (
	ErrUnsupportedEntityType = errors.New("entity type must be a struct or a pointer to a struct")
	ErrUnknownIdentityField  = errors.New("identity field is not a field of the entity type")
)

// structMapper resolves field names the same way sqlx does: the db tag, or the lowercased Go field name.
var structMapper = reflectx.NewMapperFunc(snapshotTagName, strings.ToLower)

// StructSnapshotter is a reflection based FieldSnapshotter for struct entities (or pointers to structs).
//
// Field names follow sqlx conventions: the name from the `db` struct tag, otherwise the lowercased Go field name.
// Fields tagged `db:"-"` and unexported fields are not part of the snapshot. Fields of embedded structs are
// promoted, nested (non-embedded) structs are snapshotted as one value.
// Fields promoted through a nil embedded pointer are snapshotted as nil.
type StructSnapshotter[E any] struct {
	identityField string
	structType    reflect.Type
	fields        []*reflectx.FieldInfo
	identity      *reflectx.FieldInfo
}

// NewStructSnapshotter creates a StructSnapshotter for E whose identity is held by identityField.
func NewStructSnapshotter[E any](identityField string) (StructSnapshotter[E], error) {
	if identityField == "" {
		return StructSnapshotter[E]{}, ErrEmptyIdentityField
	}

	structType := reflectx.Deref(reflect.TypeFor[E]())
	if structType.Kind() != reflect.Struct {
		return StructSnapshotter[E]{}, ErrUnsupportedEntityType
	}

	typeMap := structMapper.TypeMap(structType)

	identity, ok := typeMap.Names[identityField]
	if !ok {
		return StructSnapshotter[E]{}, errors.Join(ErrUnknownIdentityField, fmt.Errorf("field %q", identityField))
	}

	seen := make(map[string]struct{})
	fields := make([]*reflectx.FieldInfo, 0, len(typeMap.Index))

	for _, fieldInfo := range typeMap.Index {
		if fieldInfo.Embedded || fieldInfo.Name == "" || strings.Contains(fieldInfo.Path, ".") {
			continue
		}

		if fieldInfo.Name == identityField {
			continue
		}

		if _, duplicate := seen[fieldInfo.Name]; duplicate {
			continue // shadowed by a shallower field
		}

		seen[fieldInfo.Name] = struct{}{}
		fields = append(fields, fieldInfo)
	}

	return StructSnapshotter[E]{
		identityField: identityField,
		structType:    structType,
		fields:        fields,
		identity:      identity,
	}, nil
}

// Identity returns the identity field formatted with fmt, and false for a zero identity or a nil entity.
func (s StructSnapshotter[E]) Identity(entity E) (string, bool) {
	structValue, ok := s.structValue(entity)
	if !ok {
		return "", false
	}

	idValue, reachable := fieldByIndex(structValue, s.identity.Index)
	if !reachable || idValue.IsZero() {
		return "", false
	}

	if idValue.Kind() == reflect.Pointer {
		idValue = idValue.Elem()
	}

	return fmt.Sprint(idValue.Interface()), true
}

// Snapshot returns all mapped fields except the identity.
func (s StructSnapshotter[E]) Snapshot(entity E) (Fields, error) {
	structValue, ok := s.structValue(entity)
	if !ok {
		return nil, ErrUnsupportedEntityType
	}

	snapshot := make(Fields, len(s.fields))
	for _, fieldInfo := range s.fields {
		fieldValue, reachable := fieldByIndex(structValue, fieldInfo.Index)
		if !reachable {
			snapshot[fieldInfo.Name] = nil
			continue
		}

		snapshot[fieldInfo.Name] = fieldValue.Interface()
	}

	return snapshot, nil
}

// FieldNames returns the snapshotted field names in declaration order.
func (s StructSnapshotter[E]) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for _, fieldInfo := range s.fields {
		names = append(names, fieldInfo.Name)
	}

	return names
}

func (s StructSnapshotter[E]) structValue(entity E) (reflect.Value, bool) {
	value := reflect.ValueOf(entity)
	if !value.IsValid() {
		return reflect.Value{}, false
	}

	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, false
		}

		value = value.Elem()
	}

	if value.Type() != s.structType {
		return reflect.Value{}, false
	}

	return value, true
}

// fieldByIndex follows index through embedded structs. It reports false when an embedded pointer on the way is nil.
func fieldByIndex(structValue reflect.Value, index []int) (reflect.Value, bool) {
	value := structValue
	for depth, fieldIndex := range index {
		if depth > 0 && value.Kind() == reflect.Pointer {
			if value.IsNil() {
				return reflect.Value{}, false
			}

			value = value.Elem()
		}

		value = value.Field(fieldIndex)
	}

	return value, true
}
