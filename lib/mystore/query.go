package mystore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// applyQuery filters and orders in process for the backends that cannot do it natively.
func applyQuery[T any](items []T, filters []Filter, orderByField string) ([]T, error) {
	result := make([]T, 0, len(items))
	for _, item := range items {
		ok, err := matchesAll(item, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, item)
		}
	}

	if orderByField == "" {
		return result, nil
	}

	descending := strings.HasPrefix(orderByField, "-")
	fieldName := strings.TrimPrefix(orderByField, "-")

	var sortErr error
	sort.SliceStable(result, func(i, j int) bool {
		left, err := fieldOf(result[i], fieldName)
		if err != nil {
			sortErr = err
			return false
		}
		right, err := fieldOf(result[j], fieldName)
		if err != nil {
			sortErr = err
			return false
		}
		if descending {
			return less(right, left)
		}
		return less(left, right)
	})
	if sortErr != nil {
		return nil, sortErr
	}

	return result, nil
}

func matchesAll[T any](item T, filters []Filter) (bool, error) {
	for _, f := range filters {
		if f.Compare != "=" {
			return false, fmt.Errorf("unsupported comparison %q on field %s", f.Compare, f.Field)
		}
		value, err := fieldOf(item, f.Field)
		if err != nil {
			return false, err
		}
		if !equal(value, reflect.ValueOf(f.Value)) {
			return false, nil
		}
	}
	return true, nil
}

func fieldOf[T any](item T, name string) (reflect.Value, error) {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("cannot query on %T: not a struct", item)
	}
	field := v.FieldByName(name)
	if !field.IsValid() {
		return reflect.Value{}, fmt.Errorf("type %T has no field %s", item, name)
	}
	return field, nil
}

func equal(field reflect.Value, value reflect.Value) bool {
	if !value.IsValid() {
		return field.IsZero()
	}
	switch field.Kind() {
	case reflect.String:
		return value.Kind() == reflect.String && field.String() == value.String()
	case reflect.Bool:
		return value.Kind() == reflect.Bool && field.Bool() == value.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.CanInt() && field.Int() == value.Int()
	case reflect.Float32, reflect.Float64:
		return value.CanFloat() && field.Float() == value.Float()
	}
	return reflect.DeepEqual(field.Interface(), value.Interface())
}

func less(left reflect.Value, right reflect.Value) bool {
	switch left.Kind() {
	case reflect.String:
		return left.String() < right.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return left.Int() < right.Int()
	case reflect.Float32, reflect.Float64:
		return left.Float() < right.Float()
	case reflect.Bool:
		return !left.Bool() && right.Bool()
	}
	if lt, ok := left.Interface().(time.Time); ok {
		return lt.Before(right.Interface().(time.Time))
	}
	return false
}
