package table

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Matches reports whether any top-level primitive field of row contains
// term. Nested structs, pointers, slices and maps are skipped; time.Time is
// compared in RFC 3339 form. term must already be lower case.
func Matches(row any, term string) bool {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		s, ok := primitive(v)
		return ok && strings.Contains(strings.ToLower(s), term)
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		s, ok := primitive(v.Field(i))
		if ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func primitive(v reflect.Value) (string, bool) {
	if v.Type() == timeType {
		ts := v.Interface().(time.Time)
		if ts.IsZero() {
			return "", false
		}
		return ts.Format(time.RFC3339), true
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}
