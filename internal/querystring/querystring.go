// Package querystring encodes TMDB request parameter structs into URL query values.
//
// Fields are selected with a `url:"name[,omitempty]"` tag. Slices are joined
// with commas, which is how TMDB expects list parameters such as
// append_to_response or with_genres. Anonymous embedded structs are flattened.
package querystring

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Values encodes a struct into URL query string values
func Values(v interface{}) (url.Values, error) {
	values := url.Values{}
	if v == nil {
		return values, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return values, nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("querystring: Values() expects struct input, got %v", rv.Kind())
	}

	if err := encodeStruct(values, rv); err != nil {
		return nil, err
	}
	return values, nil
}

func encodeStruct(values url.Values, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if fieldType.Anonymous && field.Kind() == reflect.Struct {
			if err := encodeStruct(values, field); err != nil {
				return err
			}
			continue
		}

		tag := fieldType.Tag.Get("url")
		if tag == "" || tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if opts == "omitempty" && isZero(field) {
			continue
		}

		s, err := encodeValue(name, field)
		if err != nil {
			return err
		}
		values.Set(name, s)
	}
	return nil
}

func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return v.IsZero()
}

func encodeValue(name string, v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Ptr:
		if v.IsNil() {
			return "", nil
		}
		return encodeValue(name, v.Elem())
	case reflect.Slice:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, err := encodeValue(name, v.Index(i))
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("querystring: unsupported type %v for field %s", v.Kind(), name)
	}
}
