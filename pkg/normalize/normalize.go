// Package normalize provides uniform field access over the heterogeneous
// payload shapes the remote graph API returns. Depending on API version and
// partial-failure behavior an item may arrive as a decoded JSON map or as a
// typed struct, and identifier fields drift between uuid, uuid_ and id.
package normalize

import (
	"reflect"
	"strings"
)

// uuidAliases lists the field names the remote API has used for item
// identifiers across versions, in lookup order.
var uuidAliases = []string{"uuid_", "id"}

// Field returns the named field from item. It tries key lookup first (for
// map-shaped items), then exported struct fields matched by name or json tag,
// and returns def when the field is absent or item is nil. Dotted names
// ("attributes.name") traverse nested items. Field never panics; absence is
// always recoverable.
func Field(item interface{}, name string, def interface{}) interface{} {
	if item == nil || name == "" {
		return def
	}

	if i := strings.IndexByte(name, '.'); i >= 0 {
		head := Field(item, name[:i], nil)
		if head == nil {
			return def
		}
		return Field(head, name[i+1:], def)
	}

	if v, ok := lookup(item, name); ok {
		return v
	}
	if name == "uuid" {
		for _, alias := range uuidAliases {
			if v, ok := lookup(item, alias); ok {
				return v
			}
		}
	}
	return def
}

// String is a convenience wrapper for Field when a string value is expected.
// Non-string values fall back to def.
func String(item interface{}, name, def string) string {
	if s, ok := Field(item, name, def).(string); ok {
		return s
	}
	return def
}

// Strings coerces a field holding a string list, accepting both []string and
// the []interface{} shape produced by encoding/json.
func Strings(item interface{}, name string) []string {
	switch v := Field(item, name, nil).(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Map coerces a field holding a nested object into a map.
func Map(item interface{}, name string) map[string]interface{} {
	if m, ok := Field(item, name, nil).(map[string]interface{}); ok {
		return m
	}
	return nil
}

func lookup(item interface{}, name string) (interface{}, bool) {
	if m, ok := item.(map[string]interface{}); ok {
		v, ok := m[name]
		return v, ok
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(name))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Struct:
		return structField(rv, name)
	default:
		return nil, false
	}
}

func structField(rv reflect.Value, name string) (interface{}, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == name {
			return rv.Field(i).Interface(), true
		}
		if strings.EqualFold(f.Name, strings.ReplaceAll(name, "_", "")) ||
			strings.EqualFold(f.Name, name) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}
