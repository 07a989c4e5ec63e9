package utils

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxNormalizeDepth = 50

	circularMarker = "<<circular>>"
	maxDepthMarker = "<<max_depth>>"
)

// ToJSONSafe recursively coerces a value into plain JSON-encodable shapes:
// maps, slices, strings, numbers, bools and nil. Catalog rows carry UUIDs,
// timestamps and decimals that encoding/json either rejects or renders with
// precision loss, so every API payload and snapshot passes through here
// first. Circular references collapse to "<<circular>>" and recursion is
// capped at 50 levels with "<<max_depth>>".
func ToJSONSafe(value any) any {
	return toJSONSafe(reflect.ValueOf(value), map[uintptr]bool{}, 0)
}

func toJSONSafe(v reflect.Value, seen map[uintptr]bool, depth int) any {
	if depth > maxNormalizeDepth {
		return maxDepthMarker
	}
	if !v.IsValid() {
		return nil
	}

	// seen holds the pointers on the current descent path only; a value
	// referenced from two sibling branches is not a cycle.
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Pointer {
			ptr := v.Pointer()
			if seen[ptr] {
				return circularMarker
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		v = v.Elem()
	}

	switch concrete := v.Interface().(type) {
	case uuid.UUID:
		return concrete.String()
	case time.Time:
		return concrete.Format(time.RFC3339)
	case decimal.Decimal:
		return concrete.String()
	case []byte:
		return strings.ToValidUTF8(string(concrete), "�")
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		// json.Marshal rejects NaN and infinities.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(f)
		}
		return f
	case reflect.String:
		return v.String()
	case reflect.Map:
		// Empty containers cannot participate in a cycle; tracking them
		// would false-positive on shared zero-length backing arrays.
		if v.Len() > 0 {
			ptr := v.Pointer()
			if seen[ptr] {
				return circularMarker
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			out[key] = toJSONSafe(iter.Value(), seen, depth+1)
		}
		return out
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Len() > 0 {
			ptr := v.Pointer()
			if seen[ptr] {
				return circularMarker
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = toJSONSafe(v.Index(i), seen, depth+1)
		}
		return out
	case reflect.Struct:
		return structToJSONSafe(v, seen, depth)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func structToJSONSafe(v reflect.Value, seen map[uintptr]bool, depth int) map[string]any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		named := false
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
				named = true
			}
		}
		if f.Anonymous && !named {
			// Embedded structs flatten into the parent, like encoding/json.
			if nested, ok := toJSONSafe(v.Field(i), seen, depth+1).(map[string]any); ok {
				for k, val := range nested {
					out[k] = val
				}
				continue
			}
		}
		out[name] = toJSONSafe(v.Field(i), seen, depth+1)
	}
	return out
}
