// Package value normalizes filter literals and entity values into comparable
// scalars and implements the comparisons both backends agree on.
//
// Normalized scalars are nil, bool, int64, float64, string and []any of
// normalized scalars. Timestamps become Unix seconds and entities become
// their primary value.
package value

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/meta"
)

// Normalize converts raw into a storage-comparable scalar for prop.
//
// Rules, in order: an entity becomes its primary value (nil if unset); a
// non-nil value of a datetime property becomes Unix seconds, parsing strings
// first; anything else goes through Scalar. Slices are normalized element
// by element.
func Normalize(raw any, prop *meta.Property) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if e, ok := raw.(entity.Entity); ok {
		id, ok := entity.PrimaryValue(e)
		if !ok {
			return nil, nil
		}
		return Scalar(id), nil
	}
	if list, ok := ToSlice(raw); ok {
		out := make([]any, len(list))
		for i, item := range list {
			v, err := Normalize(item, prop)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	if prop != nil && prop.IsDateTime() {
		return Timestamp(raw)
	}
	return Scalar(raw), nil
}

// Timestamp converts a time value, a date/time string or a Unix timestamp
// to Unix seconds.
func Timestamp(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.Unix(), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.Unix(), nil
	}
	t, err := cast.ToTimeE(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid datetime value %v: %w", raw, err)
	}
	return t.Unix(), nil
}

// Scalar widens numbers to int64/float64, puts strings in Unicode NFC, turns
// uuids into strings and entities into primary values. Unsigned values above
// math.MaxInt64 stay uint64. Other values pass through.
func Scalar(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return uint64(x)
		}
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return x
		}
		return int64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	case string:
		return norm.NFC.String(x)
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.Unix()
	case entity.Entity:
		id, ok := entity.PrimaryValue(x)
		if !ok {
			return nil
		}
		return Scalar(id)
	}
	if list, ok := ToSlice(v); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = Scalar(item)
		}
		return out
	}
	return v
}

// ToSlice materializes any slice or array (except []byte) into []any.
func ToSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return x, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Equal compares two normalized values. Numbers compare by value across
// int64/float64, booleans compare as 0/1 against numbers, slices compare
// element-wise.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
		return false
	}
	la, aList := a.([]any)
	lb, bList := b.([]any)
	if aList || bList {
		if !aList || !bList || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// In reports whether v equals any element of list.
func In(v any, list []any) bool {
	for _, item := range list {
		if Equal(v, item) {
			return true
		}
	}
	return false
}

// Compare orders two normalized values of the same kind. It reports false
// when either side is nil or the kinds are not comparable, which mirrors SQL
// where a comparison with NULL is never true.
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		if !ok {
			return 0, false
		}
		return compareFloat(fa, fb), true
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

// SortCompare is the total order used by sorting: nil sorts before any
// non-nil value, numbers compare numerically, slices compare element-wise
// and everything else by ordinal string comparison.
func SortCompare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	la, aList := a.([]any)
	lb, bList := b.([]any)
	if aList || bList {
		if !aList {
			la = []any{a}
		}
		if !bList {
			lb = []any{b}
		}
		for i := 0; i < len(la) && i < len(lb); i++ {
			if c := SortCompare(la[i], lb[i]); c != 0 {
				return c
			}
		}
		return compareInt(len(la), len(lb))
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return compareFloat(fa, fb)
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case int:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
