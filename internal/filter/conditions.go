package filter

import (
	"sort"
	"strings"
)

// Conditions converts a condition map into a conjunction. Each key is a
// condition key (see ParseCondition) compared with its value. The keys "AND"
// and "OR" take a list of nested condition maps.
//
//	{"author->lastName": "Doe", "publishedAt>=": "2020-01-01",
//	 "OR": [{"tags->name": "scifi"}, {"tags->name": "drama"}]}
//
// Keys are processed in sorted order so the result is deterministic.
func Conditions(conds map[string]any) (Call, error) {
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	calls := make([]Call, 0, len(keys))
	for _, key := range keys {
		v := conds[key]
		switch strings.ToUpper(key) {
		case "AND", "OR":
			nested, err := nestedConditions(key, v)
			if err != nil {
				return Call{}, err
			}
			if strings.ToUpper(key) == "AND" {
				calls = append(calls, NewAnd(nested...))
			} else {
				calls = append(calls, NewOr(nested...))
			}
		default:
			op, path, err := ParseCondition(key)
			if err != nil {
				return Call{}, err
			}
			calls = append(calls, Compare(path, op, v))
		}
	}

	return NewAnd(calls...), nil
}

func nestedConditions(key string, v any) ([]Call, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, NewInvalidArgumentError("%s must be a list of condition maps", key)
	}
	calls := make([]Call, 0, len(items))
	for _, item := range items {
		m, ok := toStringMap(item)
		if !ok {
			return nil, NewInvalidArgumentError("%s items must be condition maps, got %T", key, item)
		}
		c, err := Conditions(m)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, nil
}

// toStringMap accepts the map shapes produced by yaml.v3 and encoding/json.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
