package filter

import (
	"regexp"
	"strings"
)

// PropertyExpr is a parsed property path.
type PropertyExpr struct {
	// Tokens are the property names from the anchor entity to the terminal
	// property.
	Tokens []string

	// Source overrides the anchor entity type; empty means the default.
	Source string
}

var (
	sourcePrefix = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)::(.+)$`)
	tokenPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ParsePropertyExpr parses "Type::a->b->c". Tokens may also be separated by
// dots, and a leading "this" token is dropped.
func ParsePropertyExpr(expr string) (PropertyExpr, error) {
	var out PropertyExpr
	rest := strings.TrimSpace(expr)

	if m := sourcePrefix.FindStringSubmatch(rest); m != nil {
		out.Source = m[1]
		rest = m[2]
	}

	rest = strings.ReplaceAll(rest, "->", ".")
	tokens := strings.Split(rest, ".")
	if len(tokens) > 1 && tokens[0] == "this" {
		tokens = tokens[1:]
	}
	for _, tok := range tokens {
		if !tokenPattern.MatchString(tok) {
			return PropertyExpr{}, NewInvalidArgumentError("invalid property expression %q", expr)
		}
	}
	out.Tokens = tokens
	return out, nil
}

// ParseCondition splits a condition key such as "publishedAt>=" into the
// operator and the property path. A key without operator suffix means
// equality.
func ParseCondition(key string) (op, path string, err error) {
	key = strings.TrimSpace(key)
	op = OpEqual
	for _, candidate := range Operators {
		if strings.HasSuffix(key, candidate) {
			op = candidate
			key = strings.TrimSpace(strings.TrimSuffix(key, candidate))
			break
		}
	}
	if _, err := ParsePropertyExpr(key); err != nil {
		return "", "", err
	}
	return op, key, nil
}
