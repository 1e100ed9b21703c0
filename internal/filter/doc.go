// Package filter defines the backend-agnostic filter expression tree and the
// operator functions that evaluate it.
//
// An expression is a Call: a function key plus arguments. The built-in keys
// are ValueOperator (compare a property path with a literal), And and Or.
// Any other key is resolved through a per-repository Registry.
//
// Operator functions are polymorphic over two backends. Each function
// implements at least one of four capability interfaces:
//
//	                  flat                        nested
//	in-memory         ArrayFilterFunction         ArrayNestedFilterFunction
//	SQL               QueryFilterFunction         QueryNestedFilterFunction
//
// Backends (package memory and package querysql) check the same capability
// set and call back into their helper (ArrayHelper, QueryHelper) to resolve
// property paths and normalize literals. Nested functions compose: And and
// Or dispatch every argument back through the helper, so boolean structure
// nests uniformly in both backends.
//
// Example:
//
//	call := filter.NewAnd(
//	    filter.Compare("tags->name", filter.OpEqual, "scifi"),
//	    filter.Compare("publishedAt", filter.OpGreaterOrEqual, "2020-01-01"),
//	)
package filter
