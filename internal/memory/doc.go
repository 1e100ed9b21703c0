// Package memory evaluates filter expressions and sort orders against loaded
// entity graphs.
//
// Property paths are resolved with an explicit work queue. Crossing a
// to-many relationship fans out: every member continues the rest of the
// path and the resolved value becomes the list of reachable leaf values.
// Comparisons over such a list are existential, so
//
//	tags->name = "scifi"
//
// matches a book when any of its tags is named "scifi", and never matches a
// book without tags.
//
// A Helper is cheap to create and holds no state between calls beyond the
// read-only model and registry.
package memory
