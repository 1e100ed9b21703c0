// Package meta holds the entity metadata the filter engine resolves property
// paths against.
//
// A Model is built once from EntityDefinitions (usually loaded by package
// schema) and is read-only afterwards, so one Model can be shared by every
// compilation in the process.
//
// The model answers three kinds of questions:
//
//   - Entity metadata: properties, primary key, relationships (Entity, Property).
//   - Storage naming: table and column names (Mapper, StorageReflection).
//   - Junction linkage for many-has-many relationships (Mapper.ManyHasManyParameters).
//
// Lookups never fall back silently. An unknown entity type or property is a
// *LookupError.
package meta
