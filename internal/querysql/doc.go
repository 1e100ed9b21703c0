// Package querysql translates filter expressions and sort orders into SQL.
//
// Property paths become LEFT JOINs named after the property and its depth
// (author, books_, tags__). Hops over to-many relationships group the query
// by the base table's primary key so each row is returned once, and add a
// guard so a row whose collection is empty cannot match through the
// NULL-extended join.
//
// All values are bound as parameters; statements render through squirrel
// with "?" placeholders, or "$n" for postgres.
package querysql
