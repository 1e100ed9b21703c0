// Package harness checks that the in-memory and SQL backends agree.
//
// A scenario names a model, a set of fixture entities and filter cases.
// Run loads the fixtures into a linked entity graph for the in-memory
// backend and into a fresh SQLite database for the SQL backend, evaluates
// every case on both and compares the primary values each returns with the
// case's expectation.
//
// # Scenario Format
//
//	name: library
//	description: "Filters over the library model"
//	model: ../models/library.yaml
//	entity: Book
//	fixtures:
//	  - type: Author
//	    values: {id: 1, lastName: Doe}
//	  - type: Book
//	    values: {id: 1, title: Dune, author: 1, tags: [1]}
//	cases:
//	  - name: by_author
//	    where: {author->lastName: Doe}
//	    expect: [1]
//	  - name: sorted
//	    order: [{path: author->lastName, direction: desc}]
//	    expect: [1]
//	  - name: bad_hop
//	    where: {title->x: 1}
//	    error: MISSING_RELATIONSHIP
//
// Relationship values in fixtures are the primary values of their targets;
// inverse sides are linked automatically. Cases without an order compare
// results as sets. A case marked golden also snapshots its compiled SQL
// (see RunWithGolden).
package harness
