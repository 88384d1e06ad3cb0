// Package schemaforge is the planning and generation engine behind a
// JSON-Schema-driven synthetic-data tool. Given a JSON Schema, it
// produces instances that satisfy the schema's constraints, through
// three subsystems run in sequence:
//
//   - Normalize rewrites a user schema into a canonical AST (canon.Tree)
//     with full pointer provenance: local $ref inlining, allOf
//     flattening, the dependentRequired → if/then expansion, and the
//     propertyNames enum-form rewrite. It performs no boolean
//     simplification, no draft unification and no if/then/else rewrite.
//   - Compose walks the canonical tree and derives a Plan: a coverage
//     index per object-like node, a contains bag per array-like node,
//     and a scored branch decision per oneOf/anyOf.
//   - Generate consumes the Plan and draws `count` items from it,
//     deterministically, using an XorShift32 RNG seeded by
//     (globalSeed, canonPath).
//
// Engine ties the three together; NewEngine and Run are the entry
// points most callers want.
//
// # Quick Start
//
//	eng := schemaforge.NewEngine()
//	opts := planopts.New(planopts.WithCount(3), planopts.WithSeed(42))
//	results, envelope, err := eng.Run(schema, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range results {
//	    if v, ok := r.Value(); ok {
//	        fmt.Println(v)
//	    }
//	}
//
// # Determinism
//
// Every stochastic decision is seeded purely by (globalSeed, canonPath);
// identical inputs and identical (seed, planOptions) produce
// byte-identical plans and items. Logging, via an injected *zap.Logger,
// never participates in this: two runs at different log levels produce
// identical results.
//
// # Concurrency
//
// The engine is single-threaded and fully synchronous per call: Run
// performs no I/O and holds no state across calls beyond what it
// returns. A single Engine value is safe to reuse across sequential or
// concurrent Run calls, since neither Normalize, Compose, nor Generate
// mutate shared state.
//
// # Subpackages
//
//   - pointer: RFC 6901 JSON Pointer join/parse/resolve
//   - dialect: $schema draft-URI parsing and ordinal comparison
//   - canonicaljson: RFC 8785 (JCS) deterministic JSON serialization
//   - canon: the canonical AST (Node sum type, pointer maps, notes)
//   - regexanalyze: regex classification and anchored-literal lifting
//   - automaton: Thompson NFA → DFA → bounded BFS enumeration
//   - rng: the deterministic XorShift32 generator
//   - diagnostics: the diagnostic envelope and collector
//   - planopts: the PlanOptions/ComposeOptions functional-options builder
//   - memo: the bounded LRU branch-decision cache
//   - normalize: the Normalize subsystem
//   - compose: the Compose subsystem
//   - validator: the reference-validator adapter interface
//   - generate: the Generate subsystem
package schemaforge
