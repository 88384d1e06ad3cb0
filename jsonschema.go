package schemaforge

// JSONSchema is intentionally untyped to avoid coupling to any one JSON
// Schema library. A generated instance is whatever its root schema's type
// calls for — object, array, string, number, boolean, or null — so this
// carries any of them structurally, but not raw JSON bytes (use
// canonicaljson.Marshal if you need stable bytes).
type JSONSchema = any
