package generate

import (
	"strconv"

	"github.com/schemaforge/schemaforge-go/rng"
)

// generateFromSchema generates a value directly from a raw, already-
// normalized schema map that never became its own canon.Node — the
// embedded schemas Normalize leaves in place for "contains",
// "patternProperties" values, and additionalProperties-as-schema (spec.md
// §3's embedded-vs-child split). Compose never walks these, so there is no
// Plan entry to consume: oneOf/anyOf here fall back to the first branch
// (stable, index-0) rather than a scored decision, which is a deliberate,
// narrower behavior than top-level branch consumption.
func generateFromSchema(schema map[string]any, ctx *Context, canonPath string) (any, *Failure) {
	if schema == nil {
		return "", nil
	}
	if v, ok := schema["const"]; ok {
		return v, nil
	}
	if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 {
		return enum[0], nil
	}

	types := typeSet(schema)
	switch primaryType(types) {
	case "object":
		return generateObjectFromSchema(schema, ctx, canonPath)
	case "array":
		return generateArrayFromSchema(schema, ctx, canonPath)
	}

	if branches, ok := schema["oneOf"].([]any); ok && len(branches) > 0 {
		if bm, ok := branches[0].(map[string]any); ok {
			return generateFromSchema(bm, ctx, canonPath+"/oneOf/0")
		}
	}
	if branches, ok := schema["anyOf"].([]any); ok && len(branches) > 0 {
		if bm, ok := branches[0].(map[string]any); ok {
			return generateFromSchema(bm, ctx, canonPath+"/anyOf/0")
		}
	}

	if format, ok := schema["format"].(string); ok && format != "" && ctx.Opts.ValidateFormats {
		r := rng.New(ctx.Seed, ctx.itemPath(canonPath))
		if s, ok := generateFormatValue(ctx, format, r, canonPath); ok {
			return enforceStringLength(s, schema), nil
		}
	}

	switch primaryType(types) {
	case "boolean":
		return false, nil
	case "null":
		return nil, nil
	case "integer":
		return generateNumber(schema, ctx, canonPath, true), nil
	case "number":
		return generateNumber(schema, ctx, canonPath, false), nil
	case "string":
		return enforceStringLength("", schema), nil
	default:
		return "", nil
	}
}

func generateObjectFromSchema(schema map[string]any, ctx *Context, canonPath string) (any, *Failure) {
	out := map[string]any{}
	props, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]any)
	for _, r := range required {
		key, ok := r.(string)
		if !ok {
			continue
		}
		propSchema, _ := props[key].(map[string]any)
		v, failure := generateFromSchema(propSchema, ctx, canonPath+"/properties/"+key)
		if failure != nil {
			return nil, failure
		}
		out[key] = v
	}
	return out, nil
}

func generateArrayFromSchema(schema map[string]any, ctx *Context, canonPath string) (any, *Failure) {
	minItems := 0
	if v, ok := toFloat(schema["minItems"]); ok {
		minItems = int(v)
	}
	itemsSchema, _ := schema["items"].(map[string]any)
	out := make([]any, 0, minItems)
	for i := 0; i < minItems; i++ {
		v, failure := generateFromSchema(itemsSchema, ctx, canonPath+"/items/"+strconv.Itoa(i))
		if failure != nil {
			return nil, failure
		}
		out = append(out, v)
	}
	return out, nil
}
