// Package normalize implements the engine's Normalize subsystem
// (spec.md §3): it rewrites a user JSON Schema into a canonical AST
// (canon.Tree) with full pointer provenance, performing local $ref
// inlining, allOf flattening, the dependentRequired → if/then expansion,
// and the propertyNames enum-form rewrite, while tagging every rewrite's
// origin and recording a Note for anything the rest of the engine needs
// to know about later. Boolean schemas become Always nodes as written; no
// further boolean simplification, no draft unification (definitions, id,
// nullable and array-form items stay as authored) and no if/then/else
// rewrite is performed (if/then/else bodies are normalized in place).
//
// Grounded on schemaprofile.Normalizer.normalizeAt/resolveRef (the
// recursive-normalize-with-cycle-detecting-ref-stack shape) and
// allof.go's merge rules (normalize/allof.go), generalized from the
// profile's restricted v0.1 keyword set to the full draft surface
// spec.md names, and retargeted to emit a canon.Tree instead of a bare
// map[string]any.
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/dialect"
	"github.com/schemaforge/schemaforge-go/pointer"
	"github.com/schemaforge/schemaforge-go/regexanalyze"
)

// Diagnostics is the minimal sink Normalize writes notes/caps/warnings to.
// diagnostics.Collector satisfies it; tests can supply a stub.
type Diagnostics interface {
	Warn(code, canonPath string, details map[string]any)
	Cap(code string)
}

// Options configures a Normalize call.
type Options struct {
	// AllowPatternFormPropertyNamesRewrite is the switch for a pattern-form
	// propertyNames rewrite (spec.md §9 Open Question 1). Disabled by
	// default; see SPEC_FULL.md §4 for the decision record. Setting it has
	// no effect on the output: rewritePropertyNames performs no
	// pattern-form rewrite and leaves propertyNames.pattern in place.
	AllowPatternFormPropertyNamesRewrite bool
}

type normalizer struct {
	root    any
	dialect dialect.Dialect
	opts    Options
	diag    Diagnostics

	builder  *canon.Builder
	refStack map[string]bool
}

// Normalize rewrites schema (the full document containing $defs/$ref
// targets) into a canon.Tree. diag may be nil to discard diagnostics.
func Normalize(schema map[string]any, opts Options, diag Diagnostics) (*canon.Tree, error) {
	if diag == nil {
		diag = noopDiagnostics{}
	}
	d := dialect.Unknown
	if s, ok := schema["$schema"].(string); ok {
		parsed, err := dialect.Parse(s)
		if err == nil {
			d = parsed
		}
	}

	nz := &normalizer{
		root:     schema,
		dialect:  d,
		opts:     opts,
		diag:     diag,
		builder:  canon.NewBuilder(),
		refStack: map[string]bool{},
	}

	root, err := nz.buildNode(schema, "", "")
	if err != nil {
		return nil, err
	}
	return nz.builder.Finish(root), nil
}

type noopDiagnostics struct{}

func (noopDiagnostics) Warn(string, string, map[string]any) {}
func (noopDiagnostics) Cap(string)                          {}

// buildNode normalizes raw (a boolean schema, or a keyword-set map) found
// at originPtr in the user document, and returns the canon.Node for it,
// binding canonPath -> originPtr along the way.
func (nz *normalizer) buildNode(raw any, originPtr, canonPath string) (*canon.Node, error) {
	nz.builder.Bind(canonPath, originPtr)

	if raw == nil {
		return &canon.Node{Kind: canon.Value, Origin: originPtr, Schema: map[string]any{}}, nil
	}
	if b, ok := asBool(raw); ok {
		return &canon.Node{Origin: originPtr, Always: &b}, nil
	}

	schema, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%s: schema must be an object or boolean", pathOrRoot(canonPath))
	}

	schema, err := nz.inlineRef(schema, canonPath)
	if err != nil {
		return nil, err
	}

	nz.tagDynamicConstructs(schema, canonPath)
	// dependentRequired must expand into allOf/if/then before allOf is
	// flattened, so the synthesized conjuncts get merged/normalized along
	// with every other allOf branch instead of sitting unprocessed.
	schema = cloneMap(schema)
	nz.rewriteDependentRequired(schema, canonPath)

	schema, err = nz.rewriteAllOf(schema, canonPath)
	if err != nil {
		return nil, err
	}

	if err := nz.rewritePropertyNames(schema, canonPath); err != nil {
		return nil, err
	}

	out := cloneMap(schema)
	if v, ok := out["type"]; ok {
		out["type"] = normalizeType(v)
	}
	if v, ok := out["required"]; ok {
		out["required"] = normalizeStringSet(v)
	}

	if err := nz.normalizeRegexKeywords(out, canonPath); err != nil {
		return nil, err
	}
	if err := nz.normalizeUnions(out, originPtr, canonPath); err != nil {
		return nil, err
	}
	if err := nz.normalizeConditional(out, originPtr, canonPath); err != nil {
		return nil, err
	}

	// Sub-schema keywords that stay as embedded, normalized maps rather
	// than canon.Node children (Compose reads them directly: contains,
	// patternProperties entries, propertyNames, if/then/else bodies).
	for _, key := range []string{"contains", "propertyNames", "if", "then", "else", "not"} {
		if v, ok := out[key]; ok {
			nested, err := nz.normalizeEmbedded(v, pointer.Join(originPtr, key), pointer.Join(canonPath, key))
			if err != nil {
				return nil, err
			}
			out[key] = nested
		}
	}
	if pp, ok := out["patternProperties"]; ok {
		ppMap, _ := asMap(pp)
		nm := make(map[string]any, len(ppMap))
		for pat, v := range ppMap {
			nested, err := nz.normalizeEmbedded(v, joinPath(originPtr, "patternProperties", pat), joinPath(canonPath, "patternProperties", pat))
			if err != nil {
				return nil, err
			}
			nm[pat] = nested
		}
		out["patternProperties"] = nm
	}
	if ap, ok := out["additionalProperties"]; ok {
		if _, isBool := asBool(ap); !isBool {
			nested, err := nz.normalizeEmbedded(ap, pointer.Join(originPtr, "additionalProperties"), pointer.Join(canonPath, "additionalProperties"))
			if err != nil {
				return nil, err
			}
			out["additionalProperties"] = nested
		}
	}

	node := &canon.Node{Origin: originPtr, Schema: out}

	if props, ok := out["properties"]; ok {
		propsMap, _ := asMap(props)
		keys := make([]string, 0, len(propsMap))
		for k := range propsMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		node.Kind = canon.Object
		node.Keys = keys
		node.Children = make([]*canon.Node, len(keys))
		for i, k := range keys {
			child, err := nz.buildNode(propsMap[k], joinPath(originPtr, "properties", k), joinPath(canonPath, "properties", k))
			if err != nil {
				return nil, err
			}
			node.Children[i] = child
		}
		delete(out, "properties")
	}

	if prefix, ok := out["prefixItems"]; ok {
		arr, _ := asSlice(prefix)
		if node.Kind != canon.Object {
			node.Kind = canon.Array
		}
		node.Children = make([]*canon.Node, len(arr))
		for i, v := range arr {
			child, err := nz.buildNode(v, joinPath(originPtr, "prefixItems", fmt.Sprint(i)), pointer.JoinIndex(joinPath(canonPath, "prefixItems"), i))
			if err != nil {
				return nil, err
			}
			node.Children[i] = child
		}
		delete(out, "prefixItems")
	}

	if items, ok := out["items"]; ok {
		if node.Kind != canon.Object {
			node.Kind = canon.Array
		}
		child, err := nz.buildNode(items, pointer.Join(originPtr, "items"), pointer.Join(canonPath, "items"))
		if err != nil {
			return nil, err
		}
		node.ItemsSchema = child
		delete(out, "items")
	}

	if node.Kind != canon.Object && node.Kind != canon.Array {
		node.Kind = canon.Value
	}

	return node, nil
}

// normalizeEmbedded recursively normalizes a nested schema value that
// stays embedded in its parent's Schema map rather than becoming a
// canon.Node child. It still runs the full rewrite pipeline and records
// provenance, but discards the resulting Node wrapper and returns the
// Node's Schema (or an Always-bool) as plain data.
func (nz *normalizer) normalizeEmbedded(raw any, originPtr, canonPath string) (any, error) {
	child, err := nz.buildNode(raw, originPtr, canonPath)
	if err != nil {
		return nil, err
	}
	if child.Always != nil {
		return *child.Always, nil
	}
	out := child.Schema
	if out == nil {
		out = map[string]any{}
	}
	if child.Kind == canon.Object {
		props := make(map[string]any, len(child.Keys))
		for i, k := range child.Keys {
			props[k] = embeddedOf(child.Children[i])
		}
		out["properties"] = props
	}
	if child.Kind == canon.Array {
		if len(child.Children) > 0 {
			arr := make([]any, len(child.Children))
			for i, c := range child.Children {
				arr[i] = embeddedOf(c)
			}
			out["prefixItems"] = arr
		}
		if child.ItemsSchema != nil {
			out["items"] = embeddedOf(child.ItemsSchema)
		}
	}
	return out, nil
}

func embeddedOf(n *canon.Node) any {
	if n.Always != nil {
		return *n.Always
	}
	out := n.Schema
	if out == nil {
		out = map[string]any{}
	}
	if n.Kind == canon.Object {
		props := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			props[k] = embeddedOf(n.Children[i])
		}
		out["properties"] = props
	}
	if n.Kind == canon.Array {
		if len(n.Children) > 0 {
			arr := make([]any, len(n.Children))
			for i, c := range n.Children {
				arr[i] = embeddedOf(c)
			}
			out["prefixItems"] = arr
		}
		if n.ItemsSchema != nil {
			out["items"] = embeddedOf(n.ItemsSchema)
		}
	}
	return out
}

// rewriteAllOf flattens and merges an allOf array present on schema,
// producing a single merged keyword set plus any residual conjuncts
// re-embedded as a synthetic "allOf" for Compose to evaluate directly.
func (nz *normalizer) rewriteAllOf(schema map[string]any, canonPath string) (map[string]any, error) {
	allOfRaw, ok := schema["allOf"]
	if !ok {
		return schema, nil
	}
	arr, ok := asSlice(allOfRaw)
	if !ok {
		return nil, fmt.Errorf("%s.allOf: must be an array", pathOrRoot(canonPath))
	}

	merged, residual, err := nz.flattenAllOf(arr, canonPath)
	if err != nil {
		return nil, err
	}

	out := cloneMap(schema)
	delete(out, "allOf")
	if _, err := mergeBranch(out, merged); err != nil {
		return nil, err
	}
	// merged itself may also carry leftover keys mergeBranch can't fold
	// twice (merged was itself produced by mergeBranch, so anything in it
	// not in mergeableKeys already landed in branch-level leftovers).
	if len(residual) > 0 {
		out["allOf"] = residualToAny(residual)
		nz.diag.Warn("ALLOF_RESIDUAL_CONJUNCT", canonPath, map[string]any{"count": len(residual)})
	}
	return out, nil
}

func residualToAny(residual []map[string]any) []any {
	out := make([]any, len(residual))
	for i, r := range residual {
		out[i] = r
	}
	return out
}

// tagDynamicConstructs emits a presence-only diagnostic for $dynamicRef/
// $dynamicAnchor/$recursiveRef (spec.md's Non-goals: these are
// approximated via diagnostics, never resolved by backtracking).
func (nz *normalizer) tagDynamicConstructs(schema map[string]any, canonPath string) {
	for _, key := range []string{"$dynamicRef", "$dynamicAnchor", "$recursiveRef", "$recursiveAnchor"} {
		if _, ok := schema[key]; ok {
			nz.diag.Warn("DYNAMIC_REF_PRESENT", canonPath, map[string]any{"keyword": key})
		}
	}
}

// rewriteDependentRequired expands dependentRequired into the equivalent
// if/then conjunct JSON Schema itself defines
// (dependentRequired:{k:[a,b]} ≡ allOf:[{if:{required:[k]},then:{required:[a,b]}}]),
// appended to schema's "allOf" so the rest of the pipeline (which already
// understands if/then/else) handles it uniformly.
func (nz *normalizer) rewriteDependentRequired(schema map[string]any, canonPath string) {
	dr, ok := schema["dependentRequired"]
	if !ok {
		return
	}
	drMap, ok := asMap(dr)
	if !ok {
		return
	}
	keys := make([]string, 0, len(drMap))
	for k := range drMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	existing, _ := asSlice(schema["allOf"])
	for _, k := range keys {
		deps, _ := asSlice(drMap[k])
		schema["allOf"] = append(existing, map[string]any{
			"if":   map[string]any{"required": []any{k}},
			"then": map[string]any{"required": deps},
		})
		existing = schema["allOf"].([]any)
	}
	delete(schema, "dependentRequired")
	nz.diag.Warn("DEPENDENT_REQUIRED_REWRITTEN", canonPath, map[string]any{"keys": keys})
}

// rewritePropertyNames implements the enum-form propertyNames rewrite
// (spec.md §3): when propertyNames.enum is a pure string set and every
// directly-required key is covered, synthesize an anchored
// patternProperties alternation and additionalProperties:false.
func (nz *normalizer) rewritePropertyNames(schema map[string]any, canonPath string) error {
	pn, ok := schema["propertyNames"]
	if !ok {
		return nil
	}
	pnMap, ok := asMap(pn)
	if !ok {
		return nil
	}
	enumRaw, ok := pnMap["enum"]
	if !ok {
		if _, hasPattern := pnMap["pattern"]; hasPattern && nz.opts.AllowPatternFormPropertyNamesRewrite {
			// Pattern-form rewrite deferred (spec.md §9 Open Question 1);
			// left as-is for Compose to interpret as a gating predicate.
		}
		return nil
	}
	enumArr, ok := asSlice(enumRaw)
	if !ok {
		nz.diag.Warn("PNAMES_COMPLEX", canonPath, map[string]any{"reason": "enumNotArray"})
		return nil
	}

	literals := make([]string, 0, len(enumArr))
	for _, v := range enumArr {
		s, ok := v.(string)
		if !ok {
			nz.diag.Warn("PNAMES_COMPLEX", canonPath, map[string]any{"reason": "nonStringEnumMember"})
			return nil
		}
		literals = append(literals, s)
	}

	required, _ := asSlice(schema["required"])
	reqSet := map[string]bool{}
	for _, r := range required {
		if s, ok := r.(string); ok {
			reqSet[s] = true
		}
	}
	litSet := map[string]bool{}
	for _, l := range literals {
		litSet[l] = true
	}
	for r := range reqSet {
		if !litSet[r] {
			nz.diag.Warn("PNAMES_COMPLEX", canonPath, map[string]any{"reason": "requiredKeyNotInEnum", "key": r})
			return nil
		}
	}

	if existing, ok := schema["additionalProperties"]; ok {
		if b, isBool := asBool(existing); !isBool || b {
			nz.diag.Warn("PNAMES_COMPLEX", canonPath, map[string]any{"reason": "additionalPropertiesAlreadyConstrained"})
			return nil
		}
	}

	sorted := append([]string(nil), literals...)
	sort.Strings(sorted)
	sorted = dedupeSorted(sorted)

	var sb strings.Builder
	sb.WriteString("^(?:")
	for i, l := range sorted {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(regexpQuote(l))
	}
	sb.WriteString(")$")
	pattern := sb.String()

	pp, _ := asMap(schema["patternProperties"])
	if pp == nil {
		pp = map[string]any{}
	} else {
		pp = cloneMap(pp)
	}
	pp[pattern] = map[string]any{}
	schema["patternProperties"] = pp
	schema["additionalProperties"] = false

	nz.diag.Warn("PNAMES_REWRITE_APPLIED", canonPath, map[string]any{"pattern": pattern})
	nz.builder.Note(canonPath, "PNAMES_REWRITE_APPLIED", map[string]any{"pattern": pattern})
	return nil
}

func regexpQuote(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func dedupeSorted(s []string) []string {
	out := s[:0]
	var prev string
	first := true
	for _, v := range s {
		if first || v != prev {
			out = append(out, v)
			prev = v
			first = false
		}
	}
	return out
}

// normalizeRegexKeywords classifies "pattern" using regexanalyze,
// attaching a Note-worthy warning when the pattern is unsafe for coverage
// purposes. patternProperties keys are not classified here (Compose's
// coverage index classifies them). It does not rewrite "pattern" itself.
func (nz *normalizer) normalizeRegexKeywords(schema map[string]any, canonPath string) error {
	pat, ok := schema["pattern"].(string)
	if !ok {
		return nil
	}
	c := regexanalyze.Classify(pat)
	switch c.Kind {
	case regexanalyze.CompileError:
		nz.diag.Warn("REGEX_COMPILE_ERROR", canonPath, map[string]any{"pattern": pat})
	case regexanalyze.ComplexityCapped:
		nz.diag.Cap("REGEX_COMPLEXITY_CAPPED")
		nz.diag.Warn("REGEX_COMPLEXITY_CAPPED", canonPath, map[string]any{"reason": c.Reason})
	}
	return nil
}

// normalizeUnions recursively normalizes oneOf/anyOf branches and
// canonically sorts them for determinism (duplicate-order-insensitive
// hashing, stable diagnostics).
func (nz *normalizer) normalizeUnions(schema map[string]any, originPtr, canonPath string) error {
	for _, key := range []string{"oneOf", "anyOf"} {
		raw, ok := schema[key]
		if !ok {
			continue
		}
		arr, ok := asSlice(raw)
		if !ok {
			return fmt.Errorf("%s.%s: must be an array", pathOrRoot(canonPath), key)
		}
		out := make([]any, len(arr))
		for i, v := range arr {
			nested, err := nz.normalizeEmbedded(v, pointer.JoinIndex(pointer.Join(originPtr, key), i), pointer.JoinIndex(pointer.Join(canonPath, key), i))
			if err != nil {
				return err
			}
			out[i] = nested
		}
		sort.Slice(out, func(i, j int) bool { return canonicalKey(out[i]) < canonicalKey(out[j]) })
		schema[key] = out
	}
	return nil
}

// normalizeConditional recursively normalizes if/then/else in place
// (already folded into the "if"/"then"/"else" embedded-keyword loop in
// buildNode; this hook exists so the dynamic-construct note below can
// see the final keyword set).
func (nz *normalizer) normalizeConditional(schema map[string]any, originPtr, canonPath string) error {
	if _, hasIf := schema["if"]; hasIf {
		nz.diag.Warn("IF_THEN_ELSE_PRESENT", canonPath, nil)
	}
	return nil
}

// inlineRef resolves a same-document "#/..." $ref by fragment lookup
// against the root document, detecting cycles via refStack (the same
// push/defer-pop shape as schemaprofile.Normalizer.resolveRef). External
// (non-fragment) $refs are left untouched; neither Normalize nor Compose
// resolves them or records a diagnostic for them.
func (nz *normalizer) inlineRef(schema map[string]any, canonPath string) (map[string]any, error) {
	ref, ok := schema["$ref"].(string)
	if !ok || strings.TrimSpace(ref) == "" {
		return schema, nil
	}
	if !strings.HasPrefix(ref, "#") {
		return schema, nil // external; not this package's concern
	}
	if nz.refStack[ref] {
		return nil, fmt.Errorf("%s: $ref cycle detected at %q", pathOrRoot(canonPath), ref)
	}
	frag := strings.TrimPrefix(ref, "#")
	resolved, err := pointer.Resolve(nz.root, frag)
	if err != nil {
		return nil, fmt.Errorf("%s: $ref %q: %w", pathOrRoot(canonPath), ref, err)
	}
	resolvedMap, ok := asMap(resolved)
	if !ok {
		return nil, fmt.Errorf("%s: $ref %q does not resolve to an object schema", pathOrRoot(canonPath), ref)
	}

	nz.refStack[ref] = true
	defer delete(nz.refStack, ref)

	merged := cloneMap(schema)
	delete(merged, "$ref")
	for k, v := range resolvedMap {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return nz.inlineRef(merged, canonPath)
}

// joinPath chains pointer.Join across multiple raw tokens (pointer.Join
// itself only appends one token at a time).
func joinPath(ptr string, tokens ...string) string {
	for _, tok := range tokens {
		ptr = pointer.Join(ptr, tok)
	}
	return ptr
}

func pathOrRoot(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}
