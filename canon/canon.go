// Package canon defines the canonical schema AST produced by Normalize and
// consumed read-only by Compose and Generate (spec.md §3 "Data model" /
// "Lifecycle"): a typed tree of Value/Array/Object nodes, each carrying an
// origin pointer back into the user's original schema, plus the forward and
// reverse pointer indices that make that provenance queryable in both
// directions.
//
// This has no teacher ancestor (openbindings-go keeps schemas as bare
// map[string]any throughout); it is grounded on spec.md §9's "ordered
// associative container" design note and on the pack's general preference
// for small, explicit node structs (katalvlaran-lvlath's graph element
// types) over an untyped tree.
package canon

import "fmt"

// Kind discriminates the three canonical node variants (spec.md §3).
type Kind int

const (
	// Value is a JSON scalar or boolean-schema node (string/number/integer/
	// boolean/null, or a schema with no object/array shape constraints).
	Value Kind = iota
	// Array is an ordered sequence of child nodes (prefixItems entries);
	// the tail "items" schema is held separately in Node.ItemsSchema.
	Array
	// Object is an ordered sequence of (key, node) entries; Normalize sorts
	// the keys, so the order does not follow the user's authoring order.
	Object
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "value"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Node is a single canonical AST node.
//
// Schema holds the fully rewritten/merged canonical keyword set at this
// node's path (the result of allOf-flattening, boolean simplification,
// draft unification, etc. — everything Compose and Generate need to read
// keywords like "minimum", "pattern", "required", "additionalProperties",
// "contains" from). Children/Keys model the Array/Object shape described
// above; both are nil for Value nodes.
type Node struct {
	Kind   Kind
	Origin string // origin pointer into the user schema (canon.Tree.PtrMap key's value)

	Schema map[string]any

	// Children holds, in order:
	//  - for Array: one node per prefixItems entry, in order
	//  - for Object: one node per property, in the same order as Keys
	//  - for Value: always nil
	Children []*Node

	// Keys parallels Children for Object nodes (Keys[i] is the property
	// name whose schema is Children[i]). Nil for Array/Value nodes.
	Keys []string

	// ItemsSchema is the tail "items" schema node for an Array node (the
	// schema applied to elements beyond the last prefixItems entry, or to
	// every element when there are no prefixItems). Nil if the array is
	// unconstrained or closed (items:false after normalize has no node).
	ItemsSchema *Node

	// Always is non-nil only for a node derived from a literal JSON Schema
	// boolean (`true` or `false` used as a whole schema): *Always == true
	// accepts every instance, *Always == false rejects every instance.
	// Schema/Children/Keys/ItemsSchema are unused when Always is set.
	Always *bool
}

// Property returns the child node for key and true, or (nil, false).
func (n *Node) Property(key string) (*Node, bool) {
	if n == nil || n.Kind != Object {
		return nil, false
	}
	for i, k := range n.Keys {
		if k == key {
			return n.Children[i], true
		}
	}
	return nil, false
}

// Note is an additive, order-preserved Normalize annotation (spec.md §3).
// Notes are never discarded once recorded, even across repeated
// normalization passes (idempotence, spec.md §8).
type Note struct {
	CanonPath string
	Code      string
	Details   map[string]any
}

// Tree is the output of Normalize: a canonical AST plus its pointer
// provenance indices and the notes recorded while building it.
//
// Invariants (spec.md §8 #1): ptrMap is defined for every canonical path
// present in the tree; revPtrMap is its exact inverse, with value slices
// kept sorted for output stability.
type Tree struct {
	Root *Node

	// ptrMap maps a canonical path to the origin pointer it was derived
	// from. Populated exclusively via Builder.Bind to keep the invariant
	// (every bound path has an origin) enforceable in one place.
	ptrMap map[string]string
	// revPtrMap maps an origin pointer to the sorted set of canonical
	// paths derived from it.
	revPtrMap map[string][]string

	Notes []Note
}

// Origin returns the origin pointer bound to canonPath, or ("", false).
func (t *Tree) Origin(canonPath string) (string, bool) {
	if t == nil {
		return "", false
	}
	o, ok := t.ptrMap[canonPath]
	return o, ok
}

// CanonPathsFor returns the sorted canonical paths derived from originPtr.
func (t *Tree) CanonPathsFor(originPtr string) []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.revPtrMap[originPtr]...)
}

// PtrMapLen reports the number of bound canonical paths (test/debug use).
func (t *Tree) PtrMapLen() int { return len(t.ptrMap) }

// Builder accumulates a Tree: pointer bindings and notes are appended as
// Normalize walks the user schema, then Finish freezes the sorted
// revPtrMap view. Builder is not safe for concurrent use — Normalize
// constructs one Builder per top-level Normalize call (spec.md §5: no
// suspension points, no shared mutable state across calls).
type Builder struct {
	ptrMap    map[string]string
	revPtrMap map[string][]string
	notes     []Note
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		ptrMap:    map[string]string{},
		revPtrMap: map[string][]string{},
	}
}

// Bind records that canonPath was derived from originPtr. Calling Bind
// twice for the same canonPath with a different originPtr is a builder
// misuse and panics — provenance must be single-valued per canonical path.
func (b *Builder) Bind(canonPath, originPtr string) {
	if existing, ok := b.ptrMap[canonPath]; ok && existing != originPtr {
		panic(fmt.Sprintf("canon: canonical path %q already bound to origin %q (rebinding to %q)", canonPath, existing, originPtr))
	}
	b.ptrMap[canonPath] = originPtr
	b.revPtrMap[originPtr] = insertSorted(b.revPtrMap[originPtr], canonPath)
}

// Note appends a Normalize note. Notes are never removed once added.
func (b *Builder) Note(canonPath, code string, details map[string]any) {
	b.notes = append(b.notes, Note{CanonPath: canonPath, Code: code, Details: details})
}

// Finish produces the immutable Tree for root.
func (b *Builder) Finish(root *Node) *Tree {
	return &Tree{
		Root:      root,
		ptrMap:    b.ptrMap,
		revPtrMap: b.revPtrMap,
		Notes:     b.notes,
	}
}

// insertSorted inserts v into the sorted, deduplicated slice s.
func insertSorted(s []string, v string) []string {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s) && s[lo] == v {
		return s
	}
	out := make([]string, len(s)+1)
	copy(out, s[:lo])
	out[lo] = v
	copy(out[lo+1:], s[lo:])
	return out
}
