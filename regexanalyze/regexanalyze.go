// Package regexanalyze classifies user-authored regex sources the way
// spec.md §4.1 requires — anchored-safe, complexity-capped, or
// compile-error — and extracts the exact literal alternatives from simple
// anchored-alternation patterns so automaton/ never has to re-parse a
// regex string.
//
// It also implements anchored-subset lifting: a conservative, strictly
// narrower anchored rewrite of a non-anchored or partially-anchored
// pattern, used only to approximate coverage (never to validate an
// instance against the original pattern).
//
// Grounded on the regex-engine idiom in
// other_examples/2b515314_coregx-coregex__meta-engine.go.go and
// other_examples/773dc0ad_coregx-coregex__meta-compile.go.go (classify
// the pattern once at compile time, strategy-select, never re-derive
// structure per search) — read as reference only, since coregex itself
// is not importable from the pack. The actual parse/AST-walk is built on
// the standard library's regexp/syntax, which is the only Go package in
// or out of the pack that exposes regex structure rather than a black-box
// matcher; this is the package's one stdlib-only concern and it is
// unavoidable — regexp/syntax's own AST shape is exactly what the
// algorithm in spec.md §4.1/4.2 operates on.
package regexanalyze

import (
	"regexp/syntax"
	"sort"
	"strings"
)

// Kind is the three-way (plus "unanchored", a residual bucket feeding the
// subset lifter) classification of a regex source.
type Kind int

const (
	// AnchoredSafe patterns start with ^, end with $, contain no
	// lookaround/backreference (unsupported by RE2 syntax, so any attempt
	// to use them already surfaces as CompileError), and have no grouped
	// quantifier explosion.
	AnchoredSafe Kind = iota
	// Unanchored patterns parsed without error and are not complexity
	// capped, but are not of the ^...$ form. Candidates for subset lifting.
	Unanchored
	// ComplexityCapped patterns exceed the length cap or contain a
	// quantified group (a name-automaton construction risk).
	ComplexityCapped
	// CompileError patterns fail to parse under Unicode (Perl) semantics.
	CompileError
)

func (k Kind) String() string {
	switch k {
	case AnchoredSafe:
		return "anchoredSafe"
	case Unanchored:
		return "unanchored"
	case ComplexityCapped:
		return "complexityCapped"
	case CompileError:
		return "compileError"
	default:
		return "unknown"
	}
}

// MaxPatternLength is the length cap beyond which a pattern is classified
// ComplexityCapped regardless of structure (spec.md §4.1: "length >4096").
const MaxPatternLength = 4096

// Classification is the result of Classify.
type Classification struct {
	Kind Kind
	// Literals holds the exact, empty-escape-free decoded alternatives
	// when Kind == AnchoredSafe and the pattern is of the form
	// ^(?:lit1|lit2|...)$. Nil otherwise.
	Literals []string
	// Reason explains a ComplexityCapped verdict: "length" or
	// "groupedQuantifier".
	Reason string
	// Err holds the parse error when Kind == CompileError.
	Err error
}

// Classify classifies pattern per spec.md §4.1.
func Classify(pattern string) Classification {
	if len(pattern) > MaxPatternLength {
		return Classification{Kind: ComplexityCapped, Reason: "length"}
	}

	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return Classification{Kind: CompileError, Err: err}
	}
	re = re.Simplify()

	if hasGroupedQuantifier(re) {
		return Classification{Kind: ComplexityCapped, Reason: "groupedQuantifier"}
	}

	if !isAnchored(re) {
		return Classification{Kind: Unanchored}
	}

	c := Classification{Kind: AnchoredSafe}
	if lits, ok := extractAnchoredLiteralAlternatives(re); ok {
		c.Literals = lits
	}
	return c
}

// hasGroupedQuantifier reports whether re contains a quantifier (*, +, ?,
// {n,m}) applied to a non-trivial subexpression — a concatenation,
// alternation, or capture of more than a single literal/char-class/anchor.
// This is the "grouped quantifier (…)+|*|?|{n,m}" complexity trigger.
func hasGroupedQuantifier(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		if isNonTrivial(re.Sub[0]) {
			return true
		}
	}
	for _, sub := range re.Sub {
		if hasGroupedQuantifier(sub) {
			return true
		}
	}
	return false
}

// isNonTrivial reports whether re is more than a single literal, char
// class, or anchor — i.e. quantifying it risks combinatorial automaton
// blowup rather than a simple bounded repeat of one symbol.
func isNonTrivial(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpLiteral, syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL,
		syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpEmptyMatch, syntax.OpNoMatch:
		return false
	case syntax.OpCapture:
		return isNonTrivial(re.Sub[0])
	default:
		return true
	}
}

// isAnchored reports whether re matches only strings that are anchored at
// both ends (^...$), the "anchored-safe" shape.
func isAnchored(re *syntax.Regexp) bool {
	flat := flattenConcat(re)
	if len(flat) == 0 {
		return false
	}
	first, last := flat[0], flat[len(flat)-1]
	return isBeginAnchor(first) && isEndAnchor(last)
}

func isBeginAnchor(re *syntax.Regexp) bool {
	return re.Op == syntax.OpBeginText || re.Op == syntax.OpBeginLine
}

func isEndAnchor(re *syntax.Regexp) bool {
	return re.Op == syntax.OpEndText || re.Op == syntax.OpEndLine
}

// flattenConcat descends through a (possibly singleton) capture/concat
// wrapper and returns the top-level sequence of subexpressions.
func flattenConcat(re *syntax.Regexp) []*syntax.Regexp {
	for re.Op == syntax.OpCapture {
		re = re.Sub[0]
	}
	if re.Op == syntax.OpConcat {
		return re.Sub
	}
	return []*syntax.Regexp{re}
}

// extractAnchoredLiteralAlternatives extracts the exact literal set from
// an anchored pattern of the form ^(?:lit1|lit2|...)$, decoding each
// branch's literal runes back to a plain string. Returns ok=false if the
// middle section is not a pure literal alternation (or single literal).
func extractAnchoredLiteralAlternatives(re *syntax.Regexp) ([]string, bool) {
	flat := flattenConcat(re)
	if len(flat) != 3 {
		// also allow the degenerate ^$ (empty string) and ^lit$ forms
		if len(flat) == 2 && isBeginAnchor(flat[0]) && isEndAnchor(flat[1]) {
			return []string{""}, true
		}
		return nil, false
	}
	body := flat[1]
	for body.Op == syntax.OpCapture {
		body = body.Sub[0]
	}

	var branches []*syntax.Regexp
	if body.Op == syntax.OpAlternate {
		branches = body.Sub
	} else {
		branches = []*syntax.Regexp{body}
	}

	out := make([]string, 0, len(branches))
	for _, b := range branches {
		lit, ok := literalString(b)
		if !ok {
			return nil, false
		}
		out = append(out, lit)
	}
	sort.Strings(out)
	return dedupeSorted(out), true
}

// literalString decodes a (possibly capture-wrapped) pure-literal
// subexpression into its plain string, or ("", false) if it contains
// anything but OpLiteral/OpEmptyMatch.
func literalString(re *syntax.Regexp) (string, bool) {
	for re.Op == syntax.OpCapture {
		re = re.Sub[0]
	}
	switch re.Op {
	case syntax.OpEmptyMatch:
		return "", true
	case syntax.OpLiteral:
		return string(re.Rune), true
	case syntax.OpConcat:
		var sb strings.Builder
		for _, sub := range re.Sub {
			s, ok := literalString(sub)
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	default:
		return "", false
	}
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

// LiftKind names the anchored-subset lifting family used (spec.md §4.1).
type LiftKind string

const (
	// LiftStrict lifts an exact literal alternation to an anchored form:
	// the lifted pattern matches EXACTLY the same set the original body
	// would match if anchored, so it is safe whenever the original is
	// used only to test "is this key one of a known literal set".
	LiftStrict LiftKind = "strict"
	// LiftSubstring conservatively wraps the entire original body in
	// ^(?:...)$ without attempting to understand its structure. This is
	// a subset of what the unanchored pattern would match as a substring
	// search, safe only for coverage approximation, never for validation.
	LiftSubstring LiftKind = "substring"
)

// Lift attempts anchored-subset lifting of a non-anchored pattern for
// coverage purposes (spec.md §4.1). ok is false when pattern is already
// anchored-safe (lifting is not needed) or fails to parse.
func Lift(pattern string) (lifted string, kind LiftKind, ok bool) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", "", false
	}
	re = re.Simplify()
	if isAnchored(re) {
		return "", "", false
	}

	if re.Op == syntax.OpAlternate {
		if lits, litOK := literalAlternationBranches(re); litOK {
			return "^(?:" + strings.Join(sortedCopy(lits), "|") + ")$", LiftStrict, true
		}
	}
	if lit, litOK := literalString(re); litOK {
		return "^(?:" + regexpQuoteLiteral(lit) + ")$", LiftStrict, true
	}

	return "^(?:" + pattern + ")$", LiftSubstring, true
}

func literalAlternationBranches(re *syntax.Regexp) ([]string, bool) {
	out := make([]string, 0, len(re.Sub))
	for _, b := range re.Sub {
		lit, ok := literalString(b)
		if !ok {
			return nil, false
		}
		out = append(out, lit)
	}
	return out, true
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return dedupeSorted(out)
}

// regexpQuoteLiteral re-escapes a decoded literal string back into a
// regex-safe form for embedding into a new pattern source.
func regexpQuoteLiteral(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
