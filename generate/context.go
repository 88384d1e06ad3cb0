// Package generate implements the engine's Generate subsystem (spec.md
// §4.5): given a canon.Tree and the compose.Plan derived from it, it emits
// `count` instances satisfying the schema, using deterministic tie-breaks
// (rng), budgeted pattern witnesses (regexanalyze/automaton), and the
// oneOf/anyOf branch decisions Compose already made.
//
// Grounded on spec.md §9's "polymorphism over capability sets" design
// note: generation is a dispatch table from canonical kind tags to
// generator functions taking (node, ctx) and returning a value-or-failure,
// mirrored here as the per-kind generate* functions called from
// generateNode's type switch, and on openbindings-go's Result-free, plain
// (value, error) idiom — adapted into the package-local Failure sum type
// since this subsystem needs partial success (per-item, not per-call).
package generate

import (
	"fmt"
	"regexp"

	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/planopts"
)

// Failure is Generate's internal per-node failure payload (spec.md §4.5's
// Result sum type, before the engine package re-wraps it as
// schemaforge.GenerateError for the public API).
type Failure struct {
	Kind      string
	CanonPath string
	Format    string
	Reason    string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("generate: %s at %s (format=%q reason=%q)", f.Kind, f.CanonPath, f.Format, f.Reason)
}

// Context carries every piece of shared, read-only state a generator needs.
type Context struct {
	Opts *planopts.Options
	Diag *diagnostics.Collector
	Seed int64
	Item int // 0-based index of the item currently being generated

	// patternCache memoizes patternProperties regex compilation for the
	// lifetime of one Generate call (not shared across calls, per the
	// engine's no-shared-mutable-state-across-calls rule).
	patternCache map[string]*regexp.Regexp

	// formatSeq is the per-canonPath uniqueness counter format generators
	// advance on each draw, scoped the same way as patternCache.
	formatSeq map[string]int
}

// NewContext returns a Context ready for one Generate call.
func NewContext(opts *planopts.Options, diag *diagnostics.Collector, seed int64) *Context {
	return &Context{
		Opts:         opts,
		Diag:         diag,
		Seed:         seed,
		patternCache: map[string]*regexp.Regexp{},
		formatSeq:    map[string]int{},
	}
}

// itemPath derives a per-item, per-node deterministic RNG path so that
// distinct items at the same canonical path draw distinct values while
// remaining reproducible (spec.md §5: seeded purely by (globalSeed, path)).
func (c *Context) itemPath(canonPath string) string {
	return fmt.Sprintf("%s#%d", canonPath, c.Item)
}
