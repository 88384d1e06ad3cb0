// Package diagnostics defines the wire-form diagnostic envelope
// (spec.md §6) emitted by Normalize, Compose, and Generate, and the
// Collector that accumulates it.
//
// Grounded on openbindings-go's validate.go accumulate-then-wrap idiom:
// each phase appends typed entries to a Collector as it walks the
// canonical tree, then a single call at the end freezes the envelope —
// the same shape as Interface.Validate's "gather []string, wrap in one
// *ValidationError" pattern, generalized from plain strings to the
// richer {code, canonPath, details} entries spec.md §6 requires. Sorted
// map-key iteration (Codes()) mirrors validate.go's sort.Strings(opKeys)
// idiom.
package diagnostics

import "sort"

// Fatal is an unrecoverable diagnostic; its presence means the engine
// could not produce a plan/item for the owning canonPath.
type Fatal struct {
	Code      string         `json:"code"`
	CanonPath string         `json:"canonPath"`
	Details   map[string]any `json:"details,omitempty"`
}

// Warn is a conservative approximation or applied cap; generation
// proceeds despite it.
type Warn struct {
	Code        string         `json:"code"`
	CanonPath   string         `json:"canonPath"`
	Details     map[string]any `json:"details,omitempty"`
	Budget      *Budget        `json:"budget,omitempty"`
	ScoreDetails map[string]any `json:"scoreDetails,omitempty"`
}

// Run is an informational record of an engine decision (e.g. a trial
// that was attempted), not itself a problem.
type Run struct {
	Code      string         `json:"code"`
	CanonPath string         `json:"canonPath"`
	Details   map[string]any `json:"details,omitempty"`
}

// UnsatHint records a provable-or-suspected unsatisfiability finding.
type UnsatHint struct {
	Code      string         `json:"code"`
	CanonPath string         `json:"canonPath"`
	Provable  *bool          `json:"provable,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Budget records a tried/limit/skipped accounting triple (spec.md §4.3's
// branch-decision budget, and Generate's pattern-witness candidate
// budget).
type Budget struct {
	Tried   int    `json:"tried"`
	Limit   int    `json:"limit"`
	Skipped int    `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// BranchDecision records a single anyOf/oneOf branch-selection outcome.
type BranchDecision struct {
	CanonPath     string   `json:"canonPath"`
	ChosenBranch  int      `json:"chosenBranch"`
	CandidateSet  []int    `json:"candidateSet,omitempty"`
	TiebreakRand  *float64 `json:"tiebreakRand,omitempty"`
	ExclusivityRand *float64 `json:"exclusivityRand,omitempty"`
	Budget        *Budget  `json:"budget,omitempty"`
}

// NodeInfo is the per-canonPath summary aggregated under Envelope.Nodes.
type NodeInfo struct {
	ChosenBranch *int           `json:"chosenBranch,omitempty"`
	ScoreDetails map[string]any `json:"scoreDetails,omitempty"`
	Budget       *Budget        `json:"budget,omitempty"`
}

// PatternOverlap records that two or more patternProperties entries at a
// canonPath could match the same key.
type PatternOverlap struct {
	Key      string   `json:"key"`
	Patterns []string `json:"patterns"`
}

// Metrics is a free-form bag of counters surfaced alongside the envelope.
type Metrics struct {
	MemoKeys             int `json:"memoKeys,omitempty"`
	ValidateErrors       int `json:"validateErrors,omitempty"`
	PatternWitnessTried  int `json:"patternWitnessTried,omitempty"`
	ValidationsPerRow    int `json:"validationsPerRow,omitempty"`
}

// Envelope is the full diagnostic wire form (spec.md §6).
type Envelope struct {
	Fatal           []Fatal                 `json:"fatal"`
	Warn            []Warn                  `json:"warn"`
	Run             []Run                   `json:"run"`
	UnsatHints      []UnsatHint             `json:"unsatHints"`
	BranchDecisions []BranchDecision        `json:"branchDecisions"`
	Nodes           map[string]*NodeInfo    `json:"nodes"`
	Caps            []string                `json:"caps"`
	Overlaps        *Overlaps               `json:"overlaps,omitempty"`
	Metrics         *Metrics                `json:"metrics,omitempty"`
}

// Overlaps groups the optional pattern-overlap report.
type Overlaps struct {
	Patterns []PatternOverlap `json:"patterns,omitempty"`
}

// IsFatal reports whether the envelope contains any fatal diagnostic,
// i.e. whether the owning plan/item must be treated as failed.
func (e *Envelope) IsFatal() bool { return e != nil && len(e.Fatal) > 0 }

// Collector accumulates diagnostics while Normalize/Compose/Generate walk
// the canonical tree; Finish freezes it into an Envelope with
// deterministically sorted Caps and a non-nil Nodes map.
type Collector struct {
	fatal           []Fatal
	warn            []Warn
	run             []Run
	unsatHints      []UnsatHint
	branchDecisions []BranchDecision
	nodes           map[string]*NodeInfo
	caps            map[string]bool
	overlaps        []PatternOverlap
	metrics         Metrics
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		nodes: map[string]*NodeInfo{},
		caps:  map[string]bool{},
	}
}

func (c *Collector) Fatal(code, canonPath string, details map[string]any) {
	c.fatal = append(c.fatal, Fatal{Code: code, CanonPath: canonPath, Details: details})
}

func (c *Collector) Warn(code, canonPath string, details map[string]any) {
	c.warn = append(c.warn, Warn{Code: code, CanonPath: canonPath, Details: details})
}

func (c *Collector) WarnBudget(code, canonPath string, details map[string]any, budget Budget) {
	c.warn = append(c.warn, Warn{Code: code, CanonPath: canonPath, Details: details, Budget: &budget})
}

func (c *Collector) Run(code, canonPath string, details map[string]any) {
	c.run = append(c.run, Run{Code: code, CanonPath: canonPath, Details: details})
}

func (c *Collector) UnsatHint(code, canonPath string, provable bool, reason string, details map[string]any) {
	c.unsatHints = append(c.unsatHints, UnsatHint{
		Code: code, CanonPath: canonPath, Provable: &provable, Reason: reason, Details: details,
	})
}

func (c *Collector) BranchDecision(bd BranchDecision) {
	c.branchDecisions = append(c.branchDecisions, bd)
}

// Node returns (creating if absent) the mutable NodeInfo for canonPath.
func (c *Collector) Node(canonPath string) *NodeInfo {
	n, ok := c.nodes[canonPath]
	if !ok {
		n = &NodeInfo{}
		c.nodes[canonPath] = n
	}
	return n
}

// Cap records that a complexity cap code was triggered anywhere in the
// run; Caps() in the finished envelope is the sorted deduplicated set.
func (c *Collector) Cap(code string) { c.caps[code] = true }

func (c *Collector) Overlap(key string, patterns []string) {
	c.overlaps = append(c.overlaps, PatternOverlap{Key: key, Patterns: patterns})
}

func (c *Collector) SetMetrics(m Metrics) { c.metrics = m }

// Finish freezes the accumulated diagnostics into an Envelope.
func (c *Collector) Finish() *Envelope {
	caps := make([]string, 0, len(c.caps))
	for code := range c.caps {
		caps = append(caps, code)
	}
	sort.Strings(caps)

	env := &Envelope{
		Fatal:           nonNil(c.fatal),
		Warn:            nonNilWarn(c.warn),
		Run:             nonNilRun(c.run),
		UnsatHints:      nonNilUnsat(c.unsatHints),
		BranchDecisions: nonNilBranch(c.branchDecisions),
		Nodes:           c.nodes,
		Caps:            caps,
	}
	if len(c.overlaps) > 0 {
		env.Overlaps = &Overlaps{Patterns: c.overlaps}
	}
	if c.metrics != (Metrics{}) {
		m := c.metrics
		env.Metrics = &m
	}
	return env
}

func nonNil(s []Fatal) []Fatal {
	if s == nil {
		return []Fatal{}
	}
	return s
}

func nonNilWarn(s []Warn) []Warn {
	if s == nil {
		return []Warn{}
	}
	return s
}

func nonNilRun(s []Run) []Run {
	if s == nil {
		return []Run{}
	}
	return s
}

func nonNilUnsat(s []UnsatHint) []UnsatHint {
	if s == nil {
		return []UnsatHint{}
	}
	return s
}

func nonNilBranch(s []BranchDecision) []BranchDecision {
	if s == nil {
		return []BranchDecision{}
	}
	return s
}
