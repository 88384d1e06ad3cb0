// Package planopts implements the functional-options builder for the
// engine's PlanOptions (spec.md §6 "Plan options"): every recognized
// option group has a typed default, set via a With... option function,
// and the built value is immutable afterward.
//
// Grounded on openbindings-go's validate.go functional-options pattern
// (WithRejectUnknownTypedFields, WithRequireEventPayload, ...) — the same
// "Option func(*cfg)" shape, generalized from validation flags to
// generation tuning knobs. JSON round-tripping of an Options value
// reuses lossless.go's splitLossless/marshalLossless idiom so a caller
// supplying a newer option-group key than this build recognizes gets it
// preserved rather than silently dropped (the same forward-compatibility
// goal lossless.go serves for BindingEntry/Interface wire fields).
package planopts

import (
	"encoding/json"
)

// Trials controls branch-trial budgets (spec.md §4.3).
type Trials struct {
	PerBranch             int  `json:"perBranch"`
	MaxBranchesToTry       int  `json:"maxBranchesToTry,omitempty"`
	SkipTrials             bool `json:"skipTrials,omitempty"`
	SkipTrialsIfBranchesGt int  `json:"skipTrialsIfBranchesGt,omitempty"`
}

// Guards bounds recursive/self-referential expansion.
type Guards struct {
	MaxGeneratedNotNesting int `json:"maxGeneratedNotNesting"`
	MaxDynamicScopeHops    int `json:"maxDynamicScopeHops,omitempty"`
}

// RationalFallback names the numeric representation used when exact
// decimal precision cannot be honored.
type RationalFallback string

const (
	FallbackDecimal RationalFallback = "decimal"
	FallbackFloat   RationalFallback = "float"
)

// Rational controls multipleOf/decimal precision handling.
type Rational struct {
	DecimalPrecision int              `json:"decimalPrecision"`
	Fallback         RationalFallback `json:"fallback"`
}

// Complexity holds the engine's structural complexity caps.
type Complexity struct {
	MaxOneOfBranches  int `json:"maxOneOfBranches,omitempty"`
	MaxAnyOfBranches  int `json:"maxAnyOfBranches,omitempty"`
	MaxEnumCardinality int `json:"maxEnumCardinality"`
	MaxContainsNeeds  int `json:"maxContainsNeeds"`
	MaxSchemaBytes    int `json:"maxSchemaBytes"`
}

// PatternWitness bounds the bounded pattern-witness search Generate uses
// for additionalProperties:false key synthesis.
type PatternWitness struct {
	Alphabet      string `json:"alphabet"`
	MaxLength     int    `json:"maxLength"`
	MaxCandidates int    `json:"maxCandidates"`
}

// NameEnum bounds the name-automaton BFS enumeration.
type NameEnum struct {
	MaxDepth   int `json:"maxDepth"`
	MaxResults int `json:"maxResults"`
	MaxMillis  int `json:"maxMillis,omitempty"`
	MaxStates  int `json:"maxStates"`
	MaxQueue   int `json:"maxQueue"`
	BeamWidth  int `json:"beamWidth,omitempty"`
}

// Cache configures the engine's bounded LRU memo cache.
type Cache struct {
	LRUSize int `json:"lruSize"`
}

// UnsafePolicy names how an unsafe patternProperties entry under
// additionalProperties:false is treated (spec.md §9 Open Question 2).
type UnsafePolicy string

const (
	PolicyError UnsafePolicy = "error"
	PolicyWarn  UnsafePolicy = "warn"
)

// PatternPolicy controls unsafe-pattern handling under AP:false.
type PatternPolicy struct {
	UnsafeUnderApFalse UnsafePolicy `json:"unsafeUnderApFalse"`
}

// StringTweak names the exclusivity-repair tie-break strategy for oneOf.
type StringTweak string

const (
	TweakDefault      StringTweak = "default"
	TweakPreferASCII  StringTweak = "preferAscii"
)

// Conditionals controls if/then/else and oneOf exclusivity-repair tuning.
type Conditionals struct {
	ExclusivityStringTweak StringTweak `json:"exclusivityStringTweak"`
}

// Options is the full, immutable-after-build plan/compose options value.
type Options struct {
	Trials         Trials         `json:"trials"`
	Guards         Guards         `json:"guards"`
	Rational       Rational       `json:"rational"`
	Complexity     Complexity     `json:"complexity"`
	PatternWitness PatternWitness `json:"patternWitness"`
	NameEnum       NameEnum       `json:"nameEnum"`
	Cache          Cache          `json:"cache"`
	PatternPolicy  PatternPolicy  `json:"patternPolicy"`
	Conditionals   Conditionals   `json:"conditionals"`

	DisablePatternOverlapAnalysis bool   `json:"disablePatternOverlapAnalysis,omitempty"`
	EnableLocalSMT                bool   `json:"enableLocalSMT,omitempty"`
	SolverTimeoutMs               int    `json:"solverTimeoutMs,omitempty"`
	ValidateFormats                bool   `json:"validateFormats,omitempty"`
	PreferExamples                bool   `json:"preferExamples,omitempty"`
	Count                          int    `json:"count,omitempty"`
	Seed                           int64  `json:"seed"`
	SourceSchema                   string `json:"sourceSchema,omitempty"`

	// extensions/unknown preserve top-level option groups this build
	// doesn't recognize, round-tripped on MarshalJSON (lossless.go idiom).
	extensions map[string]json.RawMessage
	unknown    map[string]json.RawMessage
}

// Option mutates a under-construction Options value.
type Option func(*Options)

func WithTrials(t Trials) Option         { return func(o *Options) { o.Trials = t } }
func WithGuards(g Guards) Option         { return func(o *Options) { o.Guards = g } }
func WithRational(r Rational) Option     { return func(o *Options) { o.Rational = r } }
func WithComplexity(c Complexity) Option { return func(o *Options) { o.Complexity = c } }
func WithPatternWitness(p PatternWitness) Option {
	return func(o *Options) { o.PatternWitness = p }
}
func WithNameEnum(n NameEnum) Option           { return func(o *Options) { o.NameEnum = n } }
func WithCache(c Cache) Option                 { return func(o *Options) { o.Cache = c } }
func WithPatternPolicy(p PatternPolicy) Option { return func(o *Options) { o.PatternPolicy = p } }
func WithConditionals(c Conditionals) Option   { return func(o *Options) { o.Conditionals = c } }
func WithDisablePatternOverlapAnalysis() Option {
	return func(o *Options) { o.DisablePatternOverlapAnalysis = true }
}
func WithEnableLocalSMT() Option { return func(o *Options) { o.EnableLocalSMT = true } }
func WithSolverTimeoutMs(ms int) Option {
	return func(o *Options) { o.SolverTimeoutMs = ms }
}
func WithValidateFormats(v bool) Option { return func(o *Options) { o.ValidateFormats = v } }
func WithPreferExamples() Option        { return func(o *Options) { o.PreferExamples = true } }
func WithCount(n int) Option            { return func(o *Options) { o.Count = n } }
func WithSeed(seed int64) Option        { return func(o *Options) { o.Seed = seed } }
func WithSourceSchema(name string) Option {
	return func(o *Options) { o.SourceSchema = name }
}

// defaultOptions mirrors the defaults called out in spec.md §6.
func defaultOptions() Options {
	return Options{
		Trials:   Trials{PerBranch: 2},
		Guards:   Guards{MaxGeneratedNotNesting: 2},
		Rational: Rational{DecimalPrecision: 6, Fallback: FallbackDecimal},
		Complexity: Complexity{
			MaxEnumCardinality: 256,
			MaxContainsNeeds:   64,
			MaxSchemaBytes:     1 << 20,
		},
		PatternWitness: PatternWitness{
			Alphabet:      "abcdefghijklmnopqrstuvwxyz0123456789",
			MaxLength:     16,
			MaxCandidates: 256,
		},
		NameEnum: NameEnum{
			MaxDepth:   8,
			MaxResults: 256,
			MaxStates:  4096,
			MaxQueue:   4096,
		},
		Cache:         Cache{LRUSize: 4096},
		PatternPolicy: PatternPolicy{UnsafeUnderApFalse: PolicyWarn},
		Conditionals:  Conditionals{ExclusivityStringTweak: TweakDefault},
	}
}

// New builds an immutable Options value from spec.md's stated defaults,
// applying opts in order.
func New(opts ...Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

var knownGroups = knownSet(
	"trials", "guards", "rational", "complexity", "patternWitness", "nameEnum",
	"cache", "patternPolicy", "conditionals", "disablePatternOverlapAnalysis",
	"enableLocalSMT", "solverTimeoutMs", "validateFormats", "preferExamples",
	"count", "seed", "sourceSchema",
)

// MarshalJSON emits the typed groups merged over any preserved unknown
// top-level groups, known fields winning (lossless.go's marshalLossless
// idiom).
func (o Options) MarshalJSON() ([]byte, error) {
	type wire Options
	return marshalLossless(o.unknown, o.extensions, wire(o))
}

// UnmarshalJSON decodes the recognized option groups into typed fields
// and preserves any unrecognized top-level group under unknown, so a
// caller-round-trip of a newer wire payload than this build understands
// does not silently drop data.
func (o *Options) UnmarshalJSON(data []byte) error {
	type wire Options
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Options(w)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	_, unknown := splitLossless(raw, knownGroups)
	o.unknown = unknown
	o.extensions = nil
	return nil
}
