package schemaforge

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/compose"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/generate"
	"github.com/schemaforge/schemaforge-go/normalize"
	"github.com/schemaforge/schemaforge-go/planopts"
)

// Engine orchestrates the three subsystems spec.md §2 describes:
// Normalize turns a user schema into a canon.Tree, Compose derives a Plan
// from it, and Generate draws `count` items from that Plan. The same
// Engine value can be reused across calls; nothing it touches is mutated
// by a prior run (spec.md §5: no shared mutable state across calls).
//
// Grounded on theRebelliousNerd-codenerd's cmd/nerd/main.go zap wiring
// (zap.NewProductionConfig + AtomicLevel), adapted from that CLI's
// package-level logger var to an injected, nil-safe field: a library
// entry point has no business owning process-global logging state.
type Engine struct {
	log *zap.Logger
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithLogger injects a *zap.Logger. A nil logger (or no WithLogger option
// at all) falls back to zap.NewNop(), matching spec.md §5's requirement
// that logging never participates in control flow or determinism.
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine builds an Engine ready for repeated Run calls.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewProductionEngine builds an Engine logging through zap's production
// config, with verbose switching debug level the way cmd/nerd/main.go's
// --verbose flag does (zap.NewAtomicLevelAt(zapcore.DebugLevel)).
func NewProductionEngine(verbose bool) (*Engine, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewEngine(WithLogger(log)), nil
}

// Run normalizes schema, composes a plan, and generates opts.Count items
// (or 1 if unset), returning the diagnostic envelope alongside the
// per-item results. opts may be nil to take every spec.md §6 default.
func (e *Engine) Run(schema map[string]any, opts *planopts.Options) ([]Result[JSONSchema], *diagnostics.Envelope, error) {
	if opts == nil {
		opts = planopts.New()
	}
	diag := diagnostics.NewCollector()

	e.log.Debug("normalize: start", zap.Int("schemaKeys", len(schema)))
	tree, err := normalize.Normalize(schema, normalize.Options{
		AllowPatternFormPropertyNamesRewrite: false,
	}, diag)
	if err != nil {
		e.log.Error("normalize: failed", zap.Error(err))
		return nil, diag.Finish(), err
	}

	e.log.Debug("compose: start", zap.String("rootKind", kindName(tree)))
	plan, err := compose.Compose(tree, opts, diag, opts.Seed)
	if err != nil {
		e.log.Error("compose: failed", zap.Error(err))
		return nil, diag.Finish(), err
	}

	count := opts.Count
	if count <= 0 {
		count = 1
	}
	e.log.Debug("generate: start", zap.Int("count", count), zap.Int64("seed", opts.Seed))
	items := generate.Generate(tree, plan, opts, diag, opts.Seed, count)

	results := make([]Result[JSONSchema], 0, len(items))
	for _, item := range items {
		if item.Err != nil {
			results = append(results, Err[JSONSchema](&GenerateError{
				Kind:      toGenerateErrorKind(item.Err.Kind),
				CanonPath: item.Err.CanonPath,
				Format:    item.Err.Format,
				Reason:    item.Err.Reason,
			}))
			continue
		}
		results = append(results, Ok[JSONSchema](item.Value))
	}

	envelope := diag.Finish()
	e.log.Info("run complete",
		zap.Int("items", len(results)),
		zap.Int("fatal", len(envelope.Fatal)),
		zap.Int("warn", len(envelope.Warn)),
	)
	return results, envelope, nil
}

// toGenerateErrorKind maps generate's internal, untyped Failure.Kind
// strings onto the public GenerateErrorKind catalog, defaulting unknown
// kinds to KindDomainExhausted rather than inventing a fourth exported
// kind for what is, today, a single internal failure path.
func toGenerateErrorKind(kind string) GenerateErrorKind {
	switch kind {
	case "unsupported-format":
		return KindUnsupportedFormat
	case "unsatisfiable":
		return KindUnsatisfiable
	default:
		return KindDomainExhausted
	}
}

func kindName(tree *canon.Tree) string {
	if tree == nil || tree.Root == nil {
		return ""
	}
	switch tree.Root.Kind {
	case canon.Object:
		return "object"
	case canon.Array:
		return "array"
	default:
		return "scalar"
	}
}
