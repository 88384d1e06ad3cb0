package compose

import (
	"fmt"
	"sort"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/regexanalyze"
	"github.com/schemaforge/schemaforge-go/rng"
)

// BranchStats is the per-branch signal set spec.md §4.4's scoring table
// reads from.
type BranchStats struct {
	Index int
	Schema map[string]any

	RequiredKeys    []string
	Types           []string
	LiteralTagKeys  map[string]string // property name -> its literal const/enum value, when singleton
	PatternLiterals []string
	HasUnsafePattern bool
	APTrueEmptyProps bool
	Consts          map[string]any
	SmallEnumProps  map[string]int // property -> enum cardinality
	HasMinCardinalitySignal bool
}

// BranchDecision is Compose's output for one oneOf/anyOf node.
type BranchDecision struct {
	CanonPath string
	Key       string // "oneOf" or "anyOf"
	Stats     []BranchStats
	Scores    []int
	Candidate []int // indices tied for the top score
	Chosen    int
	TiebreakRand *float64
	Budget    diagnostics.Budget
	ScoreDetails map[string]any
}

const (
	maxOneOfBranchesDefault = 64
	maxAnyOfBranchesDefault = 64
)

// selectBranch computes and records the branch decision for the oneOf/anyOf
// keyword on node, memoized by (canonPath, globalSeed, key).
func (c *composer) selectBranch(node *canon.Node, key string, raw any, canonPath string) error {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}

	limit := c.opts.Complexity.MaxOneOfBranches
	capCode := "COMPLEXITY_CAP_ONEOF"
	if key == "anyOf" {
		limit = c.opts.Complexity.MaxAnyOfBranches
		capCode = "COMPLEXITY_CAP_ANYOF"
	}
	if limit <= 0 {
		limit = maxOneOfBranchesDefault
	}
	if len(arr) > limit {
		c.diag.Cap(capCode)
		c.diag.Warn(capCode, canonPath, map[string]any{"limit": limit, "observed": len(arr)})
		arr = arr[:limit]
	}

	memoKey := fmt.Sprintf("%s|%d|%s", canonPath, c.seed, key)
	decision, hit := c.cache.GetOrCompute(memoKey, func() *BranchDecision {
		return c.computeBranchDecision(key, arr, canonPath)
	})
	_ = hit

	c.plan.Branches[canonPath] = decision
	c.recordBranchDiagnostic(decision)
	return nil
}

func (c *composer) computeBranchDecision(key string, arr []any, canonPath string) *BranchDecision {
	stats := make([]BranchStats, len(arr))
	for i, b := range arr {
		bm, _ := b.(map[string]any)
		stats[i] = computeBranchStats(i, bm)
	}

	tagBonus := tagKeyDisjointBonus(stats)

	scores := make([]int, len(stats))
	for i, s := range stats {
		score := tagBonus[i]
		score += 200 * len(s.RequiredKeys)
		if len(s.Types) == 1 {
			score += 10
		}
		if len(s.PatternLiterals) > 0 && patternLiteralsDisjointFromPeers(i, stats) {
			score += 50
		}
		if s.HasUnsafePattern || len(s.Types) > 2 || s.APTrueEmptyProps {
			score -= 5
		}
		score += min(len(s.RequiredKeys), 4) * 120
		score += min(len(s.Consts), 5) * 80
		for _, card := range s.SmallEnumProps {
			if card <= 3 {
				score += 60
			} else {
				score += 30
			}
		}
		if s.HasMinCardinalitySignal {
			score += 10
		}
		scores[i] = score
	}

	order := make([]int, len(stats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	var candidate []int
	if len(order) > 0 {
		top := scores[order[0]]
		for _, idx := range order {
			if scores[idx] == top {
				candidate = append(candidate, idx)
			} else {
				break
			}
		}
	}
	sort.Ints(candidate)

	perBranch := c.opts.Trials.PerBranch
	if perBranch <= 0 {
		perBranch = 2
	}
	kEffective := len(candidate)
	if c.opts.Trials.MaxBranchesToTry > 0 && kEffective > c.opts.Trials.MaxBranchesToTry {
		kEffective = c.opts.Trials.MaxBranchesToTry
	}
	budget := diagnostics.Budget{Tried: 0, Limit: perBranch * kEffective}

	chosen := 0
	if len(candidate) > 0 {
		chosen = candidate[0]
	}
	var tiebreak *float64
	r := rng.New(c.seed, canonPath)
	val := r.Float64()
	tiebreak = &val
	if len(candidate) > 1 || len(order) == 0 {
		if len(candidate) > 0 {
			chosen = candidate[int(val*float64(len(candidate)))%len(candidate)]
		}
	}

	return &BranchDecision{
		CanonPath: canonPath,
		Key:       key,
		Stats:     stats,
		Scores:    scores,
		Candidate: candidate,
		Chosen:    chosen,
		TiebreakRand: tiebreak,
		Budget:    budget,
		ScoreDetails: map[string]any{"scores": scores},
	}
}

func (c *composer) recordBranchDiagnostic(d *BranchDecision) {
	bd := diagnostics.BranchDecision{
		CanonPath:    d.CanonPath,
		ChosenBranch: d.Chosen,
		CandidateSet: d.Candidate,
		TiebreakRand: d.TiebreakRand,
		Budget:       &d.Budget,
	}
	c.diag.BranchDecision(bd)
	info := c.diag.Node(d.CanonPath)
	info.ChosenBranch = &d.Chosen
	info.ScoreDetails = d.ScoreDetails
	info.Budget = &d.Budget
}

func computeBranchStats(index int, schema map[string]any) BranchStats {
	s := BranchStats{Index: index, Schema: schema, LiteralTagKeys: map[string]string{}, Consts: map[string]any{}, SmallEnumProps: map[string]int{}}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if str, ok := r.(string); ok {
				s.RequiredKeys = append(s.RequiredKeys, str)
			}
		}
	}
	if t, ok := schema["type"].([]any); ok {
		for _, x := range t {
			if str, ok := x.(string); ok {
				s.Types = append(s.Types, str)
			}
		}
	}
	if c, ok := schema["const"]; ok {
		s.Consts["$self"] = c
	}
	if apb, ok := schema["additionalProperties"].(bool); ok && apb {
		if props, ok := schema["properties"].(map[string]any); !ok || len(props) == 0 {
			s.APTrueEmptyProps = true
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for name, raw := range props {
			pm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if c, ok := pm["const"]; ok {
				s.Consts[name] = c
				if str, ok := c.(string); ok {
					s.LiteralTagKeys[name] = str
				}
			}
			if enum, ok := pm["enum"].([]any); ok {
				s.SmallEnumProps[name] = len(enum)
				if len(enum) == 1 {
					if str, ok := enum[0].(string); ok {
						s.LiteralTagKeys[name] = str
					}
				}
			}
		}
	}
	if pp, ok := schema["patternProperties"].(map[string]any); ok {
		for pat := range pp {
			cl := regexanalyze.Classify(pat)
			if cl.Kind == regexanalyze.AnchoredSafe && len(cl.Literals) > 0 {
				s.PatternLiterals = append(s.PatternLiterals, cl.Literals...)
			} else {
				s.HasUnsafePattern = true
			}
		}
	}
	for _, k := range []string{"minProperties", "minItems", "minLength", "minimum"} {
		if _, ok := schema[k]; ok {
			s.HasMinCardinalitySignal = true
		}
	}
	return s
}

// tagKeyDisjointBonus awards +1000 per property key whose literal tag value
// (const or singleton-enum) is disjoint across every branch that declares it.
func tagKeyDisjointBonus(stats []BranchStats) []int {
	bonus := make([]int, len(stats))
	keyValues := map[string]map[string][]int{} // key -> value -> branch indices
	for _, s := range stats {
		for k, v := range s.LiteralTagKeys {
			if keyValues[k] == nil {
				keyValues[k] = map[string][]int{}
			}
			keyValues[k][v] = append(keyValues[k][v], s.Index)
		}
	}
	for _, valueMap := range keyValues {
		disjoint := true
		seen := map[int]bool{}
		for _, indices := range valueMap {
			if len(indices) != 1 {
				disjoint = false
				break
			}
			if seen[indices[0]] {
				disjoint = false
				break
			}
			seen[indices[0]] = true
		}
		if disjoint {
			for _, indices := range valueMap {
				bonus[indices[0]] += 1000
			}
		}
	}
	return bonus
}

func patternLiteralsDisjointFromPeers(index int, stats []BranchStats) bool {
	mine := map[string]bool{}
	for _, l := range stats[index].PatternLiterals {
		mine[l] = true
	}
	if len(mine) == 0 {
		return false
	}
	for i, s := range stats {
		if i == index {
			continue
		}
		for _, l := range s.PatternLiterals {
			if mine[l] {
				return false
			}
		}
	}
	return true
}
