package normalize

import (
	"fmt"
	"sort"
)

// flattenAllOf merges every branch of an allOf array into a single
// keyword set (spec.md §3's allOf flattening), returning the merged
// result plus any branch fragments that could not be losslessly merged
// (residual conjuncts — see mergeBranch's fallback keys). Those residual
// fragments are re-embedded as a synthetic "allOf" on the caller's
// output so Compose still evaluates them as a conjunction.
//
// Grounded on schemaprofile/allof.go's flattenAllOf/mergeAllOfBranch:
// same merge rules (type intersection with integer⊆number, properties
// union + recursive merge, required union, additionalProperties
// false-wins, enum/const intersection, bounds most-restrictive-wins),
// extended here to patternProperties/contains/propertyNames/prefixItems
// and to tolerate oneOf/anyOf/not/if/then/else inside a branch (the
// profile normalizer rejected those; the full engine must merge allOf
// wherever it nests under any JSON Schema construct).
func (nz *normalizer) flattenAllOf(arr []any, canonPath string) (map[string]any, []map[string]any, error) {
	merged := map[string]any{}
	var residual []map[string]any

	for idx, item := range arr {
		branch, ok := asMap(item)
		if !ok {
			if b, ok := asBool(item); ok {
				if !b {
					return nil, nil, fmt.Errorf("%s.allOf[%d]: always-false branch makes allOf unsatisfiable", canonPath, idx)
				}
				continue
			}
			return nil, nil, fmt.Errorf("%s.allOf[%d]: must be an object or boolean", canonPath, idx)
		}

		resolved, err := nz.inlineRef(branch, canonPath)
		if err != nil {
			return nil, nil, err
		}

		leftover, err := mergeBranch(merged, resolved)
		if err != nil {
			return nil, nil, err
		}
		if leftover != nil {
			residual = append(residual, leftover)
		}
	}

	return merged, residual, nil
}

// mergeableKeys enumerates every keyword mergeBranch knows how to fold
// into the accumulator; anything else in a branch is returned verbatim
// in leftover so the caller can preserve it as a residual conjunct.
var mergeableKeys = map[string]bool{
	"type": true, "properties": true, "required": true,
	"additionalProperties": true, "patternProperties": true,
	"items": true, "prefixItems": true, "contains": true,
	"propertyNames": true, "enum": true, "const": true,
	"minimum": true, "exclusiveMinimum": true, "minLength": true, "minItems": true,
	"maximum": true, "exclusiveMaximum": true, "maxLength": true, "maxItems": true,
	"minContains": true, "maxContains": true,
}

func mergeBranch(acc, branch map[string]any) (leftover map[string]any, err error) {
	for k, v := range branch {
		if !mergeableKeys[k] {
			if leftover == nil {
				leftover = map[string]any{}
			}
			leftover[k] = v
		}
	}

	if bt, ok := branch["type"]; ok {
		bTypes := normalizeType(bt)
		if at, ok := acc["type"]; ok {
			aTypes := normalizeType(at)
			inter := intersectTypeSlices(aTypes, bTypes)
			if len(inter) == 0 {
				return nil, fmt.Errorf("allOf type intersection is empty")
			}
			acc["type"] = inter
		} else {
			acc["type"] = bTypes
		}
	}

	if bp, ok := branch["properties"]; ok {
		bProps, _ := asMap(bp)
		aProps, _ := asMap(acc["properties"])
		if aProps == nil {
			aProps = map[string]any{}
		} else {
			aProps = cloneMap(aProps)
		}
		for k, bv := range bProps {
			if av, exists := aProps[k]; exists {
				avm, _ := asMap(av)
				bvm, _ := asMap(bv)
				if avm == nil {
					avm = map[string]any{}
				}
				if bvm == nil {
					bvm = map[string]any{}
				}
				merged := cloneMap(avm)
				if _, err := mergeBranch(merged, bvm); err != nil {
					return nil, err
				}
				aProps[k] = merged
			} else {
				aProps[k] = bv
			}
		}
		acc["properties"] = aProps
	}

	if br, ok := branch["required"]; ok {
		bReq := normalizeStringSet(br)
		if ar, ok := acc["required"]; ok {
			acc["required"] = unionStringSlices(normalizeStringSet(ar), bReq)
		} else {
			acc["required"] = bReq
		}
	}

	if bap, ok := branch["additionalProperties"]; ok {
		mergeAPOrSchema(acc, "additionalProperties", bap)
	}
	if bpn, ok := branch["propertyNames"]; ok {
		mergeAPOrSchema(acc, "propertyNames", bpn)
	}

	if bpp, ok := branch["patternProperties"]; ok {
		bPP, _ := asMap(bpp)
		aPP, _ := asMap(acc["patternProperties"])
		if aPP == nil {
			aPP = map[string]any{}
		} else {
			aPP = cloneMap(aPP)
		}
		for pat, bv := range bPP {
			if av, exists := aPP[pat]; exists {
				avm, _ := asMap(av)
				bvm, _ := asMap(bv)
				merged := cloneMap(avm)
				if _, err := mergeBranch(merged, bvm); err != nil {
					return nil, err
				}
				aPP[pat] = merged
			} else {
				aPP[pat] = bv
			}
		}
		acc["patternProperties"] = aPP
	}

	if be, ok := branch["enum"]; ok {
		bEnum, _ := asSlice(be)
		if ae, ok := acc["enum"]; ok {
			aEnum, _ := asSlice(ae)
			inter := intersectValues(aEnum, bEnum)
			if len(inter) == 0 {
				return nil, fmt.Errorf("allOf enum intersection is empty")
			}
			acc["enum"] = inter
		} else {
			acc["enum"] = bEnum
		}
	}

	if bc, ok := branch["const"]; ok {
		if ac, ok := acc["const"]; ok {
			if canonicalKey(ac) != canonicalKey(bc) {
				return nil, fmt.Errorf("allOf const conflict")
			}
		} else {
			acc["const"] = bc
		}
	}

	if bi, ok := branch["items"]; ok {
		mergeAPOrSchema(acc, "items", bi)
	}
	if bi, ok := branch["contains"]; ok {
		mergeAPOrSchema(acc, "contains", bi)
	}
	if bp, ok := branch["prefixItems"]; ok {
		// prefixItems is positional; allOf over differing tuple shapes is
		// a corner spec.md leaves underdetermined. We take the longer
		// array and, for overlapping positions, recursively merge.
		bArr, _ := asSlice(bp)
		if aArrAny, ok := acc["prefixItems"]; ok {
			aArr, _ := asSlice(aArrAny)
			out := make([]any, 0, maxInt(len(aArr), len(bArr)))
			for i := 0; i < maxInt(len(aArr), len(bArr)); i++ {
				switch {
				case i < len(aArr) && i < len(bArr):
					am, _ := asMap(aArr[i])
					bm, _ := asMap(bArr[i])
					merged := cloneMap(am)
					if _, err := mergeBranch(merged, bm); err != nil {
						return nil, err
					}
					out = append(out, merged)
				case i < len(aArr):
					out = append(out, aArr[i])
				default:
					out = append(out, bArr[i])
				}
			}
			acc["prefixItems"] = out
		} else {
			acc["prefixItems"] = bArr
		}
	}

	for _, k := range []string{"minimum", "exclusiveMinimum", "minLength", "minItems", "minContains"} {
		if bv, ok := branch[k]; ok {
			bf, _ := toFloat64(bv)
			if av, ok := acc[k]; ok {
				if af, _ := toFloat64(av); bf > af {
					acc[k] = bv
				}
			} else {
				acc[k] = bv
			}
		}
	}
	for _, k := range []string{"maximum", "exclusiveMaximum", "maxLength", "maxItems", "maxContains"} {
		if bv, ok := branch[k]; ok {
			bf, _ := toFloat64(bv)
			if av, ok := acc[k]; ok {
				if af, _ := toFloat64(av); bf < af {
					acc[k] = bv
				}
			} else {
				acc[k] = bv
			}
		}
	}

	return leftover, nil
}

// mergeAPOrSchema merges a keyword whose value may be `false` (wins
// outright: e.g. additionalProperties:false) or a schema object
// (recursively merged), such as additionalProperties/items/contains/
// propertyNames.
func mergeAPOrSchema(acc map[string]any, key string, bv any) {
	if b, ok := asBool(bv); ok {
		if !b {
			acc[key] = false
			return
		}
		if _, exists := acc[key]; !exists {
			acc[key] = true
		}
		return
	}
	bm, _ := asMap(bv)
	if av, ok := acc[key]; ok {
		if ab, ok := asBool(av); ok {
			if !ab {
				return // false already wins
			}
			acc[key] = bm
			return
		}
		am, _ := asMap(av)
		merged := cloneMap(am)
		mergeBranch(merged, bm) //nolint:errcheck // best-effort merge on an already-merged accumulator
		acc[key] = merged
		return
	}
	acc[key] = bm
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func intersectTypeSlices(a, b []any) []any {
	aSet := map[string]struct{}{}
	for _, v := range a {
		if s, ok := v.(string); ok {
			aSet[s] = struct{}{}
		}
	}
	bSet := map[string]struct{}{}
	for _, v := range b {
		if s, ok := v.(string); ok {
			bSet[s] = struct{}{}
		}
	}

	result := map[string]struct{}{}
	for s := range aSet {
		if s == "number" || s == "integer" {
			continue
		}
		if _, ok := bSet[s]; ok {
			result[s] = struct{}{}
		}
	}

	_, aNum := aSet["number"]
	_, bNum := bSet["number"]
	_, aInt := aSet["integer"]
	_, bInt := bSet["integer"]
	aAcceptsNumbers := aNum || aInt
	bAcceptsNumbers := bNum || bInt

	if aAcceptsNumbers && bAcceptsNumbers {
		if aNum && bNum {
			result["number"] = struct{}{}
		} else {
			result["integer"] = struct{}{}
		}
	}

	out := make([]any, 0, len(result))
	for s := range result {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].(string) < out[j].(string) })
	return out
}

func unionStringSlices(a, b []any) []any {
	set := map[string]struct{}{}
	for _, v := range a {
		if s, ok := v.(string); ok {
			set[s] = struct{}{}
		}
	}
	for _, v := range b {
		if s, ok := v.(string); ok {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	result := make([]any, len(out))
	for i, s := range out {
		result[i] = s
	}
	return result
}

func intersectValues(a, b []any) []any {
	bSet := map[string]any{}
	for _, v := range b {
		bSet[canonicalKey(v)] = v
	}
	var out []any
	for _, v := range a {
		if _, ok := bSet[canonicalKey(v)]; ok {
			out = append(out, v)
		}
	}
	return out
}
