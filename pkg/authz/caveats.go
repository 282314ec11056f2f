// Copyright 2025 Certen Protocol

package authz

// caveatsStrengthen reports whether child is a valid strengthening of
// parent: every parent key must be present in child, and the corresponding
// values must not be looser. Caveats are treated as upper bounds, so:
//
//   - numbers: child <= parent
//   - strings/bools: exact equality
//   - arrays: child must be a subset of parent (as a set of elements)
//   - objects: compared recursively under the same rule
//
// child may carry additional keys parent doesn't mention; those are new
// restrictions the delegator didn't require and are always permitted.
func caveatsStrengthen(parent, child map[string]any) bool {
	for k, pv := range parent {
		cv, ok := child[k]
		if !ok {
			return false
		}
		if !caveatValueStrengthens(pv, cv) {
			return false
		}
	}
	return true
}

func caveatValueStrengthens(parent, child any) bool {
	switch p := parent.(type) {
	case float64:
		c, ok := child.(float64)
		return ok && c <= p
	case string:
		c, ok := child.(string)
		return ok && c == p
	case bool:
		c, ok := child.(bool)
		return ok && c == p
	case []any:
		c, ok := child.([]any)
		if !ok {
			return false
		}
		return isSubset(c, p)
	case map[string]any:
		c, ok := child.(map[string]any)
		return ok && caveatsStrengthen(p, c)
	case nil:
		return child == nil
	default:
		return false
	}
}

// isSubset reports whether every element of child also appears in parent,
// under a shallow equality comparison suited to JSON-decoded scalars.
func isSubset(child, parent []any) bool {
	for _, ce := range child {
		found := false
		for _, pe := range parent {
			if jsonEqual(ce, pe) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func jsonEqual(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && bv == av
	case string:
		bv, ok := b.(string)
		return ok && bv == av
	case bool:
		bv, ok := b.(bool)
		return ok && bv == av
	case nil:
		return b == nil
	default:
		return false
	}
}
