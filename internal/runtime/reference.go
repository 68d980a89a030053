package runtime

import (
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
)

// ReferenceUpdates returns the derived fields that must be rewritten after values
// moved on from prev.
//
// A field bound to a reference follows its source until the user edits it by hand.
// A hand edit is detected when the stored value no longer equals the transform of the
// previous source value. Unset derived fields are never considered hand-edited.
func ReferenceUpdates(nodes []domain.Node, values, prev domain.Values) domain.Values {
	names := make(map[string]*domain.Node)
	ids := make(map[string]*domain.Node, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		ids[n.ID] = n
		if in, ok := n.Input(); ok && in.Name != "" {
			if _, dup := names[in.Name]; !dup {
				names[in.Name] = n
			}
		}
	}
	lookup := func(bag domain.Values, ref string) any {
		if v, ok := bag[ref]; ok {
			return v
		}
		if n, ok := ids[ref]; ok {
			return nodeValue(n, bag)
		}
		if n, ok := names[ref]; ok {
			return nodeValue(n, bag)
		}
		return nil
	}

	patch := make(domain.Values)
	for _, n := range nodes {
		in, ok := n.Input()
		if !ok || !in.DefaultValue.IsReference() {
			continue
		}
		dv := in.DefaultValue

		current := lookup(values, dv.Reference)
		previous := lookup(prev, dv.Reference)
		if current == nil || sameValue(current, previous) {
			continue
		}

		next := ApplyTransform(current, dv.TransformFunction, dv.ObjectMapping)
		if next == nil {
			continue
		}
		synced := ApplyTransform(previous, dv.TransformFunction, dv.ObjectMapping)

		stored, has := values[n.ID]
		if has && stored != nil && !sameValue(stored, synced) {
			continue
		}
		if has && sameValue(stored, next) {
			continue
		}
		patch[n.ID] = next
	}

	if len(patch) == 0 {
		return nil
	}
	return patch
}

// sameValue compares two stored values. Numbers compare by value regardless of
// their Go type so that 1 and 1.0 are the same field value.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	na, aok := normalize(a).(float64)
	nb, bok := normalize(b).(float64)
	if aok && bok {
		return na == nb
	}
	if a == nil || b == nil {
		return false
	}
	switch a.(type) {
	case map[string]any, []any, domain.Values:
		return normalize(a) == normalize(b)
	}
	return false
}
