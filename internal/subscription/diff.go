package subscription

import (
	"github.com/roach88/boundary/internal/ir"
)

// Delta is the work needed to move from the active set to a declared set.
type Delta struct {
	// Keep holds active subscriptions whose declaration is unchanged.
	Keep []ir.Subscription
	// Remove holds active subscriptions that are gone or changed.
	Remove []ir.Subscription
	// Add holds declarations that must be started.
	Add []ir.Subscription
	// Duplicates lists ids declared more than once. The last declaration wins.
	Duplicates []string
}

// Empty reports whether applying the delta would touch the host.
func (d Delta) Empty() bool {
	return len(d.Remove) == 0 && len(d.Add) == 0
}

// Diff computes the delta between active and declared. It is pure.
//
// An active subscription is kept only when a declaration with the same id
// has a structurally equal config. A changed config is a removal followed
// by an addition of the same id.
func Diff(active, declared []ir.Subscription) Delta {
	var d Delta
	declared, d.Duplicates = dedupe(declared)

	byID := make(map[string]ir.Subscription, len(declared))
	for _, sub := range declared {
		byID[sub.ID] = sub
	}

	kept := make(map[string]bool, len(active))
	for _, sub := range active {
		next, ok := byID[sub.ID]
		if ok && ir.Equal(sub.Config, next.Config) {
			d.Keep = append(d.Keep, sub)
			kept[sub.ID] = true
			continue
		}
		d.Remove = append(d.Remove, sub)
	}

	for _, sub := range declared {
		if !kept[sub.ID] {
			d.Add = append(d.Add, sub)
		}
	}
	return d
}

// dedupe keeps one declaration per id, at the position of its first
// occurrence, with the value of its last.
func dedupe(subs []ir.Subscription) ([]ir.Subscription, []string) {
	index := make(map[string]int, len(subs))
	out := make([]ir.Subscription, 0, len(subs))
	var dupes []string
	for _, sub := range subs {
		if i, ok := index[sub.ID]; ok {
			out[i] = sub
			dupes = append(dupes, sub.ID)
			continue
		}
		index[sub.ID] = len(out)
		out = append(out, sub)
	}
	return out, dupes
}
