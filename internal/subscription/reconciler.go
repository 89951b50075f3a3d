// Package subscription keeps the host's long-lived listeners and timers
// in line with what the core declares.
//
// The Reconciler receives the complete declared set once per update cycle,
// diffs it against what is running, and asks the per-kind managers to stop
// and start the difference. Removals always happen before additions so an
// id reused with a changed config is never registered twice.
package subscription

import (
	"sort"
	"sync"

	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// Manager owns the native resources of one subscription kind.
type Manager interface {
	// Start installs the native resource for sub.
	Start(sub ir.Subscription) error
	// Stop releases the resource for id. Stopping an unknown or already
	// stopped id is a no-op. No occurrence is delivered after Stop returns.
	Stop(id string)
}

// Action is what the reconciler did to a subscription.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Change describes one start or stop.
type Change struct {
	Action Action
	Kind   ir.SubscriptionKind
	ID     string
}

// managedKinds is the order kinds are applied in.
var managedKinds = []ir.SubscriptionKind{ir.SubscriptionEventListener, ir.SubscriptionInterval}

// Reconciler applies declared subscription sets.
//
// Thread-safety: Reconcile, Active and Close are safe for concurrent use,
// but the engine only calls them from its cycle goroutine.
type Reconciler struct {
	mu       sync.Mutex
	managers map[ir.SubscriptionKind]Manager
	active   map[ir.SubscriptionKind][]ir.Subscription
	log      *logging.Logger
	observe  func(Change)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithObserver reports every start and stop to fn.
func WithObserver(fn func(Change)) Option {
	return func(r *Reconciler) { r.observe = fn }
}

// WithManager replaces the manager for kind.
func WithManager(kind ir.SubscriptionKind, m Manager) Option {
	return func(r *Reconciler) { r.managers[kind] = m }
}

// NewReconciler creates a Reconciler over the given managers.
func NewReconciler(events, intervals Manager, log *logging.Logger, opts ...Option) *Reconciler {
	if log == nil {
		log = logging.Nop()
	}
	r := &Reconciler{
		managers: map[ir.SubscriptionKind]Manager{
			ir.SubscriptionEventListener: events,
			ir.SubscriptionInterval:      intervals,
		},
		active: make(map[ir.SubscriptionKind][]ir.Subscription),
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile makes the running set match declared. Calling it twice with
// the same set does nothing the second time.
func (r *Reconciler) Reconcile(declared []ir.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := r.group(declared)

	deltas := make(map[ir.SubscriptionKind]Delta, len(managedKinds))
	for _, kind := range managedKinds {
		d := Diff(r.active[kind], groups[kind])
		if !d.Empty() {
			r.log.Debug(logging.Subscriptions, logging.Normal, "updating subscriptions",
				"kind", string(kind),
				"removing", len(d.Remove),
				"keeping", len(d.Keep),
				"adding", len(d.Add))
		}
		deltas[kind] = d
	}

	for _, kind := range managedKinds {
		for _, sub := range deltas[kind].Remove {
			r.managers[kind].Stop(sub.ID)
			r.notify(ActionStop, kind, sub.ID)
		}
	}

	for _, kind := range managedKinds {
		d := deltas[kind]
		next := d.Keep
		for _, sub := range d.Add {
			if err := r.managers[kind].Start(sub); err != nil {
				r.log.Warn(logging.Subscriptions, "failed to start subscription",
					"kind", string(kind), "id", sub.ID, "error", err)
				continue
			}
			next = append(next, sub)
			r.notify(ActionStart, kind, sub.ID)
		}
		r.active[kind] = next
	}
}

// group splits declared by kind. Ids are unique across kinds: when one
// id is declared twice the last declaration wins, whatever its kind.
func (r *Reconciler) group(declared []ir.Subscription) map[ir.SubscriptionKind][]ir.Subscription {
	managed := make([]ir.Subscription, 0, len(declared))
	for _, sub := range declared {
		switch sub.Kind {
		case ir.SubscriptionNone:
		case ir.SubscriptionEventListener, ir.SubscriptionInterval:
			managed = append(managed, sub)
		default:
			r.log.Warn(logging.Subscriptions, "unknown subscription kind",
				"code", ir.ErrCodeUnknownSubscriptionKind,
				"kind", string(sub.Kind),
				"id", sub.ID)
		}
	}

	unique, dupes := dedupe(managed)
	for _, id := range dupes {
		r.log.Warn(logging.Subscriptions, "duplicate subscription id, keeping the last declaration", "id", id)
	}

	groups := make(map[ir.SubscriptionKind][]ir.Subscription, len(managedKinds))
	for _, sub := range unique {
		groups[sub.Kind] = append(groups[sub.Kind], sub)
	}
	return groups
}

func (r *Reconciler) notify(action Action, kind ir.SubscriptionKind, id string) {
	if r.observe != nil {
		r.observe(Change{Action: action, Kind: kind, ID: id})
	}
}

// Active returns the running subscription ids, sorted.
func (r *Reconciler) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, subs := range r.active {
		for _, sub := range subs {
			ids = append(ids, sub.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Close stops every running subscription.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, kind := range managedKinds {
		for _, sub := range r.active[kind] {
			r.managers[kind].Stop(sub.ID)
			r.notify(ActionStop, kind, sub.ID)
		}
		delete(r.active, kind)
	}
}
