package subscription

import (
	"strings"

	"github.com/roach88/boundary/internal/host"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// MouseButton names the native button code, or "" for codes with no name.
func MouseButton(code int) string {
	switch code {
	case 0:
		return "main"
	case 1:
		return "auxiliary"
	case 2:
		return "secondary"
	case 3:
		return "fourth"
	case 4:
		return "fifth"
	}
	return ""
}

// Match reports whether ev satisfies every matcher. An empty chain matches.
func Match(matchers []ir.EventMatcher, ev host.Event, log *logging.Logger) bool {
	for _, m := range matchers {
		if !matchOne(m, ev, log) {
			return false
		}
	}
	return true
}

func matchOne(m ir.EventMatcher, ev host.Event, log *logging.Logger) bool {
	switch m.Kind {
	case ir.MatchExactSelector:
		target := ev.Target()
		if target == nil {
			return false
		}
		ok, err := target.Matches(m.Selector)
		if err != nil {
			log.Warn(logging.EventListener, "invalid selector", "selector", m.Selector, "error", err)
			return false
		}
		return ok
	case ir.MatchClosestSelector:
		target := ev.Target()
		if target == nil {
			return false
		}
		el, err := target.Closest(m.Selector)
		if err != nil {
			log.Warn(logging.EventListener, "invalid selector", "selector", m.Selector, "error", err)
			return false
		}
		return el != nil
	case ir.MatchMouseButton:
		name := MouseButton(ev.Button())
		return name != "" && name == m.Button
	case ir.MatchKeyboardKey:
		if m.RequiresCtrl && !ev.CtrlKey() {
			return false
		}
		if m.RequiresMeta && !ev.MetaKey() {
			return false
		}
		key := strings.ToLower(m.Key)
		return key == "any" || key == strings.ToLower(ev.Code())
	default:
		log.Warn(logging.EventListener, "unknown event matcher",
			"code", ir.ErrCodeUnknownMatcherKind,
			"kind", string(m.Kind))
		return false
	}
}
