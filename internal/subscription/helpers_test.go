package subscription

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
)

func decodeSub(t *testing.T, js string) ir.Subscription {
	t.Helper()
	v, err := ir.UnmarshalIRValue([]byte(js))
	require.NoError(t, err)
	sub, err := ir.DecodeSubscription(v)
	require.NoError(t, err)
	return sub
}

// listenerJSON declares a document click listener emitting msg.
func listenerJSON(id, msg, matchers, propagation string) string {
	if matchers == "" {
		matchers = "[]"
	}
	if propagation == "" {
		propagation = `{"stopPropagation":false,"preventDefault":false}`
	}
	return fmt.Sprintf(`{"type":"eventListener","config":{"id":%q,"listenTarget":"document","eventType":"click",
		"matchers":%s,"msg":{"type":"pure","config":%s},"propagation":%s}}`, id, matchers, msg, propagation)
}

func intervalJSON(id string, duration int, msg string) string {
	return fmt.Sprintf(`{"type":"interval","config":{"id":%q,"duration":%d,"msg":{"type":"pure","config":%s}}}`,
		id, duration, msg)
}

// call is one Start or Stop seen by fakeManager.
type call struct {
	op string
	id string
}

type fakeManager struct {
	calls   []call
	failIDs map[string]bool
}

func (f *fakeManager) Start(sub ir.Subscription) error {
	if f.failIDs[sub.ID] {
		return fmt.Errorf("refused %s", sub.ID)
	}
	f.calls = append(f.calls, call{"start", sub.ID})
	return nil
}

func (f *fakeManager) Stop(id string) {
	f.calls = append(f.calls, call{"stop", id})
}

func (f *fakeManager) reset() { f.calls = nil }
