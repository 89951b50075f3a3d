package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/ir"
)

func ids(subs []ir.Subscription) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return out
}

func TestDiff(t *testing.T) {
	a1 := decodeSub(t, listenerJSON("A", `{"x":1}`, "", ""))
	a2 := decodeSub(t, listenerJSON("A", `{"x":2}`, "", ""))
	b := decodeSub(t, listenerJSON("B", `"b"`, "", ""))
	c := decodeSub(t, listenerJSON("C", `"c"`, "", ""))

	tests := []struct {
		name       string
		active     []ir.Subscription
		declared   []ir.Subscription
		wantKeep   []string
		wantRemove []string
		wantAdd    []string
	}{
		{"empty", nil, nil, []string{}, []string{}, []string{}},
		{"all new", nil, []ir.Subscription{a1, b}, []string{}, []string{}, []string{"A", "B"}},
		{"unchanged", []ir.Subscription{a1, b}, []ir.Subscription{a1, b}, []string{"A", "B"}, []string{}, []string{}},
		{"changed payload", []ir.Subscription{a1}, []ir.Subscription{a2}, []string{}, []string{"A"}, []string{"A"}},
		{"dropped", []ir.Subscription{a1, b}, []ir.Subscription{b}, []string{"B"}, []string{"A"}, []string{}},
		{"mixed", []ir.Subscription{a1, b}, []ir.Subscription{c, a1}, []string{"A"}, []string{"B"}, []string{"C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.active, tt.declared)
			assert.Equal(t, tt.wantKeep, ids(d.Keep))
			assert.Equal(t, tt.wantRemove, ids(d.Remove))
			assert.Equal(t, tt.wantAdd, ids(d.Add))
		})
	}
}

func TestDiffFreshlyDecodedIsUnchanged(t *testing.T) {
	js := listenerJSON("A", `{"items":[1,2,{"deep":true}],"name":"x"}`, `[{"type":"mouseButton","config":{"button":"main"}}]`, "")
	active := []ir.Subscription{decodeSub(t, js)}
	declared := []ir.Subscription{decodeSub(t, js)}

	d := Diff(active, declared)

	assert.True(t, d.Empty())
	assert.Len(t, d.Keep, 1)
}

func TestDiffDuplicateIDsLastWins(t *testing.T) {
	first := decodeSub(t, listenerJSON("A", `1`, "", ""))
	last := decodeSub(t, listenerJSON("A", `2`, "", ""))

	d := Diff(nil, []ir.Subscription{first, last})

	require.Len(t, d.Add, 1)
	assert.True(t, ir.Equal(last.Config, d.Add[0].Config))
	assert.Equal(t, []string{"A"}, d.Duplicates)
}
