package testutil

import (
	"strconv"
	"testing"

	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// AssertInvariants fails the test if nodes break any tree invariant.
func AssertInvariants(t *testing.T, nodes []model.Node) {
	t.Helper()
	if err := analysis.Validate(nodes); err != nil {
		t.Errorf("tree invariants violated: %v", err)
	}
}

// AssertNodeCount verifies the number of nodes.
func AssertNodeCount(t *testing.T, nodes []model.Node, expected int) {
	t.Helper()
	if len(nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(nodes))
	}
}

// AssertSubtreeDirection verifies that key and all of its descendants are on
// side dir.
func AssertSubtreeDirection(t *testing.T, nodes []model.Node, key int, dir model.Direction) {
	t.Helper()
	for _, k := range SubtreeKeys(nodes, key) {
		for _, n := range nodes {
			if n.Key == k && n.Dir != dir {
				t.Errorf("node %d: expected direction %s, got %s", k, dir, n.Dir)
			}
		}
	}
}

// AssertRecordsEqual compares two record sets field by field.
func AssertRecordsEqual(t *testing.T, got, want []model.Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Key != w.Key || g.Text != w.Text || g.Brush != w.Brush || g.Dir != w.Dir ||
			g.Loc != w.Loc || g.Scale != w.Scale || g.Font != w.Font || !sameParent(g.ParentKey, w.ParentKey) {
			t.Errorf("record %d: got %+v (parent %s), want %+v (parent %s)", i, g, parentString(g.ParentKey), w, parentString(w.ParentKey))
		}
	}
}

// SubtreeKeys returns key and every key below it.
func SubtreeKeys(nodes []model.Node, key int) []int {
	children := make(map[int][]int)
	for _, n := range nodes {
		if !n.IsRoot() {
			children[n.Parent] = append(children[n.Parent], n.Key)
		}
	}
	out := []int{key}
	for i := 0; i < len(out); i++ {
		out = append(out, children[out[i]]...)
	}
	return out
}

func sameParent(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func parentString(p *int) string {
	if p == nil {
		return "none"
	}
	return strconv.Itoa(*p)
}
