package mindmap

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/mindwork/pkg/model"
	"github.com/vanderheijden86/mindwork/pkg/testutil"
)

func TestSetDirection_PropagatesToSubtreeOnly(t *testing.T) {
	tree, h := sampleTree(t)
	before := make(map[int]model.Direction)
	for _, n := range tree.Nodes() {
		before[n.Key] = n.Dir
	}

	_ = h.Begin("flip")
	changed, err := SetDirection(tree, 3, model.DirRight)
	if err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	if changed != 6 {
		t.Errorf("expected 6 changed nodes, got %d", changed)
	}
	if _, err := h.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	nodes := tree.Nodes()
	testutil.AssertSubtreeDirection(t, nodes, 3, model.DirRight)
	inside := make(map[int]bool)
	for _, k := range testutil.SubtreeKeys(nodes, 3) {
		inside[k] = true
	}
	for _, n := range nodes {
		if !inside[n.Key] && n.Dir != before[n.Key] {
			t.Errorf("node %d outside the subtree changed from %s to %s", n.Key, before[n.Key], n.Dir)
		}
	}
}

func TestSetDirection_SameSideChangesNothing(t *testing.T) {
	tree, h := sampleTree(t)
	_ = h.Begin("noop")
	changed, err := SetDirection(tree, 1, model.DirRight)
	if err != nil || changed != 0 {
		t.Fatalf("expected no change, got %d, %v", changed, err)
	}
	d, _ := h.Commit()
	if !d.Empty() {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestSetDirection_Errors(t *testing.T) {
	tree, h := sampleTree(t)

	if _, err := SetDirection(tree, 1, model.DirLeft); !errors.Is(err, model.ErrTransactionState) {
		t.Errorf("outside a transaction: expected ErrTransactionState, got %v", err)
	}

	_ = h.Begin("bad")
	defer h.Abort()

	tests := []struct {
		name string
		key  int
		dir  model.Direction
		want error
	}{
		{"root", model.RootKey, model.DirLeft, model.ErrInvariantViolation},
		{"unknown", 777, model.DirLeft, model.ErrUnknownNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SetDirection(tree, tt.key, tt.dir); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if _, err := SetDirection(tree, 1, model.DirNone); err == nil {
		t.Error("expected an error for an empty direction")
	}
}

func TestSetDirection_DeepNodeFailsCommit(t *testing.T) {
	tree, h := sampleTree(t)
	_ = h.Begin("deep flip")
	if _, err := SetDirection(tree, 21, model.DirLeft); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Commit(); !errors.Is(err, model.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	for _, k := range []int{21, 211, 212} {
		if d := tree.Direction(k); d != model.DirRight {
			t.Errorf("node %d: expected rollback to right, got %s", k, d)
		}
	}
}

func TestBranchOf(t *testing.T) {
	tree, _ := sampleTree(t)
	tests := []struct {
		key, want int
	}{
		{1, 1},
		{13, 1},
		{212, 2},
		{332, 3},
	}
	for _, tt := range tests {
		got, err := BranchOf(tree, tt.key)
		if err != nil || got != tt.want {
			t.Errorf("BranchOf(%d) = %d, %v; want %d", tt.key, got, err, tt.want)
		}
	}
	if _, err := BranchOf(tree, model.RootKey); !errors.Is(err, model.ErrInvariantViolation) {
		t.Errorf("root: expected ErrInvariantViolation, got %v", err)
	}
	if _, err := BranchOf(tree, 5); !errors.Is(err, model.ErrUnknownNode) {
		t.Errorf("unknown: expected ErrUnknownNode, got %v", err)
	}
}
