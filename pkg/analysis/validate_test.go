package analysis_test

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/model"
	"github.com/vanderheijden86/mindwork/pkg/testutil"
)

func node(key, parent int, dir model.Direction) model.Node {
	return model.Node{Key: key, Parent: parent, Dir: dir, Scale: 1}
}

func root() model.Node {
	return model.Node{Key: model.RootKey, Parent: model.NoParent, Scale: 1}
}

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		nodes []model.Node
	}{
		{"root only", []model.Node{root()}},
		{"two sides", []model.Node{root(), node(1, 0, model.DirLeft), node(2, 0, model.DirRight), node(3, 1, model.DirLeft)}},
		{"child listed before parent", []model.Node{node(2, 1, model.DirRight), root(), node(1, 0, model.DirRight)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := analysis.Validate(tt.nodes); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		nodes []model.Node
		kind  error
	}{
		{"no root", []model.Node{node(1, 2, model.DirLeft)}, nil},
		{"duplicate", []model.Node{root(), node(1, 0, model.DirLeft), node(1, 0, model.DirLeft)}, model.ErrDuplicateKey},
		{"self parent", []model.Node{root(), node(1, 1, model.DirLeft)}, model.ErrCyclicParent},
		{"missing parent", []model.Node{root(), node(1, 5, model.DirLeft)}, model.ErrUnknownNode},
		{"cycle", []model.Node{root(), node(1, 3, model.DirLeft), node(2, 1, model.DirLeft), node(3, 2, model.DirLeft)}, model.ErrCyclicParent},
		{"no side", []model.Node{root(), node(1, 0, model.DirNone)}, nil},
		{"mixed branch", []model.Node{root(), node(1, 0, model.DirLeft), node(2, 1, model.DirRight)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := analysis.Validate(tt.nodes)
			if !errors.Is(err, model.ErrInvariantViolation) {
				t.Fatalf("expected ErrInvariantViolation, got %v", err)
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestValidateRecords_Generated(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 99} {
		cfg := testutil.DefaultConfig()
		cfg.Seed = seed
		cfg.Shuffle = seed%2 == 0
		records := testutil.GenerateRecords(cfg)
		nodes, err := analysis.ValidateRecords(records)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		testutil.AssertNodeCount(t, nodes, cfg.Nodes)
	}
}

func TestValidateRecords_RootRules(t *testing.T) {
	tests := []struct {
		name    string
		records []model.Record
	}{
		{"empty", nil},
		{"root has a parent", []model.Record{{Key: 0, ParentKey: model.IntPtr(1), Loc: "0 0"}, {Key: 1, Loc: "0 0"}}},
		{"two parentless", []model.Record{{Key: 0, Loc: "0 0"}, {Key: 4, Loc: "0 0"}}},
		{"bad direction", []model.Record{{Key: 0, Loc: "0 0"}, {Key: 1, ParentKey: model.IntPtr(0), Dir: "up", Loc: "0 0"}}},
		{"root has a side", []model.Record{{Key: 0, Dir: "left", Loc: "0 0"}}},
		{"missing location", []model.Record{{Key: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := analysis.ValidateRecords(tt.records); !errors.Is(err, model.ErrInvariantViolation) {
				t.Errorf("expected ErrInvariantViolation, got %v", err)
			}
		})
	}
}
