package analysis_test

import (
	"testing"

	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/model"
	"github.com/vanderheijden86/mindwork/pkg/testutil"
)

func TestComputeStats_Sample(t *testing.T) {
	nodes, err := analysis.ValidateRecords(mindmap.SampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	got := analysis.ComputeStats(nodes)
	want := analysis.Stats{
		Nodes:         20,
		Depth:         3,
		Leaves:        13,
		LeftBranches:  2,
		RightBranches: 2,
		LeftNodes:     10,
		RightNodes:    9,
		MaxFanout:     4,
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestComputeStats_Chain(t *testing.T) {
	nodes, err := analysis.ValidateRecords(testutil.Chain(5))
	if err != nil {
		t.Fatal(err)
	}
	s := analysis.ComputeStats(nodes)
	if s.Depth != 5 || s.Leaves != 1 || s.MaxFanout != 1 || s.RightNodes != 5 {
		t.Errorf("unexpected chain stats %+v", s)
	}
}

func TestComputeStats_NoRoot(t *testing.T) {
	s := analysis.ComputeStats([]model.Node{{Key: 4, Parent: 2}})
	if s != (analysis.Stats{}) {
		t.Errorf("expected zero stats, got %+v", s)
	}
}
