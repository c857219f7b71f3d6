// Package testutil provides deterministic mind-map fixtures and assertion
// helpers for tests.
package testutil

import (
	"math"
	"math/rand"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// GeneratorConfig controls mind-map generation.
type GeneratorConfig struct {
	Seed      int64    // Random seed (0 = 42)
	Nodes     int      // Total node count including the root (minimum 1)
	MaxFanout int      // Cap on children per node (0 = unbounded)
	Brushes   []string // Brushes handed to root branches (nil = a fixed palette)
	Shuffle   bool     // Emit non-root records in random order instead of creation order
	Plain     bool     // Keep every node at the default scale and font
}

var (
	generatedScales = []float64{model.DefaultScale, model.DefaultScale, 1.1, 1.21, 1 / 1.1}
	generatedFonts  = []string{"", "", "bold 13px sans-serif", "13px sans-serif"}
)

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		Nodes:     30,
		MaxFanout: 4,
	}
}

var defaultBrushes = []string{"skyblue", "darkseagreen", "palevioletred", "coral"}

// GenerateRecords builds a valid record set: one root with key 0 and every
// branch on a single side. Keys are 0..Nodes-1 and parents always precede
// children unless Shuffle is set.
func GenerateRecords(cfg GeneratorConfig) []model.Record {
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))
	// Styles come from their own source so they never change the shape.
	style := rand.New(rand.NewSource(seed + 1))
	n := cfg.Nodes
	if n < 1 {
		n = 1
	}
	brushes := cfg.Brushes
	if len(brushes) == 0 {
		brushes = defaultBrushes
	}

	nodes := make([]model.Node, 0, n)
	fanout := make(map[int]int, n)
	nodes = append(nodes, model.Node{Key: model.RootKey, Parent: model.NoParent, Text: "root", Scale: model.DefaultScale})
	for key := 1; key < n; key++ {
		var parent model.Node
		for {
			parent = nodes[rng.Intn(len(nodes))]
			if cfg.MaxFanout <= 0 || fanout[parent.Key] < cfg.MaxFanout {
				break
			}
		}
		fanout[parent.Key]++
		child := model.Node{
			Key:    key,
			Parent: parent.Key,
			Text:   "node",
			Scale:  model.DefaultScale,
			Brush:  parent.Brush,
			Dir:    parent.Dir,
			Loc:    randomPoint(rng),
		}
		if !cfg.Plain {
			child.Scale = generatedScales[style.Intn(len(generatedScales))]
			child.Font = generatedFonts[style.Intn(len(generatedFonts))]
		}
		if parent.IsRoot() {
			child.Brush = brushes[rng.Intn(len(brushes))]
			child.Dir = model.DirRight
			if rng.Intn(2) == 0 {
				child.Dir = model.DirLeft
			}
		}
		nodes = append(nodes, child)
	}

	if cfg.Shuffle && len(nodes) > 2 {
		rest := nodes[1:]
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	}

	records := make([]model.Record, len(nodes))
	for i, nd := range nodes {
		records[i] = nd.ToRecord()
	}
	return records
}

// Chain returns a root with a single right-side path of depth nodes.
func Chain(depth int) []model.Record {
	records := []model.Record{{Key: model.RootKey, Text: "root", Loc: model.Point{}.String()}}
	for k := 1; k <= depth; k++ {
		records = append(records, model.Record{
			Key:       k,
			ParentKey: model.IntPtr(k - 1),
			Text:      "step",
			Dir:       string(model.DirRight),
			Loc:       model.Point{}.String(),
		})
	}
	return records
}

func randomPoint(rng *rand.Rand) model.Point {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	return model.Point{X: round(rng.Float64()*800 - 400), Y: round(rng.Float64()*600 - 300)}
}
