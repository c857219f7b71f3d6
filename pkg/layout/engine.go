// Package layout places mind-map nodes with an oriented layered-tree
// arrangement.
//
// The primitive, Engine.Place, keeps the anchor node where it is and lays its
// descendants outward along an angle: each generation sits LayerSpacing
// further out, and siblings share the perpendicular axis in proportion to
// their leaf counts (NodeSpacing per leaf), centred on their parent. Local
// (Mode A) relays one subtree; Whole (Mode B) runs the primitive twice from
// the shared root, once per side.
package layout

import (
	"iter"
	"math"

	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// Tree is the read-only view of the model needed for layout.
type Tree interface {
	Children(key int) iter.Seq[int]
	Location(key int) (model.Point, bool)
	Parent(key int) (int, bool)
	Direction(key int) model.Direction
}

// Config controls placement.
type Config struct {
	// Angle is the growth direction of right-side branches in degrees: 0
	// grows rightward, 90 downward. Left-side branches grow the opposite way.
	Angle float64 `yaml:"angle,omitempty"`

	// NodeSpacing is the perpendicular room given to each leaf.
	NodeSpacing float64 `yaml:"node_spacing"`

	// LayerSpacing is the distance between successive generations.
	LayerSpacing float64 `yaml:"layer_spacing"`

	// FixedAnchor keeps the anchor of a local relayout where it is. When
	// false the anchor is first pulled back to one layer out from its parent
	// along the branch axis, keeping its perpendicular offset. The root is
	// always fixed.
	FixedAnchor bool `yaml:"fixed_anchor"`
}

// DefaultConfig returns the spacing used by the editor.
func DefaultConfig() Config {
	return Config{
		NodeSpacing:  26,
		LayerSpacing: 120,
		FixedAnchor:  true,
	}
}

// Placement maps node keys to their computed locations. The anchor of a pass
// is never present unless it was moved (FixedAnchor false).
type Placement map[int]model.Point

// Merge copies q into p.
func (p Placement) Merge(q Placement) {
	for k, v := range q {
		p[k] = v
	}
}

// Engine computes placements. It never writes to the tree; callers apply the
// placement inside their own transaction.
type Engine struct {
	cfg Config
}

// New creates an engine. Non-positive spacings fall back to the defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.NodeSpacing <= 0 {
		cfg.NodeSpacing = def.NodeSpacing
	}
	if cfg.LayerSpacing <= 0 {
		cfg.LayerSpacing = def.LayerSpacing
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Place lays out the descendants of anchor along angle. include, when non-nil,
// selects which direct children of the anchor take part; their whole subtrees
// follow. The anchor's own location is read, never written.
func (e *Engine) Place(t Tree, anchor int, angle float64, include func(child int) bool) (Placement, error) {
	origin, ok := t.Location(anchor)
	if !ok {
		return nil, model.UnknownNode("layout", anchor)
	}
	return e.placeFrom(t, anchor, origin, angle, include), nil
}

func (e *Engine) placeFrom(t Tree, anchor int, origin model.Point, angle float64, include func(int) bool) Placement {
	defer metrics.Timer(metrics.LayoutPass)()

	axis, perp := axes(angle)
	leaves := make(map[int]int)
	var roots []int
	total := 0
	for c := range t.Children(anchor) {
		if include != nil && !include(c) {
			continue
		}
		roots = append(roots, c)
		total += countLeaves(t, c, leaves)
	}

	out := make(Placement)
	p := placer{t: t, cfg: e.cfg, axis: axis, perp: perp, origin: origin, leaves: leaves, out: out}
	p.placeChildren(roots, total, 0, 0)
	debug.Log("layout: anchor %d angle %.0f placed %d nodes", anchor, angle, len(out))
	return out
}

// Local relays the subtree rooted at key (Mode A). The angle follows the
// side of the branch. Relaying the root delegates to Whole.
func (e *Engine) Local(t Tree, key int) (Placement, error) {
	if key == model.RootKey {
		return e.Whole(t)
	}
	loc, ok := t.Location(key)
	if !ok {
		return nil, model.UnknownNode("layout", key)
	}
	angle := e.sideAngle(t.Direction(key))
	out := make(Placement)
	if !e.cfg.FixedAnchor {
		if parent, ok := t.Parent(key); ok {
			if ploc, ok := t.Location(parent); ok {
				axis, perp := axes(angle)
				offset := dot(loc.Add(ploc.Scale(-1)), perp)
				loc = ploc.Add(axis.Scale(e.cfg.LayerSpacing)).Add(perp.Scale(offset))
				out[key] = loc
			}
		}
	}
	out.Merge(e.placeFrom(t, key, loc, angle, nil))
	return out, nil
}

// Whole relays the entire tree (Mode B): the root's right-side branches
// along Angle, then its left-side branches the opposite way. The root is the
// fixed anchor of both passes, so its location does not depend on pass order.
func (e *Engine) Whole(t Tree) (Placement, error) {
	defer debug.LogEnterExit("layout.Whole")()

	right, err := e.Place(t, model.RootKey, e.sideAngle(model.DirRight), func(c int) bool {
		return t.Direction(c) != model.DirLeft
	})
	if err != nil {
		return nil, err
	}
	left, err := e.Place(t, model.RootKey, e.sideAngle(model.DirLeft), func(c int) bool {
		return t.Direction(c) == model.DirLeft
	})
	if err != nil {
		return nil, err
	}
	right.Merge(left)
	return right, nil
}

func (e *Engine) sideAngle(d model.Direction) float64 {
	return e.cfg.Angle + d.Angle()
}

// Side reports which side of origin loc lies on, measured along the
// right-side axis. A point level with origin has no side.
func (e *Engine) Side(origin, loc model.Point) model.Direction {
	axis, _ := axes(e.sideAngle(model.DirRight))
	switch d := dot(loc.Add(origin.Scale(-1)), axis); {
	case d > 0:
		return model.DirRight
	case d < 0:
		return model.DirLeft
	}
	return model.DirNone
}

// Mirror reflects loc to the other side of origin along the right-side
// axis, keeping its perpendicular offset.
func (e *Engine) Mirror(origin, loc model.Point) model.Point {
	axis, _ := axes(e.sideAngle(model.DirRight))
	d := dot(loc.Add(origin.Scale(-1)), axis)
	return loc.Add(axis.Scale(-2 * d))
}

type placer struct {
	t      Tree
	cfg    Config
	axis   model.Point
	perp   model.Point
	origin model.Point
	leaves map[int]int
	out    Placement
}

// placeChildren spreads kids over span leaves centred on center, at depth+1.
func (p *placer) placeChildren(kids []int, span, depth int, center float64) {
	start := center - float64(span)*p.cfg.NodeSpacing/2
	for _, c := range kids {
		width := float64(p.leaves[c]) * p.cfg.NodeSpacing
		mid := start + width/2
		start += width

		along := float64(depth+1) * p.cfg.LayerSpacing
		p.out[c] = p.origin.Add(p.axis.Scale(along)).Add(p.perp.Scale(mid))

		var grand []int
		for g := range p.t.Children(c) {
			grand = append(grand, g)
		}
		if len(grand) > 0 {
			p.placeChildren(grand, p.leaves[c], depth+1, mid)
		}
	}
}

// countLeaves fills memo with the leaf count of every node under key.
func countLeaves(t Tree, key int, memo map[int]int) int {
	n := 0
	for c := range t.Children(key) {
		n += countLeaves(t, c, memo)
	}
	if n == 0 {
		n = 1
	}
	memo[key] = n
	return n
}

// axes returns the unit growth vector for angle and the perpendicular along
// which siblings are stacked. Sibling order runs top to bottom on both sides.
func axes(angle float64) (axis, perp model.Point) {
	rad := angle * math.Pi / 180
	cos, sin := snap(math.Cos(rad)), snap(math.Sin(rad))
	axis = model.Point{X: cos, Y: sin}
	perp = model.Point{X: -sin, Y: cos}
	if cos < 0 {
		perp = perp.Scale(-1)
	}
	perp = model.Point{X: snap(perp.X), Y: snap(perp.Y)}
	return axis, perp
}

func snap(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}

func dot(a, b model.Point) float64 {
	return a.X*b.X + a.Y*b.Y
}
