package mindmap

import (
	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// Serialize converts the tree into records, root first, then in insertion
// order.
func Serialize(t *Tree) []model.Record {
	nodes := t.Nodes()
	records := make([]model.Record, len(nodes))
	for i, n := range nodes {
		records[i] = n.ToRecord()
	}
	return records
}

// Deserialize builds a tree from records. Sibling order follows record
// order. Serialize returns canonical records, so a round trip reproduces
// its input when the input is canonical. The record set must describe exactly one root (key 0), no duplicate
// keys and no cycles; otherwise the error wraps model.ErrInvariantViolation.
func Deserialize(records []model.Record) (*Tree, error) {
	nodes, err := analysis.ValidateRecords(records)
	if err != nil {
		return nil, err
	}
	t := newEmptyTree()
	for _, n := range nodes {
		t.insert(entry{node: n}, -1)
	}
	return t, nil
}

// SubtreeRecords serializes key and its descendants in preorder.
func SubtreeRecords(t *Tree, key int) ([]model.Record, error) {
	n, ok := t.Node(key)
	if !ok {
		return nil, model.UnknownNode("copy", key)
	}
	records := []model.Record{n.ToRecord()}
	for d := range t.Descendants(key) {
		dn, _ := t.Node(d)
		records = append(records, dn.ToRecord())
	}
	return records, nil
}

// SampleRecords returns the built-in demonstration map.
func SampleRecords() []model.Record {
	type row struct {
		key, parent int
		text, brush string
		dir         model.Direction
		loc         model.Point
	}
	rows := []row{
		{0, -1, "Mind Map", "", model.DirNone, model.Point{X: 0, Y: 0}},
		{1, 0, "Getting more time", "skyblue", model.DirRight, model.Point{X: 77, Y: -22}},
		{11, 1, "Wake up early", "skyblue", model.DirRight, model.Point{X: 200, Y: -48}},
		{12, 1, "Delegate", "skyblue", model.DirRight, model.Point{X: 200, Y: -22}},
		{13, 1, "Simplify", "skyblue", model.DirRight, model.Point{X: 200, Y: 4}},
		{2, 0, "More effective use", "darkseagreen", model.DirRight, model.Point{X: 77, Y: 43}},
		{21, 2, "Planning", "darkseagreen", model.DirRight, model.Point{X: 203, Y: 30}},
		{211, 21, "Priorities", "darkseagreen", model.DirRight, model.Point{X: 274, Y: 17}},
		{212, 21, "Ways to focus", "darkseagreen", model.DirRight, model.Point{X: 274, Y: 43}},
		{22, 2, "Goals", "darkseagreen", model.DirRight, model.Point{X: 203, Y: 56}},
		{3, 0, "Time wasting", "palevioletred", model.DirLeft, model.Point{X: -20, Y: -31.75}},
		{31, 3, "Too many meetings", "palevioletred", model.DirLeft, model.Point{X: -117, Y: -64.25}},
		{32, 3, "Too much time spent on details", "palevioletred", model.DirLeft, model.Point{X: -117, Y: -25.25}},
		{33, 3, "Message fatigue", "palevioletred", model.DirLeft, model.Point{X: -117, Y: 0.75}},
		{331, 31, "Check messages less", "palevioletred", model.DirLeft, model.Point{X: -251, Y: -77.25}},
		{332, 31, "Message filters", "palevioletred", model.DirLeft, model.Point{X: -251, Y: -51.25}},
		{4, 0, "Key issues", "coral", model.DirLeft, model.Point{X: -20, Y: 52.75}},
		{41, 4, "Methods", "coral", model.DirLeft, model.Point{X: -103, Y: 26.75}},
		{42, 4, "Deadlines", "coral", model.DirLeft, model.Point{X: -103, Y: 52.75}},
		{43, 4, "Checkpoints", "coral", model.DirLeft, model.Point{X: -103, Y: 78.75}},
	}
	records := make([]model.Record, len(rows))
	for i, r := range rows {
		rec := model.Record{
			Key:   r.key,
			Text:  r.text,
			Brush: r.brush,
			Dir:   string(r.dir),
			Loc:   r.loc.String(),
		}
		if r.parent >= 0 {
			rec.ParentKey = model.IntPtr(r.parent)
		}
		records[i] = rec
	}
	return records
}
