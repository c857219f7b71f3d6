// Package mindmap is the editor core of a bidirectional mind map: the node
// tree, its transactional undo history, branch direction propagation,
// serialization and the Editor that ties them to the layout engine.
//
// All types here are single-threaded. Every mutation of a Tree goes through
// an open transaction owned by a History.
package mindmap

import (
	"fmt"
	"iter"
	"sort"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// Property names a mutable node attribute.
type Property string

const (
	PropText  Property = "text"
	PropBrush Property = "brush"
	PropDir   Property = "dir"
	PropLoc   Property = "loc"
	PropScale Property = "scale"
	PropFont  Property = "font"
)

// entry is a stored node plus its insertion sequence, which fixes the
// serialization order across remove/undo cycles.
type entry struct {
	node model.Node
	seq  int64
}

// Tree owns the node set and the parent/child relation.
type Tree struct {
	nodes    map[int]*entry
	children map[int][]int
	nextKey  int
	nextSeq  int64

	// journal is non-nil while a transaction is open.
	journal *journal
}

// NewTree creates a tree holding only the root, at the origin.
func NewTree(rootText string) *Tree {
	t := newEmptyTree()
	t.insert(entry{node: model.Node{
		Key:    model.RootKey,
		Parent: model.NoParent,
		Text:   rootText,
		Scale:  model.DefaultScale,
	}}, -1)
	return t
}

func newEmptyTree() *Tree {
	return &Tree{
		nodes:    make(map[int]*entry),
		children: make(map[int][]int),
		nextKey:  model.RootKey + 1,
	}
}

// Root returns the root key.
func (t *Tree) Root() (int, error) {
	if _, ok := t.nodes[model.RootKey]; !ok {
		return 0, fmt.Errorf("%w: tree has no root", model.ErrInvariantViolation)
	}
	return model.RootKey, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Has reports whether key exists.
func (t *Tree) Has(key int) bool {
	_, ok := t.nodes[key]
	return ok
}

// Node returns a copy of the node stored under key.
func (t *Tree) Node(key int) (model.Node, bool) {
	e, ok := t.nodes[key]
	if !ok {
		return model.Node{}, false
	}
	return e.node, true
}

// Location implements layout.Tree.
func (t *Tree) Location(key int) (model.Point, bool) {
	e, ok := t.nodes[key]
	if !ok {
		return model.Point{}, false
	}
	return e.node.Loc, true
}

// Parent returns the parent key; false for the root or unknown keys.
func (t *Tree) Parent(key int) (int, bool) {
	e, ok := t.nodes[key]
	if !ok || e.node.IsRoot() {
		return 0, false
	}
	return e.node.Parent, true
}

// Direction returns the side of key, DirNone for the root or unknown keys.
func (t *Tree) Direction(key int) model.Direction {
	if e, ok := t.nodes[key]; ok {
		return e.node.Dir
	}
	return model.DirNone
}

// Children yields the children of key in insertion order. Each call starts
// a fresh pass over the current child list.
func (t *Tree) Children(key int) iter.Seq[int] {
	return func(yield func(int) bool) {
		kids := t.children[key]
		for _, c := range kids {
			if !yield(c) {
				return
			}
		}
	}
}

// ChildKeys returns a copy of the child list of key.
func (t *Tree) ChildKeys(key int) []int {
	kids := t.children[key]
	out := make([]int, len(kids))
	copy(out, kids)
	return out
}

// Descendants yields every node below key in depth-first preorder.
func (t *Tree) Descendants(key int) iter.Seq[int] {
	return func(yield func(int) bool) {
		var walk func(k int) bool
		walk = func(k int) bool {
			for c := range t.Children(k) {
				if !yield(c) || !walk(c) {
					return false
				}
			}
			return true
		}
		walk(key)
	}
}

// Nodes returns copies of all nodes, root first, then in insertion order.
func (t *Tree) Nodes() []model.Node {
	entries := make([]*entry, 0, len(t.nodes))
	for _, e := range t.nodes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := entries[i].node.IsRoot(), entries[j].node.IsRoot()
		if ri != rj {
			return ri
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]model.Node, len(entries))
	for i, e := range entries {
		out[i] = e.node
	}
	return out
}

// AddNode creates a child of parent and returns its fresh key. Brush and
// direction are copied from the parent unless attrs sets them; children of
// the root default to the right side. The node starts at the parent's
// location unless attrs.Loc is set.
func (t *Tree) AddNode(parent int, attrs model.Attrs) (int, error) {
	if t.journal == nil {
		return 0, &model.NodeError{Op: "add", Key: parent, Err: model.ErrTransactionState}
	}
	p, ok := t.nodes[parent]
	if !ok {
		return 0, model.UnknownNode("add", parent)
	}
	key := t.nextKey
	if _, taken := t.nodes[key]; taken {
		return 0, &model.NodeError{Op: "add", Key: key, Err: model.ErrDuplicateKey}
	}
	t.nextKey++

	n := model.Node{
		Key:    key,
		Parent: parent,
		Text:   attrs.Text,
		Scale:  attrs.Scale,
		Font:   attrs.Font,
		Brush:  attrs.Brush,
		Dir:    attrs.Dir,
		Loc:    attrs.Loc,
	}
	if n.Scale == 0 {
		n.Scale = model.DefaultScale
	}
	if n.Brush == "" {
		n.Brush = p.node.Brush
	}
	if n.Dir == model.DirNone {
		n.Dir = p.node.Dir
		if n.Dir == model.DirNone {
			n.Dir = model.DirRight
		}
	}
	if n.Loc == (model.Point{}) {
		n.Loc = p.node.Loc
	}

	e := entry{node: n}
	index := t.insert(e, -1)
	t.journal.record(&addChange{e: t.nodes[key].clone(), index: index})
	return key, nil
}

// RemoveSubtree deletes key and all of its descendants.
func (t *Tree) RemoveSubtree(key int) error {
	if t.journal == nil {
		return &model.NodeError{Op: "remove", Key: key, Err: model.ErrTransactionState}
	}
	if _, ok := t.nodes[key]; !ok {
		return model.UnknownNode("remove", key)
	}
	if key == model.RootKey {
		return &model.NodeError{Op: "remove", Key: key, Err: fmt.Errorf("%w: the root cannot be removed", model.ErrInvariantViolation)}
	}
	entries, index := t.detach(key)
	t.journal.record(&removeChange{entries: entries, index: index})
	return nil
}

// SetProperty changes one attribute of key. Setting the current value is a
// no-op and records nothing.
func (t *Tree) SetProperty(key int, prop Property, value any) error {
	if t.journal == nil {
		return &model.NodeError{Op: "set " + string(prop), Key: key, Err: model.ErrTransactionState}
	}
	e, ok := t.nodes[key]
	if !ok {
		return model.UnknownNode("set "+string(prop), key)
	}
	if err := checkProperty(e.node, prop, value); err != nil {
		return &model.NodeError{Op: "set " + string(prop), Key: key, Err: err}
	}
	old := getProperty(e.node, prop)
	if old == value {
		return nil
	}
	setProperty(&e.node, prop, value)
	t.journal.record(&setChange{key: key, prop: prop, old: old, new: value})
	return nil
}

// SetLocation is SetProperty(key, PropLoc, p).
func (t *Tree) SetLocation(key int, p model.Point) error {
	return t.SetProperty(key, PropLoc, p)
}

// insert stores e under its parent at index (-1 appends) and returns the
// index used. Sequence numbers are assigned on first insertion only.
func (t *Tree) insert(e entry, index int) int {
	if e.seq == 0 && !e.node.IsRoot() {
		t.nextSeq++
		e.seq = t.nextSeq
	}
	stored := e
	t.nodes[e.node.Key] = &stored
	if e.node.Key >= t.nextKey {
		t.nextKey = e.node.Key + 1
	}
	if e.node.IsRoot() {
		return 0
	}
	kids := t.children[e.node.Parent]
	if index < 0 || index > len(kids) {
		index = len(kids)
	}
	kids = append(kids, 0)
	copy(kids[index+1:], kids[index:])
	kids[index] = e.node.Key
	t.children[e.node.Parent] = kids
	return index
}

// detach removes key's subtree and returns its entries in preorder together
// with key's former index among its siblings.
func (t *Tree) detach(key int) ([]entry, int) {
	var entries []entry
	entries = append(entries, t.nodes[key].clone())
	for d := range t.Descendants(key) {
		entries = append(entries, t.nodes[d].clone())
	}

	parent := t.nodes[key].node.Parent
	kids := t.children[parent]
	index := -1
	for i, c := range kids {
		if c == key {
			index = i
			break
		}
	}
	if index >= 0 {
		t.children[parent] = append(kids[:index:index], kids[index+1:]...)
	}
	for _, e := range entries {
		delete(t.nodes, e.node.Key)
		delete(t.children, e.node.Key)
	}
	return entries, index
}

func (e *entry) clone() entry {
	return *e
}

func checkProperty(n model.Node, prop Property, value any) error {
	switch prop {
	case PropText, PropBrush, PropFont:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s wants a string, got %T", prop, value)
		}
	case PropScale:
		v, ok := value.(float64)
		if !ok {
			return fmt.Errorf("scale wants a float64, got %T", value)
		}
		if v <= 0 {
			return fmt.Errorf("scale must be positive, got %g", v)
		}
	case PropLoc:
		if _, ok := value.(model.Point); !ok {
			return fmt.Errorf("loc wants a model.Point, got %T", value)
		}
	case PropDir:
		d, ok := value.(model.Direction)
		if !ok {
			return fmt.Errorf("dir wants a model.Direction, got %T", value)
		}
		if n.IsRoot() {
			return fmt.Errorf("%w: the root has no direction", model.ErrInvariantViolation)
		}
		if !d.IsValid() {
			return fmt.Errorf("invalid direction %q", d)
		}
	default:
		return fmt.Errorf("unknown property %q", prop)
	}
	return nil
}

func getProperty(n model.Node, prop Property) any {
	switch prop {
	case PropText:
		return n.Text
	case PropBrush:
		return n.Brush
	case PropFont:
		return n.Font
	case PropScale:
		return n.Scale
	case PropLoc:
		return n.Loc
	case PropDir:
		return n.Dir
	}
	return nil
}

func setProperty(n *model.Node, prop Property, value any) {
	switch prop {
	case PropText:
		n.Text = value.(string)
	case PropBrush:
		n.Brush = value.(string)
	case PropFont:
		n.Font = value.(string)
	case PropScale:
		n.Scale = value.(float64)
	case PropLoc:
		n.Loc = value.(model.Point)
	case PropDir:
		n.Dir = value.(model.Direction)
	}
}
