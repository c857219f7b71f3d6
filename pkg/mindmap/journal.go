package mindmap

import (
	"sort"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// change is one reversible tree mutation.
type change interface {
	revert(t *Tree)
	apply(t *Tree)
	collect(d *diffBuilder)
}

type addChange struct {
	e     entry
	index int
}

func (c *addChange) revert(t *Tree) { t.detach(c.e.node.Key) }
func (c *addChange) apply(t *Tree)  { t.insert(c.e, c.index) }
func (c *addChange) collect(d *diffBuilder) {
	d.added(c.e.node.Key)
}

// removeChange holds the removed subtree in preorder; index is the former
// position of its top node among its siblings.
type removeChange struct {
	entries []entry
	index   int
}

func (c *removeChange) revert(t *Tree) {
	for i, e := range c.entries {
		if i == 0 {
			t.insert(e, c.index)
			continue
		}
		t.insert(e, -1)
	}
}

func (c *removeChange) apply(t *Tree) { t.detach(c.entries[0].node.Key) }

func (c *removeChange) collect(d *diffBuilder) {
	for _, e := range c.entries {
		d.removed(e.node.Key)
	}
}

type setChange struct {
	key  int
	prop Property
	old  any
	new  any
}

func (c *setChange) revert(t *Tree) { setProperty(&t.nodes[c.key].node, c.prop, c.old) }
func (c *setChange) apply(t *Tree)  { setProperty(&t.nodes[c.key].node, c.prop, c.new) }
func (c *setChange) collect(d *diffBuilder) {
	d.changed(c.key)
}

// journal is the ordered change list of one transaction.
type journal struct {
	name    string
	changes []change
}

func (j *journal) record(c change) {
	j.changes = append(j.changes, c)
}

func (j *journal) empty() bool {
	return len(j.changes) == 0
}

// revert undoes the journal, newest change first.
func (j *journal) revert(t *Tree) {
	for i := len(j.changes) - 1; i >= 0; i-- {
		j.changes[i].revert(t)
	}
}

// replay re-applies the journal in original order.
func (j *journal) replay(t *Tree) {
	for _, c := range j.changes {
		c.apply(t)
	}
}

// Diff summarises the node keys touched by a transaction.
type Diff struct {
	Name    string
	Added   []int
	Removed []int
	Changed []int
}

// Empty reports whether the diff touches nothing.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// inverse swaps additions and removals, as seen when a journal is undone.
func (d Diff) inverse() Diff {
	return Diff{Name: d.Name, Added: d.Removed, Removed: d.Added, Changed: d.Changed}
}

func (j *journal) diff() Diff {
	b := diffBuilder{
		add: make(map[int]bool),
		rem: make(map[int]bool),
		chg: make(map[int]bool),
	}
	for _, c := range j.changes {
		c.collect(&b)
	}
	return Diff{
		Name:    j.name,
		Added:   sortedKeys(b.add),
		Removed: sortedKeys(b.rem),
		Changed: sortedKeys(b.chg),
	}
}

type diffBuilder struct {
	add, rem, chg map[int]bool
}

func (b *diffBuilder) added(k int) {
	if b.rem[k] {
		delete(b.rem, k)
		b.chg[k] = true
		return
	}
	b.add[k] = true
}

func (b *diffBuilder) removed(k int) {
	delete(b.chg, k)
	if b.add[k] {
		delete(b.add, k)
		return
	}
	b.rem[k] = true
}

func (b *diffBuilder) changed(k int) {
	if !b.add[k] {
		b.chg[k] = true
	}
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// locations returns the current location of every key that still exists.
func locations(t *Tree, keys ...[]int) map[int]model.Point {
	out := make(map[int]model.Point)
	for _, ks := range keys {
		for _, k := range ks {
			if loc, ok := t.Location(k); ok {
				out[k] = loc
			}
		}
	}
	return out
}
