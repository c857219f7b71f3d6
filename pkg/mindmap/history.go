package mindmap

import (
	"fmt"

	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// EventKind says how a history entry reached the tree.
type EventKind string

const (
	EventCommit EventKind = "commit"
	EventUndo   EventKind = "undo"
	EventRedo   EventKind = "redo"
)

// Event is delivered to commit listeners after every successful commit,
// undo and redo. Locations holds the new location of each added or changed
// node.
type Event struct {
	Kind      EventKind
	Diff      Diff
	Locations map[int]model.Point
}

// History is the transaction manager of a Tree: it opens and closes
// transactions, validates the tree at commit and keeps the undo/redo stacks.
// At most one transaction is open at a time.
type History struct {
	tree      *Tree
	undo      []*journal
	redo      []*journal
	limit     int
	modified  bool
	validate  func([]model.Node) error
	listeners []func(Event)
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithUndoLimit bounds the undo stack; the oldest entries are dropped.
// Zero means unbounded.
func WithUndoLimit(n int) HistoryOption {
	return func(h *History) {
		h.limit = n
	}
}

// WithValidator replaces the commit-time invariant check.
func WithValidator(fn func([]model.Node) error) HistoryOption {
	return func(h *History) {
		h.validate = fn
	}
}

// NewHistory creates the transaction manager for t.
func NewHistory(t *Tree, opts ...HistoryOption) *History {
	h := &History{
		tree:     t,
		validate: analysis.Validate,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Tree returns the managed tree.
func (h *History) Tree() *Tree {
	return h.tree
}

// OnCommit registers a listener for commit, undo and redo events.
func (h *History) OnCommit(fn func(Event)) {
	h.listeners = append(h.listeners, fn)
}

// InTransaction reports whether a transaction is open.
func (h *History) InTransaction() bool {
	return h.tree.journal != nil
}

// Begin opens a named transaction.
func (h *History) Begin(name string) error {
	if h.tree.journal != nil {
		return fmt.Errorf("begin %q: transaction %q already open: %w", name, h.tree.journal.name, model.ErrTransactionState)
	}
	h.tree.journal = &journal{name: name}
	debug.Log("tx begin %q", name)
	return nil
}

// Commit validates the tree and closes the open transaction. On an
// invariant violation every pending mutation is rolled back and the error
// wraps model.ErrInvariantViolation. A transaction without mutations commits
// without touching the history stacks.
func (h *History) Commit() (Diff, error) {
	defer metrics.Timer(metrics.Commit)()

	j := h.tree.journal
	if j == nil {
		return Diff{}, fmt.Errorf("commit: no open transaction: %w", model.ErrTransactionState)
	}
	h.tree.journal = nil
	if j.empty() {
		debug.Log("tx commit %q: no changes", j.name)
		return Diff{Name: j.name}, nil
	}

	if err := h.validate(h.tree.Nodes()); err != nil {
		j.revert(h.tree)
		debug.Log("tx commit %q rolled back: %v", j.name, err)
		return Diff{}, fmt.Errorf("commit %q: %w", j.name, err)
	}

	h.undo = append(h.undo, j)
	if h.limit > 0 && len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	h.modified = true

	d := j.diff()
	debug.Log("tx commit %q: +%d -%d ~%d", j.name, len(d.Added), len(d.Removed), len(d.Changed))
	h.notify(EventCommit, d)
	return d, nil
}

// Abort discards the open transaction without touching the history stacks.
func (h *History) Abort() error {
	j := h.tree.journal
	if j == nil {
		return fmt.Errorf("abort: no open transaction: %w", model.ErrTransactionState)
	}
	h.tree.journal = nil
	j.revert(h.tree)
	debug.Log("tx abort %q: %d changes discarded", j.name, len(j.changes))
	return nil
}

// Undo reverts the most recent committed transaction and moves it onto the
// redo stack.
func (h *History) Undo() (Diff, error) {
	if h.tree.journal != nil {
		return Diff{}, fmt.Errorf("undo: transaction %q open: %w", h.tree.journal.name, model.ErrTransactionState)
	}
	if len(h.undo) == 0 {
		return Diff{}, fmt.Errorf("undo: nothing to undo: %w", model.ErrTransactionState)
	}
	j := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	j.revert(h.tree)
	h.redo = append(h.redo, j)
	h.modified = true

	d := j.diff().inverse()
	debug.Log("undo %q", j.name)
	h.notify(EventUndo, d)
	return d, nil
}

// Redo re-applies the most recently undone transaction.
func (h *History) Redo() (Diff, error) {
	if h.tree.journal != nil {
		return Diff{}, fmt.Errorf("redo: transaction %q open: %w", h.tree.journal.name, model.ErrTransactionState)
	}
	if len(h.redo) == 0 {
		return Diff{}, fmt.Errorf("redo: nothing to redo: %w", model.ErrTransactionState)
	}
	j := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	j.replay(h.tree)
	h.undo = append(h.undo, j)
	h.modified = true

	d := j.diff()
	debug.Log("redo %q", j.name)
	h.notify(EventRedo, d)
	return d, nil
}

// CanUndo reports whether Undo has an entry to revert.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo has an entry to re-apply.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of undoable transactions.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redoable transactions.
func (h *History) RedoDepth() int { return len(h.redo) }

// UndoNames lists the undo stack names, oldest first.
func (h *History) UndoNames() []string {
	names := make([]string, len(h.undo))
	for i, j := range h.undo {
		names[i] = j.name
	}
	return names
}

// Modified reports whether the tree changed since the last MarkSaved.
func (h *History) Modified() bool {
	return h.modified
}

// MarkSaved clears the modified flag after a successful save.
func (h *History) MarkSaved() {
	h.modified = false
}

func (h *History) notify(kind EventKind, d Diff) {
	if len(h.listeners) == 0 {
		return
	}
	ev := Event{Kind: kind, Diff: d, Locations: locations(h.tree, d.Added, d.Changed)}
	for _, fn := range h.listeners {
		fn(ev)
	}
}
