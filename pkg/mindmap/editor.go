package mindmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/layout"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// DefaultFont is assumed for nodes that have no font of their own.
const DefaultFont = "13px sans-serif"

// TextScaleStep is the factor applied by one bigger/smaller step.
const TextScaleStep = 1.1

// Options configure an Editor.
type Options struct {
	Layout      layout.Config
	DefaultText string
	RootText    string
	UndoLimit   int
}

// DefaultOptions returns the editor defaults.
func DefaultOptions() Options {
	return Options{
		Layout:      layout.DefaultConfig(),
		DefaultText: "idea",
		RootText:    "Mind Map",
	}
}

// Editor is one editing session: it owns the tree, its history and the
// layout engine, and exposes the edit commands of the interaction surface.
// Each command runs as a single transaction.
type Editor struct {
	opts    Options
	tree    *Tree
	history *History
	engine  *layout.Engine

	commitListeners []func(Event)
	flipListeners   []func(key int, dir model.Direction)
}

// NewEditor starts a session with a root-only tree.
func NewEditor(opts Options) *Editor {
	e := &Editor{
		opts:   opts,
		engine: layout.New(opts.Layout),
	}
	e.reset(NewTree(opts.RootText))
	return e
}

// NewEditorFromRecords starts a session from serialized records.
func NewEditorFromRecords(records []model.Record, opts Options) (*Editor, error) {
	e := NewEditor(opts)
	if err := e.Load(records); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Editor) reset(t *Tree) {
	e.tree = t
	e.history = NewHistory(t, WithUndoLimit(e.opts.UndoLimit))
	e.history.OnCommit(func(ev Event) {
		for _, fn := range e.commitListeners {
			fn(ev)
		}
	})
}

// Tree returns the session's tree for reading.
func (e *Editor) Tree() *Tree { return e.tree }

// History returns the session's transaction manager.
func (e *Editor) History() *History { return e.history }

// Engine returns the layout engine.
func (e *Editor) Engine() *layout.Engine { return e.engine }

// OnCommit registers a listener for commit, undo and redo events.
func (e *Editor) OnCommit(fn func(Event)) {
	e.commitListeners = append(e.commitListeners, fn)
}

// OnDirectionFlip registers a listener called after a committed edit moved
// a branch to the other side.
func (e *Editor) OnDirectionFlip(fn func(key int, dir model.Direction)) {
	e.flipListeners = append(e.flipListeners, fn)
}

// Modified reports unsaved changes.
func (e *Editor) Modified() bool { return e.history.Modified() }

// MarkSaved clears the modified flag.
func (e *Editor) MarkSaved() { e.history.MarkSaved() }

// Records serializes the tree.
func (e *Editor) Records() []model.Record {
	return Serialize(e.tree)
}

// Load replaces the tree with records, clearing history and the modified
// flag. The current tree is kept when records are invalid.
func (e *Editor) Load(records []model.Record) error {
	if e.history != nil && e.history.InTransaction() {
		return fmt.Errorf("load: %w", model.ErrTransactionState)
	}
	t, err := Deserialize(records)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	e.reset(t)
	debug.Log("editor: loaded %d nodes", t.Len())
	return nil
}

// atomic runs fn inside a named transaction, aborting on error.
func (e *Editor) atomic(name string, fn func() error) (Diff, error) {
	if err := e.history.Begin(name); err != nil {
		return Diff{}, err
	}
	if err := fn(); err != nil {
		if abortErr := e.history.Abort(); abortErr != nil {
			return Diff{}, errors.Join(err, abortErr)
		}
		return Diff{}, err
	}
	return e.history.Commit()
}

// relayout runs Mode A from anchor, or Mode B when anchor is the root, and
// writes the placement into the open transaction.
func (e *Editor) relayout(anchor int) error {
	placement, err := e.engine.Local(e.tree, anchor)
	if err != nil {
		return err
	}
	keys := make([]int, 0, len(placement))
	for k := range placement {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if err := e.tree.SetLocation(k, placement[k]); err != nil {
			return err
		}
	}
	return nil
}

// AddChild creates a child of parent inheriting its brush and side, relays
// the parent's subtree (the whole tree when parent is the root) and returns
// the new key and its final location.
func (e *Editor) AddChild(parent int, text string) (int, model.Point, error) {
	if text == "" {
		text = e.opts.DefaultText
	}
	var key int
	_, err := e.atomic("Add Node", func() error {
		var err error
		key, err = e.tree.AddNode(parent, model.Attrs{Text: text})
		if err != nil {
			return err
		}
		return e.relayout(parent)
	})
	if err != nil {
		return 0, model.Point{}, err
	}
	loc, _ := e.tree.Location(key)
	return key, loc, nil
}

// RemoveSubtree deletes key and its descendants.
func (e *Editor) RemoveSubtree(key int) error {
	_, err := e.atomic("Delete", func() error {
		return e.tree.RemoveSubtree(key)
	})
	return err
}

// Move handles the end of a drag of key to loc. A branch attached to the
// root that ends up on the other side of the root (the root's x coordinate
// with the default angle) takes that side, along with all of its descendants; the moved subtree is then relaid
// from its new position.
func (e *Editor) Move(key int, loc model.Point) error {
	var flipped model.Direction
	_, err := e.atomic("Move", func() error {
		if err := e.tree.SetLocation(key, loc); err != nil {
			return err
		}
		if parent, ok := e.tree.Parent(key); ok && parent == model.RootKey {
			rootLoc, _ := e.tree.Location(model.RootKey)
			want := e.engine.Side(rootLoc, loc)
			if want != model.DirNone && want != e.tree.Direction(key) {
				if _, err := SetDirection(e.tree, key, want); err != nil {
					return err
				}
				flipped = want
			}
		}
		return e.relayout(key)
	})
	if err != nil {
		return err
	}
	if flipped != model.DirNone {
		e.fireFlip(key, flipped)
	}
	return nil
}

// Flip moves the subtree at key to side dir. A branch attached to the root
// is mirrored across the root before being relaid. Flipping a
// node deeper in a branch breaks branch uniformity and is rolled back.
func (e *Editor) Flip(key int, dir model.Direction) error {
	changed := 0
	_, err := e.atomic("Flip", func() error {
		var err error
		changed, err = SetDirection(e.tree, key, dir)
		if err != nil || changed == 0 {
			return err
		}
		if parent, ok := e.tree.Parent(key); ok && parent == model.RootKey {
			rootLoc, _ := e.tree.Location(model.RootKey)
			loc, _ := e.tree.Location(key)
			if err := e.tree.SetLocation(key, e.engine.Mirror(rootLoc, loc)); err != nil {
				return err
			}
		}
		return e.relayout(key)
	})
	if err != nil {
		return err
	}
	if changed > 0 {
		e.fireFlip(key, dir)
	}
	return nil
}

func (e *Editor) fireFlip(key int, dir model.Direction) {
	debug.Log("editor: branch %d flipped to %s", key, dir)
	for _, fn := range e.flipListeners {
		fn(key, dir)
	}
}

// RelayoutAll runs the whole-tree layout.
func (e *Editor) RelayoutAll() error {
	_, err := e.atomic("Layout", func() error {
		return e.relayout(model.RootKey)
	})
	return err
}

// LayoutNode relays the subtree at key; the root relays everything.
func (e *Editor) LayoutNode(key int) error {
	_, err := e.atomic("Subtree Layout", func() error {
		if !e.tree.Has(key) {
			return model.UnknownNode("layout", key)
		}
		return e.relayout(key)
	})
	return err
}

// SetText replaces the text of key.
func (e *Editor) SetText(key int, text string) error {
	_, err := e.atomic("Edit Text", func() error {
		return e.tree.SetProperty(key, PropText, text)
	})
	return err
}

// ScaleText multiplies the text scale of key by factor.
func (e *Editor) ScaleText(key int, factor float64) error {
	_, err := e.atomic("Change Text Size", func() error {
		n, ok := e.tree.Node(key)
		if !ok {
			return model.UnknownNode("scale", key)
		}
		return e.tree.SetProperty(key, PropScale, n.Scale*factor)
	})
	return err
}

// ToggleBold switches the font of key between bold and normal weight.
func (e *Editor) ToggleBold(key int) error {
	_, err := e.atomic("Change Text Weight", func() error {
		n, ok := e.tree.Node(key)
		if !ok {
			return model.UnknownNode("bold", key)
		}
		return e.tree.SetProperty(key, PropFont, toggleBold(n.Font))
	})
	return err
}

// toggleBold assumes "bold" leads the font specifier.
func toggleBold(font string) string {
	if font == "" {
		font = DefaultFont
	}
	idx := strings.Index(font, "bold")
	if idx < 0 {
		return "bold " + font
	}
	rest := strings.TrimSpace(font[idx+len("bold"):])
	if rest == "" {
		return DefaultFont
	}
	return rest
}

// CopySubtree returns key and its descendants as records, top node first.
func (e *Editor) CopySubtree(key int) ([]model.Record, error) {
	return SubtreeRecords(e.tree, key)
}

// Paste inserts a copied subtree under parent with fresh keys and returns
// them in record order. Records whose parent is not part of the set hang
// directly under parent. Pasted nodes take the side of parent; under the
// root the top nodes keep their own side. The parent's subtree is relaid.
func (e *Editor) Paste(parent int, records []model.Record) ([]int, error) {
	if len(records) == 0 {
		return nil, nil
	}
	inSet := make(map[int]bool, len(records))
	for _, r := range records {
		inSet[r.Key] = true
	}
	var keys []int
	_, err := e.atomic("Paste", func() error {
		mapped := make(map[int]int, len(records))
		for _, r := range records {
			n, err := r.ToNode()
			if err != nil {
				return err
			}
			target := parent
			attrs := model.Attrs{Text: n.Text, Brush: n.Brush, Font: n.Font, Scale: n.Scale}
			if r.HasParent() && inSet[*r.ParentKey] {
				p, ok := mapped[*r.ParentKey]
				if !ok {
					return fmt.Errorf("paste: record %d precedes its parent %d", r.Key, *r.ParentKey)
				}
				target = p
			} else if parent == model.RootKey && n.Dir.IsValid() {
				attrs.Dir = n.Dir
			}
			key, err := e.tree.AddNode(target, attrs)
			if err != nil {
				return err
			}
			mapped[r.Key] = key
			keys = append(keys, key)
		}
		return e.relayout(parent)
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Undo reverts the last edit.
func (e *Editor) Undo() (Diff, error) { return e.history.Undo() }

// Redo re-applies the last undone edit.
func (e *Editor) Redo() (Diff, error) { return e.history.Redo() }

// CanUndo reports whether Undo is possible.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo is possible.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }
