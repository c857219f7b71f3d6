package command

import (
	"context"
	"fmt"
	"io"

	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// Result summarises a script run.
type Result struct {
	Executed int   // commands that completed
	Added    []int // keys created by add and paste, in order
}

// Runner executes commands against one editor. It remembers the keys it
// added, for $ references, and the last copied subtree.
type Runner struct {
	ed        *mindmap.Editor
	added     []int
	clipboard []model.Record
}

// NewRunner creates a runner bound to ed.
func NewRunner(ed *mindmap.Editor) *Runner {
	return &Runner{ed: ed}
}

// Added returns the keys created so far.
func (r *Runner) Added() []int {
	return append([]int(nil), r.added...)
}

// Clipboard returns the records captured by the last copy.
func (r *Runner) Clipboard() []model.Record {
	return r.clipboard
}

// SetClipboard seeds the records a paste inserts.
func (r *Runner) SetClipboard(records []model.Record) {
	r.clipboard = records
}

// Exec runs cmds in order and stops at the first failure, which is returned
// as a *LineError. Commands that completed stay applied; each one is a
// separate undo step. ctx is checked between commands.
func (r *Runner) Exec(ctx context.Context, cmds []Command) (Result, error) {
	var res Result
	start := len(r.added)
	for _, c := range cmds {
		if err := ctx.Err(); err != nil {
			res.Added = append(res.Added, r.added[start:]...)
			return res, err
		}
		if err := r.exec(c); err != nil {
			res.Added = append(res.Added, r.added[start:]...)
			return res, &LineError{Line: c.Line, Op: c.Op, Err: err}
		}
		debug.Log("command: line %d %s %s ok", c.Line, c.Op, c.Ref)
		res.Executed++
	}
	res.Added = append(res.Added, r.added[start:]...)
	return res, nil
}

// Run parses src and executes it against ed.
func Run(ctx context.Context, ed *mindmap.Editor, src io.Reader) (Result, error) {
	cmds, err := Parse(src)
	if err != nil {
		return Result{}, err
	}
	return NewRunner(ed).Exec(ctx, cmds)
}

func (r *Runner) resolve(ref Ref) (int, error) {
	switch {
	case ref.Last:
		if len(r.added) == 0 {
			return 0, fmt.Errorf("%w: $ before any add", ErrBadRef)
		}
		return r.added[len(r.added)-1], nil
	case ref.Added > 0:
		if ref.Added > len(r.added) {
			return 0, fmt.Errorf("%w: $%d but only %d added", ErrBadRef, ref.Added, len(r.added))
		}
		return r.added[ref.Added-1], nil
	}
	return ref.Key, nil
}

func (r *Runner) exec(c Command) error {
	key := 0
	if c.HasRef {
		var err error
		if key, err = r.resolve(c.Ref); err != nil {
			return err
		}
	}

	switch c.Op {
	case OpAdd:
		k, _, err := r.ed.AddChild(key, c.Text)
		if err != nil {
			return err
		}
		r.added = append(r.added, k)
		return nil
	case OpRemove:
		return r.ed.RemoveSubtree(key)
	case OpMove:
		return r.ed.Move(key, c.Loc)
	case OpFlip:
		return r.ed.Flip(key, c.Dir)
	case OpLayout:
		if !c.HasRef {
			return r.ed.RelayoutAll()
		}
		return r.ed.LayoutNode(key)
	case OpText:
		return r.ed.SetText(key, c.Text)
	case OpBigger:
		return r.ed.ScaleText(key, mindmap.TextScaleStep)
	case OpSmaller:
		return r.ed.ScaleText(key, 1/mindmap.TextScaleStep)
	case OpBold:
		return r.ed.ToggleBold(key)
	case OpCopy:
		recs, err := r.ed.CopySubtree(key)
		if err != nil {
			return err
		}
		r.clipboard = recs
		return nil
	case OpPaste:
		if len(r.clipboard) == 0 {
			return ErrEmptyClipboard
		}
		keys, err := r.ed.Paste(key, r.clipboard)
		if err != nil {
			return err
		}
		r.added = append(r.added, keys...)
		return nil
	case OpUndo:
		_, err := r.ed.Undo()
		return err
	case OpRedo:
		_, err := r.ed.Redo()
		return err
	}
	return fmt.Errorf("%w %q", ErrUnknownCommand, c.Op)
}
