// Package command runs line-oriented edit scripts against a mindmap.Editor.
//
// One command per line; blank lines and lines starting with '#' are skipped:
//
//	add PARENT [TEXT...]   add a child (TEXT defaults to the editor's default)
//	remove KEY             delete a subtree
//	move KEY X Y           end a drag of KEY at (X, Y)
//	flip KEY left|right    move a branch to one side
//	layout [KEY]           relayout a subtree, or the whole map
//	text KEY TEXT...       replace node text
//	bigger KEY | smaller KEY | bold KEY
//	copy KEY | paste PARENT
//	undo | redo
//
// KEY may be a node key, "$" for the node most recently added by the script,
// or "$N" for the N-th node it added.
package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// Op names a script command.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpMove    Op = "move"
	OpFlip    Op = "flip"
	OpLayout  Op = "layout"
	OpText    Op = "text"
	OpBigger  Op = "bigger"
	OpSmaller Op = "smaller"
	OpBold    Op = "bold"
	OpCopy    Op = "copy"
	OpPaste   Op = "paste"
	OpUndo    Op = "undo"
	OpRedo    Op = "redo"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("bad arguments")
	ErrBadRef         = errors.New("bad node reference")
	ErrEmptyClipboard = errors.New("nothing copied")
)

// LineError ties a parse or execution failure to its script line.
type LineError struct {
	Line int
	Op   Op
	Err  error
}

func (e *LineError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Op, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Ref names a node in a script.
type Ref struct {
	Key   int
	Added int // 1-based index into the nodes added so far; 0 for a plain key
	Last  bool
}

func (r Ref) String() string {
	switch {
	case r.Last:
		return "$"
	case r.Added > 0:
		return "$" + strconv.Itoa(r.Added)
	}
	return strconv.Itoa(r.Key)
}

func parseRef(s string) (Ref, error) {
	if s == "$" {
		return Ref{Last: true}, nil
	}
	if rest, ok := strings.CutPrefix(s, "$"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Ref{}, fmt.Errorf("%w %q", ErrBadRef, s)
		}
		return Ref{Added: n}, nil
	}
	k, err := strconv.Atoi(s)
	if err != nil || k < 0 {
		return Ref{}, fmt.Errorf("%w %q", ErrBadRef, s)
	}
	return Ref{Key: k}, nil
}

// Command is one parsed script line.
type Command struct {
	Line   int
	Op     Op
	Ref    Ref
	HasRef bool
	Text   string
	Loc    model.Point
	Dir    model.Direction
}

// Parse reads a whole script. The first malformed line stops parsing.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		cmd, ok, err := ParseLine(sc.Text(), line)
		if err != nil {
			return nil, err
		}
		if ok {
			cmds = append(cmds, cmd)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return cmds, nil
}

// ParseLine parses a single line. ok is false for blank and comment lines.
func ParseLine(text string, line int) (cmd Command, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return Command{}, false, nil
	}
	name, rest := cut(text)
	cmd = Command{Line: line, Op: Op(strings.ToLower(name))}
	fail := func(err error) (Command, bool, error) {
		return Command{}, false, &LineError{Line: line, Op: cmd.Op, Err: err}
	}
	usage := func(form string) (Command, bool, error) {
		return fail(fmt.Errorf("%w: want %s", ErrUsage, form))
	}

	switch cmd.Op {
	case OpUndo, OpRedo:
		if rest != "" {
			return usage(string(cmd.Op))
		}

	case OpAdd, OpText:
		keyTok, tail := cut(rest)
		if keyTok == "" || (cmd.Op == OpText && tail == "") {
			if cmd.Op == OpAdd {
				return usage("add PARENT [TEXT...]")
			}
			return usage("text KEY TEXT...")
		}
		if cmd.Ref, err = parseRef(keyTok); err != nil {
			return fail(err)
		}
		cmd.HasRef = true
		cmd.Text = tail

	case OpRemove, OpBigger, OpSmaller, OpBold, OpCopy, OpPaste:
		f := strings.Fields(rest)
		if len(f) != 1 {
			return usage(string(cmd.Op) + " KEY")
		}
		if cmd.Ref, err = parseRef(f[0]); err != nil {
			return fail(err)
		}
		cmd.HasRef = true

	case OpLayout:
		f := strings.Fields(rest)
		if len(f) > 1 {
			return usage("layout [KEY]")
		}
		if len(f) == 1 {
			if cmd.Ref, err = parseRef(f[0]); err != nil {
				return fail(err)
			}
			cmd.HasRef = true
		}

	case OpMove:
		f := strings.Fields(rest)
		if len(f) != 3 {
			return usage("move KEY X Y")
		}
		if cmd.Ref, err = parseRef(f[0]); err != nil {
			return fail(err)
		}
		cmd.HasRef = true
		if cmd.Loc, err = model.ParsePoint(f[1] + " " + f[2]); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrUsage, err))
		}

	case OpFlip:
		f := strings.Fields(rest)
		if len(f) != 2 {
			return usage("flip KEY left|right")
		}
		if cmd.Ref, err = parseRef(f[0]); err != nil {
			return fail(err)
		}
		cmd.HasRef = true
		dir, err := model.ParseDirection(f[1])
		if err != nil || !dir.IsValid() {
			return usage("flip KEY left|right")
		}
		cmd.Dir = dir

	default:
		return fail(fmt.Errorf("%w %q", ErrUnknownCommand, name))
	}
	return cmd, true, nil
}

// cut splits off the first whitespace-delimited token and returns the
// trimmed remainder unchanged otherwise.
func cut(s string) (tok, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' })
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
