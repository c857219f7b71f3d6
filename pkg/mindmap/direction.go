package mindmap

import (
	"fmt"

	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// SetDirection assigns dir to key and every descendant of key. It only
// writes the dir property; relaying the branch is up to the caller. It must
// run inside an open transaction and never applies to the root. It returns
// the number of nodes whose direction changed.
func SetDirection(t *Tree, key int, dir model.Direction) (int, error) {
	if !t.Has(key) {
		return 0, model.UnknownNode("set direction", key)
	}
	if key == model.RootKey {
		return 0, &model.NodeError{Op: "set direction", Key: key, Err: fmt.Errorf("%w: the root has no direction", model.ErrInvariantViolation)}
	}
	if !dir.IsValid() {
		return 0, &model.NodeError{Op: "set direction", Key: key, Err: fmt.Errorf("invalid direction %q", dir)}
	}
	changed, err := propagate(t, key, dir)
	if err != nil {
		return changed, err
	}
	debug.Log("direction: %d -> %s (%d nodes)", key, dir, changed)
	return changed, nil
}

func propagate(t *Tree, key int, dir model.Direction) (int, error) {
	changed := 0
	if t.Direction(key) != dir {
		if err := t.SetProperty(key, PropDir, dir); err != nil {
			return changed, err
		}
		changed++
	}
	for c := range t.Children(key) {
		n, err := propagate(t, c, dir)
		changed += n
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// BranchOf returns the root child whose branch contains key.
func BranchOf(t *Tree, key int) (int, error) {
	if !t.Has(key) {
		return 0, model.UnknownNode("branch", key)
	}
	if key == model.RootKey {
		return 0, &model.NodeError{Op: "branch", Key: key, Err: fmt.Errorf("%w: the root belongs to no branch", model.ErrInvariantViolation)}
	}
	for {
		parent, _ := t.Parent(key)
		if parent == model.RootKey {
			return key, nil
		}
		key = parent
	}
}
