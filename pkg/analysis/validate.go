// Package analysis checks the structural invariants of a mind map and
// summarises its shape.
//
// The parent relation is loaded into a gonum directed graph (parent -> child)
// so that cycle detection and reachability reuse gonum's topo and traverse
// packages rather than hand-written walks.
package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/vanderheijden86/mindwork/pkg/debug"
	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// violation wraps the invariant sentinel together with a more specific kind.
func violation(kind error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if kind == nil {
		return fmt.Errorf("%w: %s", model.ErrInvariantViolation, msg)
	}
	return fmt.Errorf("%w: %w: %s", model.ErrInvariantViolation, kind, msg)
}

// ValidateRecords checks a record set before it is turned into a tree:
// exactly one parentless record, which must be the root key, plus every
// check done by Validate.
func ValidateRecords(records []model.Record) ([]model.Node, error) {
	var roots []int
	nodes := make([]model.Node, 0, len(records))
	for _, r := range records {
		if !r.HasParent() {
			roots = append(roots, r.Key)
		}
		n, err := r.ToNode()
		if err != nil {
			return nil, violation(nil, "%v", err)
		}
		nodes = append(nodes, n)
	}
	switch {
	case len(roots) == 0:
		return nil, violation(nil, "no root record")
	case len(roots) > 1:
		return nil, violation(nil, "%d parentless records %v, want exactly one", len(roots), roots)
	case roots[0] != model.RootKey:
		return nil, violation(nil, "parentless record has key %d, want %d", roots[0], model.RootKey)
	}
	if err := Validate(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Validate verifies the tree invariants over a node set:
//   - keys are unique and the root key is present
//   - every non-root parent exists and the parent graph is acyclic
//   - every node is reachable from the root
//   - every non-root node has a side, shared by its whole branch
func Validate(nodes []model.Node) error {
	defer metrics.Timer(metrics.Validate)()

	byKey := make(map[int]model.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := byKey[n.Key]; dup {
			return violation(model.ErrDuplicateKey, "key %d appears more than once", n.Key)
		}
		byKey[n.Key] = n
	}
	if _, ok := byKey[model.RootKey]; !ok {
		return violation(nil, "root key %d missing", model.RootKey)
	}

	g := simple.NewDirectedGraph()
	for _, n := range nodes {
		g.AddNode(simple.Node(int64(n.Key)))
	}
	for _, n := range nodes {
		if n.IsRoot() {
			if n.Dir != model.DirNone {
				return violation(nil, "root has side %s", n.Dir)
			}
			continue
		}
		if n.Parent == n.Key {
			return violation(model.ErrCyclicParent, "node %d is its own parent", n.Key)
		}
		if _, ok := byKey[n.Parent]; !ok {
			return violation(model.ErrUnknownNode, "node %d references missing parent %d", n.Key, n.Parent)
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(n.Parent)), simple.Node(int64(n.Key))))
	}

	if _, err := topo.Sort(g); err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) && len(cycles) > 0 {
			return violation(model.ErrCyclicParent, "parent cycle through %v", componentKeys(cycles[0]))
		}
		return violation(model.ErrCyclicParent, "%v", err)
	}

	reached := 0
	bf := traverse.BreadthFirst{Visit: func(graph.Node) { reached++ }}
	bf.Walk(g, simple.Node(model.RootKey), nil)
	if reached != len(nodes) {
		return violation(nil, "%d of %d nodes unreachable from root", len(nodes)-reached, len(nodes))
	}

	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		if !n.Dir.IsValid() {
			return violation(nil, "node %d has no side", n.Key)
		}
		if n.Parent == model.RootKey {
			continue
		}
		if parent := byKey[n.Parent]; parent.Dir != n.Dir {
			return violation(nil, "node %d is %s but its parent %d is %s", n.Key, n.Dir, n.Parent, parent.Dir)
		}
	}

	debug.Log("validate: %d nodes ok", len(nodes))
	return nil
}

func componentKeys(nodes []graph.Node) []int {
	keys := make([]int, len(nodes))
	for i, n := range nodes {
		keys[i] = int(n.ID())
	}
	return keys
}
