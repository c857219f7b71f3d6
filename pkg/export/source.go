// Package export renders a laid-out mind map as a static SVG or PNG
// snapshot, a Markdown outline or a Mermaid mindmap.
package export

import "github.com/vanderheijden86/mindwork/pkg/model"

// Source is the read-only view of a tree the exporters need.
// *mindmap.Tree satisfies it.
type Source interface {
	Root() (int, error)
	Node(key int) (model.Node, bool)
	ChildKeys(key int) []int
}

// item is a node visited in outline order.
type item struct {
	node  model.Node
	depth int
}

// walk returns the nodes of src in preorder following child order.
func walk(src Source) ([]item, error) {
	root, err := src.Root()
	if err != nil {
		return nil, err
	}
	var out []item
	var visit func(key, depth int) error
	visit = func(key, depth int) error {
		n, ok := src.Node(key)
		if !ok {
			return model.UnknownNode("export", key)
		}
		out = append(out, item{node: n, depth: depth})
		for _, c := range src.ChildKeys(key) {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root, 0); err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
