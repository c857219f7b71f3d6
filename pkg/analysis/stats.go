package analysis

import "github.com/vanderheijden86/mindwork/pkg/model"

// Stats summarises the shape of a mind map.
type Stats struct {
	Nodes         int `json:"nodes"`
	Depth         int `json:"depth"`
	Leaves        int `json:"leaves"`
	LeftBranches  int `json:"left_branches"`
	RightBranches int `json:"right_branches"`
	LeftNodes     int `json:"left_nodes"`
	RightNodes    int `json:"right_nodes"`
	MaxFanout     int `json:"max_fanout"`
}

// ComputeStats walks a valid node set. Nodes whose parent chain does not
// reach the root are ignored.
func ComputeStats(nodes []model.Node) Stats {
	children := make(map[int][]int, len(nodes))
	byKey := make(map[int]model.Node, len(nodes))
	for _, n := range nodes {
		byKey[n.Key] = n
		if !n.IsRoot() {
			children[n.Parent] = append(children[n.Parent], n.Key)
		}
	}
	var s Stats
	if _, ok := byKey[model.RootKey]; !ok {
		return s
	}

	type frame struct{ key, depth int }
	stack := []frame{{model.RootKey, 0}}
	seen := make(map[int]bool, len(nodes))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f.key] {
			continue
		}
		seen[f.key] = true
		s.Nodes++
		if f.depth > s.Depth {
			s.Depth = f.depth
		}
		kids := children[f.key]
		if len(kids) == 0 {
			s.Leaves++
		}
		if len(kids) > s.MaxFanout {
			s.MaxFanout = len(kids)
		}
		if n := byKey[f.key]; !n.IsRoot() {
			switch n.Dir {
			case model.DirLeft:
				s.LeftNodes++
				if n.Parent == model.RootKey {
					s.LeftBranches++
				}
			case model.DirRight:
				s.RightNodes++
				if n.Parent == model.RootKey {
					s.RightBranches++
				}
			}
		}
		for _, c := range kids {
			stack = append(stack, frame{c, f.depth + 1})
		}
	}
	return s
}
