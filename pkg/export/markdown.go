package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// GenerateMarkdown renders src as a nested bullet outline under a heading
// holding the root text. Right branches come before left branches, each
// group keeping child order.
func GenerateMarkdown(src Source) (string, error) {
	items, err := walk(src)
	if err != nil {
		return "", err
	}
	root := items[0].node

	var right, left [][]item
	for i := 1; i < len(items); {
		j := i + 1
		for j < len(items) && items[j].depth > 1 {
			j++
		}
		branch := items[i:j]
		if branch[0].node.Dir == model.DirLeft {
			left = append(left, branch)
		} else {
			right = append(right, branch)
		}
		i = j
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", escapeMarkdown(root.Text))
	writeSide := func(heading string, branches [][]item) {
		if len(branches) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", heading)
		for _, b := range branches {
			for _, it := range b {
				text := escapeMarkdown(it.node.Text)
				if strings.Contains(it.node.Font, "bold") {
					text = "**" + text + "**"
				}
				fmt.Fprintf(&sb, "%s- %s\n", strings.Repeat("  ", it.depth-1), text)
			}
		}
	}
	writeSide("Right", right)
	writeSide("Left", left)
	return sb.String(), nil
}

// SaveMarkdown writes the outline of src to path.
func SaveMarkdown(src Source, path string) error {
	md, err := GenerateMarkdown(src)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(md), 0o644)
}

func escapeMarkdown(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`).Replace(s)
}
