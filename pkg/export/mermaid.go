package export

import (
	"fmt"
	"strings"
	"unicode"
)

// GenerateMermaid renders src as a Mermaid mindmap. Mermaid has no notion of
// sides, so branches appear in child order with the root drawn as a circle.
func GenerateMermaid(src Source) (string, error) {
	items, err := walk(src)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("mindmap\n")
	for _, it := range items {
		indent := strings.Repeat("  ", it.depth+1)
		text := sanitizeMermaidText(it.node.Text)
		if it.node.IsRoot() {
			fmt.Fprintf(&sb, "%sn%d((%s))\n", indent, it.node.Key, text)
			continue
		}
		fmt.Fprintf(&sb, "%sn%d[%s]\n", indent, it.node.Key, text)
	}
	return sb.String(), nil
}

// sanitizeMermaidText replaces characters that terminate a Mermaid node
// shape and drops control characters.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", " ",
		"]", " ",
		"{", " ",
		"}", " ",
		"(", " ",
		")", " ",
		"<", "&lt;",
		">", "&gt;",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, text)
	result = strings.Join(strings.Fields(replacer.Replace(result)), " ")
	if result == "" {
		return "untitled"
	}
	return truncate(result, 60)
}
