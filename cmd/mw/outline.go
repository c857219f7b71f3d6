package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/mindwork/pkg/export"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

type outlineOptions struct {
	Width  int  // terminal width; 0 means unlimited
	Styled bool // colour branch text by brush
}

type outlineRow struct {
	prefix string
	node   model.Node
}

// renderOutline prints the tree as an indented outline with key, side and
// location columns.
func renderOutline(t *mindmap.Tree, opts outlineOptions) string {
	root, err := t.Root()
	if err != nil {
		return ""
	}
	var rows []outlineRow
	var walk func(key int, indent string, last, top bool)
	walk = func(key int, indent string, last, top bool) {
		n, _ := t.Node(key)
		prefix := ""
		childIndent := ""
		if !top {
			branch, pad := "├─ ", "│  "
			if last {
				branch, pad = "└─ ", "   "
			}
			prefix = indent + branch
			childIndent = indent + pad
		}
		rows = append(rows, outlineRow{prefix: prefix, node: n})
		kids := t.ChildKeys(key)
		for i, c := range kids {
			walk(c, childIndent, i == len(kids)-1, false)
		}
	}
	walk(root, "", true, true)

	const meta = 34 // key, side and location columns
	col := 0
	for _, r := range rows {
		col = max(col, runewidth.StringWidth(r.prefix+r.node.Text))
	}
	if opts.Width > 0 && col > opts.Width-meta {
		col = max(opts.Width-meta, 12)
	}

	rootStyle := lipgloss.NewStyle().Bold(true)
	var sb strings.Builder
	for _, r := range rows {
		label := r.prefix + r.node.Text
		if runewidth.StringWidth(label) > col {
			label = runewidth.Truncate(label, col, "…")
		}
		label = runewidth.FillRight(label, col)
		if opts.Styled && strings.HasPrefix(label, r.prefix) {
			text := label[len(r.prefix):]
			switch {
			case r.node.IsRoot():
				text = rootStyle.Render(text)
			case r.node.Brush != "":
				text = lipgloss.NewStyle().Foreground(lipgloss.Color(export.BrushHex(r.node.Brush))).Render(text)
			}
			label = r.prefix + text
		}
		side := string(r.node.Dir)
		if side == "" {
			side = "-"
		}
		fmt.Fprintf(&sb, "%s %5d  %-5s  %s\n", label, r.node.Key, side, r.node.Loc)
	}
	return sb.String()
}

// defaultMarkdownWrap is used when the terminal width is unknown.
const defaultMarkdownWrap = 80

// renderMarkdown prints the Markdown export of the tree. Styled output is
// rendered for the terminal; otherwise the Markdown source is returned.
func renderMarkdown(t *mindmap.Tree, opts outlineOptions) (string, error) {
	md, err := export.GenerateMarkdown(t)
	if err != nil {
		return "", err
	}
	if !opts.Styled {
		return md, nil
	}
	wrap := opts.Width
	if wrap <= 0 {
		wrap = defaultMarkdownWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}
