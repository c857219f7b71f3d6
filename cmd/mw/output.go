package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/mindwork/pkg/export"
	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
)

// exportMap writes t to path in the format named by its extension.
func exportMap(t *mindmap.Tree, path, title string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg", ".png":
		return export.SaveSnapshot(t, export.SnapshotOptions{Path: path, Title: title})
	case ".md", ".markdown":
		return export.SaveMarkdown(t, path)
	case ".mmd", ".mermaid":
		out, err := export.GenerateMermaid(t)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(out), 0o644)
	case ".jsonl", ".json":
		return loader.SaveFile(path, mindmap.Serialize(t))
	}
	return fmt.Errorf("unsupported export format %q (want .svg, .png, .md, .mmd, .jsonl or .json)", filepath.Ext(path))
}
