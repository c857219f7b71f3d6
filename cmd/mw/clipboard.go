package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
)

// Swapped out in tests; the system clipboard is not available headless.
var (
	clipboardWrite = clipboard.WriteAll
	clipboardRead  = clipboard.ReadAll
)

// copySubtree puts key and its descendants on the clipboard as JSONL.
func copySubtree(ed *mindmap.Editor, key int) (int, error) {
	records, err := ed.CopySubtree(key)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := loader.WriteRecords(&buf, records); err != nil {
		return 0, err
	}
	if err := clipboardWrite(buf.String()); err != nil {
		return 0, fmt.Errorf("clipboard: %w", err)
	}
	return len(records), nil
}

// pasteSubtree inserts the JSONL subtree on the clipboard under parent.
func pasteSubtree(ed *mindmap.Editor, parent int) ([]int, error) {
	text, err := clipboardRead()
	if err != nil {
		return nil, fmt.Errorf("clipboard: %w", err)
	}
	records, err := loader.ParseRecordsWithOptions(strings.NewReader(text), loader.ParseOptions{WarningHandler: warnf})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("clipboard holds no mind-map records")
	}
	return ed.Paste(parent, records)
}
