package loader

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// DocumentClass is the class tag written into model documents.
const DocumentClass = "go.TreeModel"

type document struct {
	Class         string         `json:"class"`
	NodeDataArray []documentNode `json:"nodeDataArray"`
}

// documentNode accepts both the document's "parent" field and the record
// field "parentKey".
type documentNode struct {
	Key       int     `json:"key"`
	Parent    *int    `json:"parent,omitempty"`
	ParentKey *int    `json:"parentKey,omitempty"`
	Text      string  `json:"text"`
	Brush     string  `json:"brush,omitempty"`
	Dir       string  `json:"dir,omitempty"`
	Loc       string  `json:"loc,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
	Font      string  `json:"font,omitempty"`
}

// ParseDocument parses a model document. Nodes without a side inherit it
// from their parent; branches attached to the root default to the right.
func ParseDocument(data []byte) ([]model.Record, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	var doc document
	if err := json.Unmarshal(stripBOM(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse map document: %w", err)
	}
	if doc.Class != "" && doc.Class != DocumentClass {
		return nil, fmt.Errorf("unsupported document class %q (want %s)", doc.Class, DocumentClass)
	}

	records := make([]model.Record, len(doc.NodeDataArray))
	for i, n := range doc.NodeDataArray {
		parent := n.ParentKey
		if parent == nil {
			parent = n.Parent
		}
		records[i] = model.Record{
			Key:       n.Key,
			ParentKey: parent,
			Text:      n.Text,
			Brush:     n.Brush,
			Dir:       n.Dir,
			Loc:       n.Loc,
			Scale:     n.Scale,
			Font:      n.Font,
		}.Canonical()
	}
	inheritDirections(records)
	inheritLocations(records)
	return records, nil
}

// inheritDirections fills empty sides top-down. Records whose parent chain
// cannot be resolved are left alone for validation to report.
func inheritDirections(records []model.Record) {
	byKey := make(map[int]int, len(records))
	for i, r := range records {
		byKey[r.Key] = i
	}
	resolving := make(map[int]bool)
	var resolve func(i int) string
	resolve = func(i int) string {
		r := &records[i]
		if r.Dir != "" || !r.HasParent() {
			return r.Dir
		}
		if resolving[r.Key] {
			return ""
		}
		resolving[r.Key] = true
		if *r.ParentKey == model.RootKey {
			r.Dir = string(model.DirRight)
		} else if p, ok := byKey[*r.ParentKey]; ok {
			r.Dir = resolve(p)
		}
		return r.Dir
	}
	for i := range records {
		resolve(i)
	}
}

// inheritLocations places nodes saved without a location on their parent,
// and a root without one at the origin, so a later layout can spread them.
func inheritLocations(records []model.Record) {
	byKey := make(map[int]int, len(records))
	for i, r := range records {
		byKey[r.Key] = i
	}
	resolving := make(map[int]bool)
	var resolve func(i int) string
	resolve = func(i int) string {
		r := &records[i]
		if strings.TrimSpace(r.Loc) != "" {
			return r.Loc
		}
		if resolving[r.Key] {
			return ""
		}
		resolving[r.Key] = true
		loc := model.Point{}.String()
		if r.HasParent() {
			if p, ok := byKey[*r.ParentKey]; ok {
				if pl := resolve(p); pl != "" {
					loc = pl
				}
			}
		}
		r.Loc = loc
		return r.Loc
	}
	for i := range records {
		resolve(i)
	}
}

// WriteDocument writes records as an indented model document using the
// "parent" field.
func WriteDocument(w io.Writer, records []model.Record) error {
	doc := document{Class: DocumentClass, NodeDataArray: make([]documentNode, len(records))}
	for i, r := range records {
		doc.NodeDataArray[i] = documentNode{
			Key:    r.Key,
			Parent: r.ParentKey,
			Text:   r.Text,
			Brush:  r.Brush,
			Dir:    r.Dir,
			Loc:    r.Loc,
			Scale:  r.Scale,
			Font:   r.Font,
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode map document: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write map document: %w", err)
	}
	return nil
}
