package model

import "fmt"

// Record is the portable, parent-referencing form of a node. Field order is
// the canonical serialization order.
type Record struct {
	Key       int     `json:"key"`
	ParentKey *int    `json:"parentKey,omitempty"`
	Text      string  `json:"text"`
	Brush     string  `json:"brush,omitempty"`
	Dir       string  `json:"dir,omitempty"`
	Loc       string  `json:"loc"`
	Scale     float64 `json:"scale,omitempty"`
	Font      string  `json:"font,omitempty"`
}

// Canonical returns r in the form ToRecord produces: the default scale is
// written as an absent field.
func (r Record) Canonical() Record {
	if r.Scale == DefaultScale {
		r.Scale = 0
	}
	return r
}

// ToRecord converts a node into its record form. The result is canonical.
func (n Node) ToRecord() Record {
	r := Record{
		Key:   n.Key,
		Text:  n.Text,
		Brush: n.Brush,
		Dir:   string(n.Dir),
		Loc:   n.Loc.String(),
	}
	if !n.IsRoot() {
		parent := n.Parent
		r.ParentKey = &parent
	}
	if n.Scale != 0 && n.Scale != DefaultScale {
		r.Scale = n.Scale
	}
	r.Font = n.Font
	return r
}

// ToNode converts a record into a node. It validates field formats only;
// structural checks belong to the analysis package.
func (r Record) ToNode() (Node, error) {
	loc, err := ParsePoint(r.Loc)
	if err != nil {
		return Node{}, fmt.Errorf("record %d: %w", r.Key, err)
	}
	dir, err := ParseDirection(r.Dir)
	if err != nil {
		return Node{}, fmt.Errorf("record %d: %w", r.Key, err)
	}
	n := Node{
		Key:   r.Key,
		Text:  r.Text,
		Brush: r.Brush,
		Dir:   dir,
		Loc:   loc,
		Scale: r.Scale,
		Font:  r.Font,
	}
	if n.Scale == 0 {
		n.Scale = DefaultScale
	}
	if r.ParentKey != nil {
		n.Parent = *r.ParentKey
	} else {
		n.Parent = NoParent
	}
	return n, nil
}

// HasParent reports whether the record references a parent.
func (r Record) HasParent() bool {
	return r.ParentKey != nil
}

// IntPtr returns a pointer to v, for building records.
func IntPtr(v int) *int {
	return &v
}
