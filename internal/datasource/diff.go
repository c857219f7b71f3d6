package datasource

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// SourceDiff represents differences between the maps held by two stores
type SourceDiff struct {
	// SourceA is the name of the first store
	SourceA string
	// SourceB is the name of the second store
	SourceB string
	// MissingInA contains node keys present in B but not in A
	MissingInA []int
	// MissingInB contains node keys present in A but not in B
	MissingInB []int
	// FieldMismatch contains nodes whose compared fields differ
	FieldMismatch []FieldDifference
	// CountA is the number of nodes in source A
	CountA int
	// CountB is the number of nodes in source B
	CountB int
}

// FieldDifference represents one differing field of a single node
type FieldDifference struct {
	Key    int    `json:"key"`
	Field  string `json:"field"`
	ValueA string `json:"value_a"`
	ValueB string `json:"value_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.FieldMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d nodes each)", d.CountA)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&sb, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	if len(d.MissingInA) > 0 {
		fmt.Fprintf(&sb, "  - %d nodes in %s but not %s: %v\n", len(d.MissingInA), d.SourceB, d.SourceA, head(d.MissingInA, 5))
	}
	if len(d.MissingInB) > 0 {
		fmt.Fprintf(&sb, "  - %d nodes in %s but not %s: %v\n", len(d.MissingInB), d.SourceA, d.SourceB, head(d.MissingInB, 5))
	}
	if len(d.FieldMismatch) > 0 {
		fmt.Fprintf(&sb, "  - %d differing fields\n", len(d.FieldMismatch))
		if len(d.FieldMismatch) <= 5 {
			for _, m := range d.FieldMismatch {
				fmt.Fprintf(&sb, "    - %d %s: %q vs %q\n", m.Key, m.Field, m.ValueA, m.ValueB)
			}
		}
	}
	return sb.String()
}

func head(keys []int, n int) []int {
	if len(keys) > n {
		return keys[:n]
	}
	return keys
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// CompareFields specifies which record fields to compare
	// (text, parent, brush, dir, loc, scale, font). Empty compares all.
	CompareFields []string
	// MaxDifferences limits the number of differences tracked (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		CompareFields:  []string{"text", "parent", "dir", "loc"},
		MaxDifferences: 100,
	}
}

var allFields = []string{"text", "parent", "brush", "dir", "loc", "scale", "font"}

func fieldValue(r model.Record, field string) string {
	switch field {
	case "text":
		return r.Text
	case "parent":
		if r.ParentKey == nil {
			return ""
		}
		return strconv.Itoa(*r.ParentKey)
	case "brush":
		return r.Brush
	case "dir":
		return r.Dir
	case "loc":
		return r.Loc
	case "scale":
		return strconv.FormatFloat(r.Scale, 'g', -1, 64)
	case "font":
		return r.Font
	}
	return ""
}

// DetectInconsistencies compares two record sets by key. Results are sorted
// by key so reports are stable.
func DetectInconsistencies(recordsA, recordsB []model.Record, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}

	mapA := make(map[int]model.Record, len(recordsA))
	for _, r := range recordsA {
		mapA[r.Key] = r
	}
	mapB := make(map[int]model.Record, len(recordsB))
	for _, r := range recordsB {
		mapB[r.Key] = r
	}
	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	fields := opts.CompareFields
	if len(fields) == 0 {
		fields = allFields
	}
	under := func(n int) bool { return opts.MaxDifferences == 0 || n < opts.MaxDifferences }

	for _, key := range sortedRecordKeys(mapA) {
		if _, ok := mapB[key]; !ok && under(len(diff.MissingInB)) {
			diff.MissingInB = append(diff.MissingInB, key)
		}
	}
	for _, key := range sortedRecordKeys(mapB) {
		b := mapB[key]
		a, ok := mapA[key]
		if !ok {
			if under(len(diff.MissingInA)) {
				diff.MissingInA = append(diff.MissingInA, key)
			}
			continue
		}
		for _, f := range fields {
			va, vb := fieldValue(a, f), fieldValue(b, f)
			if va != vb && under(len(diff.FieldMismatch)) {
				diff.FieldMismatch = append(diff.FieldMismatch, FieldDifference{Key: key, Field: f, ValueA: va, ValueB: vb})
			}
		}
	}
	return diff
}

func sortedRecordKeys(m map[int]model.Record) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// CompareStores loads and compares the maps of two stores
func CompareStores(ctx context.Context, a, b Store, opts DiffOptions) (*SourceDiff, error) {
	recordsA, err := a.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", a, err)
	}
	recordsB, err := b.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", b, err)
	}
	diff := DetectInconsistencies(recordsA, recordsB, a.String(), b.String(), opts)
	return &diff, nil
}
