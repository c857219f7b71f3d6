//go:build ignore

// generate_testdata.go writes the benchmark mind maps.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/benchmark/small.jsonl   (100 nodes)
//	tests/testdata/benchmark/medium.jsonl  (1000 nodes)
//	tests/testdata/benchmark/large.jsonl   (5000 nodes)
//	tests/testdata/benchmark/wide.jsonl    (2000 nodes, unbounded fanout)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/testutil"
)

type datasetSpec struct {
	name   string
	size   int
	fanout int
}

var datasets = []datasetSpec{
	{"small", 100, 4},
	{"medium", 1000, 6},
	{"large", 5000, 8},
	{"wide", 2000, 0},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d nodes)...\n", ds.name, ds.size)

		records := testutil.GenerateRecords(testutil.GeneratorConfig{
			Seed:      int64(ds.size),
			Nodes:     ds.size,
			MaxFanout: ds.fanout,
		})

		// Lay the map out once so the files load with sensible locations.
		ed, err := mindmap.NewEditorFromRecords(records, mindmap.DefaultOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generated map %s is invalid: %v\n", ds.name, err)
			os.Exit(1)
		}
		if err := ed.RelayoutAll(); err != nil {
			fmt.Fprintf(os.Stderr, "Layout of %s failed: %v\n", ds.name, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := loader.SaveFile(outputPath, ed.Records()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		info, _ := os.Stat(outputPath)
		fmt.Printf("  Written %s (%d bytes)\n", outputPath, info.Size())
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
