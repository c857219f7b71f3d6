package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(loader.MapDirEnvVar, t.TempDir())
}

func baseOptions(file string) options {
	return options{
		file:       file,
		addParent:  noKey,
		setText:    noKey,
		remove:     noKey,
		flip:       noKey,
		layoutNode: noKey,
		copyKey:    noKey,
		pasteKey:   noKey,
	}
}

func writeSample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := loader.SaveFile(path, mindmap.SampleRecords()); err != nil {
		t.Fatal(err)
	}
	return path
}

func runOpts(t *testing.T, o options) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), o, strings.NewReader(""), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func recordByText(t *testing.T, records []model.Record, text string) model.Record {
	t.Helper()
	for _, r := range records {
		if r.Text == text {
			return r
		}
	}
	t.Fatalf("no record with text %q", text)
	return model.Record{}
}

func TestRun_AddSavesFile(t *testing.T) {
	isolate(t)
	path := writeSample(t, "map.jsonl")

	o := baseOptions(path)
	o.addParent = 1
	o.text = "Sleep less"
	_, stderr, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "Saved 21 nodes") {
		t.Errorf("stderr = %q", stderr)
	}

	records, err := loader.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	r := recordByText(t, records, "Sleep less")
	if !r.HasParent() || *r.ParentKey != 1 || r.Dir != string(model.DirRight) {
		t.Errorf("added record = %+v", r)
	}
}

func TestRun_DryRunLeavesFile(t *testing.T) {
	isolate(t)
	path := writeSample(t, "map.jsonl")
	before, _ := os.ReadFile(path)

	o := baseOptions(path)
	o.remove = 3
	o.dryRun = true
	o.records = true
	stdout, _, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("dry run modified the file")
	}
	if strings.Contains(stdout, "Time wasting") {
		t.Error("printed records should reflect the in-memory removal")
	}
}

func TestRun_MissingFileStartsFromSample(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "new.jsonl")

	o := baseOptions(path)
	o.print = true
	stdout, stderr, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "Mind Map") {
		t.Errorf("outline = %q", stdout)
	}
	if !strings.Contains(stderr, "starting from the sample map") {
		t.Errorf("stderr = %q", stderr)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("printing alone should not create the map")
	}
}

func TestRun_PrintMarkdown(t *testing.T) {
	isolate(t)
	o := baseOptions(writeSample(t, "map.jsonl"))
	o.print = true
	o.format = "md"
	stdout, _, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "# Mind Map\n") || !strings.Contains(stdout, "## Left") {
		t.Errorf("expected raw markdown off a terminal, got %q", stdout)
	}

	o.format = "html"
	if _, _, err := runOpts(t, o); err == nil {
		t.Error("expected an error for an unknown -format")
	}
}

func TestRenderMarkdown_Styled(t *testing.T) {
	tree, err := mindmap.Deserialize(mindmap.SampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	plain, err := renderMarkdown(tree, outlineOptions{})
	if err != nil {
		t.Fatal(err)
	}
	styled, err := renderMarkdown(tree, outlineOptions{Styled: true, Width: 60})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Mind Map", "Getting more time", "Checkpoints"} {
		if !strings.Contains(styled, want) {
			t.Errorf("rendered markdown missing %q:\n%s", want, styled)
		}
	}
	if styled == plain {
		t.Error("styled output should be rendered, not the markdown source")
	}
}

func TestRun_Script(t *testing.T) {
	isolate(t)
	path := writeSample(t, "map.json")
	script := filepath.Join(t.TempDir(), "edit.mw")
	if err := os.WriteFile(script, []byte("# new branch\nadd 0 Scripted\nadd $ leaf\nflip $1 left\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := baseOptions(path)
	o.script = script
	_, stderr, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "Script ran 3 commands, added 2 nodes") {
		t.Errorf("stderr = %q", stderr)
	}

	records, err := loader.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if r := recordByText(t, records, "leaf"); r.Dir != string(model.DirLeft) {
		t.Errorf("leaf direction = %q, want left", r.Dir)
	}
}

func TestRun_ScriptFromStdin(t *testing.T) {
	isolate(t)
	path := writeSample(t, "map.jsonl")
	o := baseOptions(path)
	o.script = "-"
	o.dryRun = true

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), o, strings.NewReader("add 0\nbogus\n"), &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected error on line 2, got %v", err)
	}
}

func TestRun_DatabaseWithMirror(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "maps.db")
	mirror := filepath.Join(dir, "mirror.jsonl")
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("storage:\n  mirror:\n    - "+mirror+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := baseOptions("")
	o.db = db
	o.mapName = "plans"
	o.configPath = cfgPath
	o.addParent = 0
	o.text = "Stored"
	if _, _, err := runOpts(t, o); err != nil {
		t.Fatal(err)
	}

	records, err := loader.LoadFile(mirror)
	if err != nil {
		t.Fatalf("mirror not written: %v", err)
	}
	if len(records) != 21 {
		t.Errorf("mirror has %d records", len(records))
	}

	o = baseOptions("")
	o.db = db
	o.listMaps = true
	stdout, _, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "plans") || !strings.Contains(stdout, "21 nodes") {
		t.Errorf("list = %q", stdout)
	}
}

func TestRun_CheckMirrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	file := writeSample(t, "map.jsonl")
	mirror := filepath.Join(dir, "mirror.jsonl")
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("storage:\n  mirror:\n    - "+mirror+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := baseOptions(file)
	o.configPath = cfgPath
	o.addParent = 0
	o.text = "Mirrored"
	if _, _, err := runOpts(t, o); err != nil {
		t.Fatal(err)
	}

	o = baseOptions(file)
	o.configPath = cfgPath
	o.check = true
	stdout, _, err := runOpts(t, o)
	if err != nil {
		t.Fatalf("fresh mirror should match: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Sources match (21 nodes each)") {
		t.Errorf("report = %q", stdout)
	}

	records, err := loader.LoadFile(mirror)
	if err != nil {
		t.Fatal(err)
	}
	records[0].Text = "Drifted"
	if err := loader.SaveFile(mirror, records); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = runOpts(t, o)
	if err == nil {
		t.Fatal("expected an error for a drifted mirror")
	}
	if !strings.Contains(stdout, "Drifted") {
		t.Errorf("report should show the differing text: %q", stdout)
	}
}

func TestRun_ListMapsNeedsDatabase(t *testing.T) {
	isolate(t)
	o := baseOptions(writeSample(t, "map.jsonl"))
	o.listMaps = true
	if _, _, err := runOpts(t, o); err == nil {
		t.Fatal("expected error for -list-maps on a file")
	}
}

func TestRun_ValidateAndStats(t *testing.T) {
	isolate(t)
	o := baseOptions(writeSample(t, "map.jsonl"))
	o.validate = true
	o.stats = true
	stdout, _, err := runOpts(t, o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "ok: 20 nodes") {
		t.Errorf("validate output missing: %q", stdout)
	}
	if !strings.Contains(stdout, `"nodes": 20`) || !strings.Contains(stdout, `"left_branches": 2`) {
		t.Errorf("stats output = %q", stdout)
	}
}

func TestRun_MoveAndFlipErrors(t *testing.T) {
	isolate(t)
	path := writeSample(t, "map.jsonl")

	o := baseOptions(path)
	o.flip = 3
	o.dir = "up"
	if _, _, err := runOpts(t, o); err == nil || !strings.Contains(err.Error(), "-dir") {
		t.Errorf("expected -dir error, got %v", err)
	}

	o = baseOptions(path)
	o.setText = 3
	if _, _, err := runOpts(t, o); err == nil {
		t.Error("expected error for -set-text without -text")
	}

	o = baseOptions(path)
	o.remove = 999
	if _, _, err := runOpts(t, o); !errors.Is(err, model.ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestRun_MoveAcrossRoot(t *testing.T) {
	isolate(t)
	path := writeSample(t, "map.jsonl")
	o := baseOptions(path)
	o.move = "4 60 50"
	if _, _, err := runOpts(t, o); err != nil {
		t.Fatal(err)
	}
	records, _ := loader.LoadFile(path)
	for _, text := range []string{"Key issues", "Deadlines"} {
		if r := recordByText(t, records, text); r.Dir != string(model.DirRight) {
			t.Errorf("%s direction = %q", text, r.Dir)
		}
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in      string
		key     int
		loc     model.Point
		wantErr bool
	}{
		{"3 10 -5", 3, model.Point{X: 10, Y: -5}, false},
		{"  12 1.5 2.25 ", 12, model.Point{X: 1.5, Y: 2.25}, false},
		{"x 1 2", 0, model.Point{}, true},
		{"3", 0, model.Point{}, true},
		{"3 1", 0, model.Point{}, true},
		{"3 a b", 0, model.Point{}, true},
	}
	for _, tt := range tests {
		key, loc, err := parseMove(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMove(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (key != tt.key || loc != tt.loc) {
			t.Errorf("parseMove(%q) = %d %v", tt.in, key, loc)
		}
	}
}

func sampleTree(t *testing.T) *mindmap.Tree {
	t.Helper()
	tree, err := mindmap.Deserialize(mindmap.SampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestRenderOutline_Plain(t *testing.T) {
	out := renderOutline(sampleTree(t), outlineOptions{})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Mind Map") {
		t.Errorf("root line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "├─ Getting more time") {
		t.Errorf("first branch line = %q", lines[1])
	}
	if !strings.Contains(lines[1], " 1  right  77.00 -22.00") {
		t.Errorf("columns missing: %q", lines[1])
	}
	if !strings.Contains(out, "└─ Key issues") {
		t.Error("last branch should use the closing glyph")
	}
	if !strings.Contains(out, "│  └─ Simplify") {
		t.Error("nested rows should carry the parent's rail")
	}
}

func TestRenderOutline_Truncates(t *testing.T) {
	out := renderOutline(sampleTree(t), outlineOptions{Width: 40})
	if !strings.Contains(out, "…") {
		t.Errorf("expected truncated labels:\n%s", out)
	}
}

func TestExportMap(t *testing.T) {
	dir := t.TempDir()
	tree := sampleTree(t)
	for _, name := range []string{"m.svg", "m.png", "m.md", "m.mmd", "m.jsonl", "m.json"} {
		path := filepath.Join(dir, name)
		if err := exportMap(tree, path, ""); err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written", name)
		}
	}
	if err := exportMap(tree, filepath.Join(dir, "m.txt"), ""); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestCopyPasteThroughClipboard(t *testing.T) {
	var board string
	origW, origR := clipboardWrite, clipboardRead
	clipboardWrite = func(s string) error { board = s; return nil }
	clipboardRead = func() (string, error) { return board, nil }
	t.Cleanup(func() { clipboardWrite, clipboardRead = origW, origR })

	ed, err := mindmap.NewEditorFromRecords(mindmap.SampleRecords(), mindmap.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	n, err := copySubtree(ed, 4)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 || strings.Count(board, "\n") != 4 {
		t.Fatalf("copied %d nodes, clipboard %q", n, board)
	}
	keys, err := pasteSubtree(ed, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 4 {
		t.Fatalf("pasted %v", keys)
	}
	for _, k := range keys {
		if d := ed.Tree().Direction(k); d != model.DirRight {
			t.Errorf("pasted %d direction = %q", k, d)
		}
	}

	board = ""
	if _, err := pasteSubtree(ed, 2); err == nil {
		t.Error("expected error pasting an empty clipboard")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_WatchReprintsOnChange(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeSample(t, "map.jsonl")
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "watch:\n  force_poll: true\n  poll_interval: 20ms\n  debounce: 10ms\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	o := baseOptions(path)
	o.configPath = cfgPath
	o.print = true
	o.watch = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- run(ctx, o, strings.NewReader(""), &stdout, &stderr) }()

	time.Sleep(100 * time.Millisecond)
	records := append(mindmap.SampleRecords(), model.Record{
		Key: 5, ParentKey: model.IntPtr(0), Text: "Written elsewhere", Dir: string(model.DirRight), Brush: "gold", Loc: "120.00 80.00",
	})
	if err := loader.SaveFile(path, records); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(stdout.String(), "Written elsewhere") {
		if time.Now().After(deadline) {
			t.Fatalf("outline not reprinted; stderr=%q", stderr.String())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
