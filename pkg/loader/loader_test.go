package loader_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/model"
	"github.com/vanderheijden86/mindwork/pkg/testutil"
)

// =============================================================================
// FindMapPath Tests
// =============================================================================

func TestFindMapPath_NonExistentDirectory(t *testing.T) {
	_, err := loader.FindMapPath("/nonexistent/path/to/maps")
	if err == nil || !strings.Contains(err.Error(), "failed to read map directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestFindMapPath_NoMapFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(dir, "mindmap.jsonl.tmp-123"), []byte("{}"), 0644)

	_, err := loader.FindMapPath(dir)
	if err == nil || !strings.Contains(err.Error(), "no map file found") {
		t.Fatalf("expected no map file error, got %v", err)
	}
}

func TestFindMapPath_PrefersCanonicalName(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "aaa.jsonl"), []byte(`{"key":0}`), 0644)
	os.WriteFile(filepath.Join(dir, "mindmap.json"), []byte(`{}`), 0644)
	os.WriteFile(filepath.Join(dir, "mindmap.jsonl"), []byte(`{"key":0}`), 0644)

	path, err := loader.FindMapPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "mindmap.jsonl" {
		t.Errorf("expected mindmap.jsonl, got %s", path)
	}
}

func TestFindMapPath_SkipsEmptyCandidates(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.jsonl"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "b.jsonl"), []byte(`{"key":0}`), 0644)

	path, err := loader.FindMapPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "b.jsonl" {
		t.Errorf("expected the non-empty file, got %s", path)
	}
}

func TestGetMapDir_EnvOverride(t *testing.T) {
	t.Setenv(loader.MapDirEnvVar, "/custom/maps")
	dir, err := loader.GetMapDir("/repo")
	if err != nil || dir != "/custom/maps" {
		t.Errorf("GetMapDir = %q, %v", dir, err)
	}
	t.Setenv(loader.MapDirEnvVar, "")
	dir, _ = loader.GetMapDir("/repo")
	if dir != filepath.Join("/repo", ".mindwork") {
		t.Errorf("expected fallback dir, got %q", dir)
	}
}

// =============================================================================
// ParseRecords Tests
// =============================================================================

func TestParseRecords_Basic(t *testing.T) {
	input := "\xEF\xBB\xBF" + `{"key":0,"text":"Mind Map","loc":"0 0"}
{"key":1,"parentKey":0,"text":"A","brush":"coral","dir":"left","loc":"-77 10"}

{"key":2,"parentKey":1,"text":"B","dir":"left","loc":"-197 10","scale":1.21,"font":"bold 13px sans-serif"}
`
	records, err := loader.ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Key != 0 || records[0].HasParent() {
		t.Errorf("BOM not stripped or root mangled: %+v", records[0])
	}
	if records[1].ParentKey == nil || *records[1].ParentKey != 0 || records[1].Dir != "left" {
		t.Errorf("unexpected record %+v", records[1])
	}
	if records[2].Scale != 1.21 || records[2].Font != "bold 13px sans-serif" {
		t.Errorf("unexpected record %+v", records[2])
	}
}

func TestParseRecords_SkipsMalformedLines(t *testing.T) {
	var warnings []string
	input := `{"key":0,"text":"root"}
{not json
{"key":1,"parentKey":0,"dir":"right"}
`
	records, err := loader.ParseRecordsWithOptions(strings.NewReader(input), loader.ParseOptions{
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "line 2") {
		t.Errorf("expected one warning for line 2, got %v", warnings)
	}
}

func TestParseRecords_SkipsLongLines(t *testing.T) {
	var warnings []string
	long := `{"key":5,"text":"` + strings.Repeat("x", 200) + `"}`
	input := `{"key":0}` + "\n" + long + "\n" + `{"key":1,"parentKey":0}` + "\n"
	records, err := loader.ParseRecordsWithOptions(strings.NewReader(input), loader.ParseOptions{
		BufferSize:     64,
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[1].Key != 1 {
		t.Errorf("expected the long line skipped, got %+v", records)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "too long") {
		t.Errorf("unexpected warnings %v", warnings)
	}
}

func TestWriteRecords_ParseBack(t *testing.T) {
	records := testutil.GenerateRecords(testutil.DefaultConfig())
	var buf bytes.Buffer
	if err := loader.WriteRecords(&buf, records); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != len(records) {
		t.Errorf("expected %d lines, got %d", len(records), n)
	}
	if strings.Contains(strings.SplitN(buf.String(), "\n", 2)[0], "parentKey") {
		t.Error("the root record must not carry parentKey")
	}
	back, err := loader.ParseRecords(&buf)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertRecordsEqual(t, back, records)
}

// =============================================================================
// Document Tests
// =============================================================================

const sampleDocument = `{ "class": "go.TreeModel",
  "nodeDataArray": [
    {"key":0, "text":"Mind Map", "loc":"0 0"},
    {"key":1, "parent":0, "text":"Getting more time", "brush":"skyblue", "loc":"77 -22"},
    {"key":11, "parent":1, "text":"Wake up early", "brush":"skyblue", "loc":"200 -48"},
    {"key":3, "parent":0, "text":"Time wasting", "brush":"palevioletred", "dir":"left", "loc":"-20 -31.75"},
    {"key":31, "parent":3, "text":"Too many meetings", "brush":"palevioletred", "loc":"-117 -64.25"}
  ]
}`

func TestParseDocument(t *testing.T) {
	records, err := loader.ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	want := map[int]string{0: "", 1: "right", 11: "right", 3: "left", 31: "left"}
	for _, r := range records {
		if r.Dir != want[r.Key] {
			t.Errorf("record %d: expected dir %q, got %q", r.Key, want[r.Key], r.Dir)
		}
	}
	if records[2].ParentKey == nil || *records[2].ParentKey != 1 {
		t.Errorf("parent field not mapped: %+v", records[2])
	}
}

func TestParseDocument_Errors(t *testing.T) {
	if _, err := loader.ParseDocument([]byte(`{"class":"go.GraphLinksModel","nodeDataArray":[]}`)); err == nil {
		t.Error("expected an error for a foreign model class")
	}
	if _, err := loader.ParseDocument([]byte(`[1,2`)); err == nil {
		t.Error("expected an error for broken JSON")
	}
}

func TestParseDocument_AcceptsParentKey(t *testing.T) {
	records, err := loader.ParseDocument([]byte(`{"nodeDataArray":[{"key":0},{"key":4,"parentKey":0,"dir":"left"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if records[1].ParentKey == nil || *records[1].ParentKey != 0 || records[1].Dir != "left" {
		t.Errorf("unexpected record %+v", records[1])
	}
}

func TestParseRecords_DefaultScaleIsCanonical(t *testing.T) {
	input := `{"key":0,"text":"root","loc":"0 0","scale":1}
{"key":1,"parentKey":0,"text":"A","dir":"right","loc":"80 0","scale":1.1}
`
	records, err := loader.ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Scale != 0 || records[1].Scale != 1.1 {
		t.Errorf("scales = %v, %v; want 0, 1.1", records[0].Scale, records[1].Scale)
	}
}

func TestParseDocument_MissingLocations(t *testing.T) {
	records, err := loader.ParseDocument([]byte(`{"nodeDataArray":[
		{"key":2,"parent":1,"text":"leaf"},
		{"key":0,"text":"root"},
		{"key":1,"parent":0,"text":"branch","loc":"80 10"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]string{0: "0.00 0.00", 1: "80 10", 2: "80 10"}
	for _, r := range records {
		if r.Loc != want[r.Key] {
			t.Errorf("record %d: expected loc %q, got %q", r.Key, want[r.Key], r.Loc)
		}
	}
}

// =============================================================================
// File Tests
// =============================================================================

func TestSaveLoadFile_BothFormats(t *testing.T) {
	records := testutil.GenerateRecords(testutil.GeneratorConfig{Seed: 7, Nodes: 25, MaxFanout: 3})
	dir := t.TempDir()
	for _, name := range []string{"map.jsonl", "nested/map.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := loader.SaveFile(path, records); err != nil {
				t.Fatalf("SaveFile: %v", err)
			}
			back, err := loader.LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			testutil.AssertRecordsEqual(t, back, records)

			entries, _ := os.ReadDir(filepath.Dir(path))
			for _, e := range entries {
				if strings.Contains(e.Name(), ".tmp-") {
					t.Errorf("temp file left behind: %s", e.Name())
				}
			}
		})
	}
}

func TestSaveFile_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	records := []model.Record{
		{Key: 0, Text: "root", Loc: "0.00 0.00"},
		{Key: 1, ParentKey: model.IntPtr(0), Text: "A", Dir: "right", Loc: "120.00 0.00"},
	}
	if err := loader.SaveFile(path, records); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"class": "go.TreeModel"`) || !strings.Contains(s, `"parent": 0`) {
		t.Errorf("unexpected document:\n%s", s)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err == nil || !strings.Contains(err.Error(), "no mind map found") {
		t.Errorf("expected missing file error, got %v", err)
	}
}

func TestIsMapFile(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jsonl": true, "B.JSON": true, "c.db": false, "d": false,
	} {
		if got := loader.IsMapFile(name); got != want {
			t.Errorf("IsMapFile(%q) = %v", name, got)
		}
	}
}
