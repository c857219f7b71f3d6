package export_test

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/mindwork/pkg/export"
	"github.com/vanderheijden86/mindwork/pkg/mindmap"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

func sampleTree(t *testing.T) *mindmap.Tree {
	t.Helper()
	tree, err := mindmap.Deserialize(mindmap.SampleRecords())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	return tree
}

func TestGenerateMarkdown_Sample(t *testing.T) {
	md, err := export.GenerateMarkdown(sampleTree(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md, "# Mind Map\n") {
		t.Errorf("missing root heading:\n%s", md)
	}
	right := strings.Index(md, "## Right")
	left := strings.Index(md, "## Left")
	if right < 0 || left < 0 || right > left {
		t.Fatalf("expected Right section before Left:\n%s", md)
	}
	for _, want := range []string{
		"- Getting more time\n  - Wake up early\n",
		"  - Planning\n    - Priorities\n",
		"- Time wasting\n  - Too many meetings\n    - Check messages less\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("outline missing %q:\n%s", want, md)
		}
	}
	if strings.Index(md, "Time wasting") < left {
		t.Error("left branch rendered in the Right section")
	}
}

func TestGenerateMarkdown_EscapesAndBold(t *testing.T) {
	tree := mindmap.NewTree("a_b *c*")
	h := mindmap.NewHistory(tree)
	if err := h.Begin("add"); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.AddNode(model.RootKey, model.Attrs{Text: "loud", Font: "bold 13px sans-serif"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Commit(); err != nil {
		t.Fatal(err)
	}

	md, err := export.GenerateMarkdown(tree)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md, `# a\_b \*c\*`) {
		t.Errorf("heading not escaped:\n%s", md)
	}
	if !strings.Contains(md, "- **loud**\n") {
		t.Errorf("bold node not emphasised:\n%s", md)
	}
	if strings.Contains(md, "## Left") {
		t.Errorf("empty side should be omitted:\n%s", md)
	}
}

func TestSaveMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.md")
	if err := export.SaveMarkdown(sampleTree(t), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("Message filters")) {
		t.Error("saved outline is incomplete")
	}
}

func TestGenerateMermaid(t *testing.T) {
	out, err := export.GenerateMermaid(sampleTree(t))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if lines[0] != "mindmap" {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[1] != "  n0((Mind Map))" {
		t.Errorf("root line = %q", lines[1])
	}
	if lines[2] != "    n1[Getting more time]" {
		t.Errorf("first branch line = %q", lines[2])
	}
	if len(lines) != 1+len(mindmap.SampleRecords()) {
		t.Errorf("expected one line per node, got %d", len(lines)-1)
	}
	if !strings.Contains(out, "        n211[Priorities]\n") {
		t.Errorf("depth-3 node not indented:\n%s", out)
	}
}

func TestGenerateMermaid_SanitizesText(t *testing.T) {
	tree := mindmap.NewTree(`say "hi" [now] (ok)`)
	out, err := export.GenerateMermaid(tree)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "n0((say 'hi' now ok))") {
		t.Errorf("unexpected root line:\n%s", out)
	}
}

func TestWriteSVG_ValidXML(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, sampleTree(t), "Planning <draft>"); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		XMLName xml.Name
		Rects   []struct{} `xml:"rect"`
		Lines   []struct{} `xml:"line"`
		Texts   []string   `xml:"text"`
	}
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("SVG is not valid XML: %v", err)
	}
	if doc.XMLName.Local != "svg" {
		t.Errorf("root element = %q", doc.XMLName.Local)
	}
	n := len(mindmap.SampleRecords())
	if len(doc.Lines) != n-1 {
		t.Errorf("expected %d links, got %d", n-1, len(doc.Lines))
	}
	if len(doc.Texts) < n+2 {
		t.Errorf("expected title, summary and %d labels, got %d texts", n, len(doc.Texts))
	}
	if doc.Texts[0] != "Planning <draft>" {
		t.Errorf("title = %q", doc.Texts[0])
	}
	if !strings.Contains(doc.Texts[1], "nodes: 20") {
		t.Errorf("summary = %q", doc.Texts[1])
	}
	if !strings.Contains(buf.String(), "fill:#87ceeb") {
		t.Error("skyblue brush not used")
	}
}

func TestSaveSnapshot_Formats(t *testing.T) {
	dir := t.TempDir()
	tree := sampleTree(t)

	tests := []struct {
		name   string
		opts   export.SnapshotOptions
		magic  []byte
		hasErr bool
	}{
		{"svg by extension", export.SnapshotOptions{Path: filepath.Join(dir, "a.svg")}, []byte("<?xml"), false},
		{"png by extension", export.SnapshotOptions{Path: filepath.Join(dir, "b.png")}, []byte("\x89PNG"), false},
		{"explicit format", export.SnapshotOptions{Path: filepath.Join(dir, "nested", "c.out"), Format: ".PNG"}, []byte("\x89PNG"), false},
		{"unknown extension", export.SnapshotOptions{Path: filepath.Join(dir, "d.gif")}, nil, true},
		{"unknown format", export.SnapshotOptions{Path: filepath.Join(dir, "e.svg"), Format: "pdf"}, nil, true},
		{"no path", export.SnapshotOptions{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := export.SaveSnapshot(tree, tt.opts)
			if tt.hasErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(tt.opts.Path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(data, tt.magic) {
				t.Errorf("unexpected header %q", data[:min(8, len(data))])
			}
		})
	}
}
