package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/model"
)

// SnapshotOptions controls snapshot export.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format is empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string // Header title; defaults to the root text
}

const (
	charWidth   = 7.0 // basicfont.Face7x13 advance
	boxHeight   = 22.0
	boxPadX     = 6.0
	maxLabel    = 15
	padding     = 36.0
	headerH     = 72.0
	minWidth    = 320
	minHeight   = 200
	baseFontPx  = 13.0
	cornerRound = 6.0
)

// SaveSnapshot draws the tree at its stored locations into an SVG or PNG
// file. Locations are used as box centres; nothing is relaid.
func SaveSnapshot(src Source, opts SnapshotOptions) error {
	if opts.Path == "" {
		return errors.New("output path is required")
	}
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg", "":
			format = "svg"
		default:
			return fmt.Errorf("cannot infer snapshot format from %q (want .svg or .png)", opts.Path)
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	sc, err := buildScene(src, opts.Title)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	if format == "png" {
		return renderPNG(opts.Path, sc)
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := renderSVG(f, sc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSVG writes an SVG snapshot of src to w.
func WriteSVG(w io.Writer, src Source, title string) error {
	sc, err := buildScene(src, title)
	if err != nil {
		return err
	}
	return renderSVG(w, sc)
}

// --- scene -----------------------------------------------------------------

type box struct {
	Key   int
	Label string
	X, Y  float64 // top-left in canvas coordinates
	W, H  float64
	Fill  color.RGBA
	Font  float64
	Bold  bool
	Root  bool
}

type link struct {
	X1, Y1, X2, Y2 float64
	Stroke         color.RGBA
}

type scene struct {
	Boxes  []box
	Links  []link
	Width  int
	Height int
	Title  string
	Stats  analysis.Stats
}

func buildScene(src Source, title string) (scene, error) {
	items, err := walk(src)
	if err != nil {
		return scene{}, err
	}

	nodes := make([]model.Node, len(items))
	boxes := make([]box, len(items))
	index := make(map[int]int, len(items))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, it := range items {
		n := it.node
		nodes[i] = n
		index[n.Key] = i
		label := truncate(n.Text, maxLabel)
		w := float64(len([]rune(label)))*charWidth + 2*boxPadX
		fill := brushColor(n.Brush)
		if n.IsRoot() && n.Brush == "" {
			fill = colorRootFill
		}
		scale := n.Scale
		if scale <= 0 {
			scale = model.DefaultScale
		}
		b := box{
			Key:   n.Key,
			Label: label,
			X:     n.Loc.X - w/2,
			Y:     n.Loc.Y - boxHeight/2,
			W:     w,
			H:     boxHeight,
			Fill:  fill,
			Font:  baseFontPx * scale,
			Bold:  strings.Contains(n.Font, "bold"),
			Root:  n.IsRoot(),
		}
		boxes[i] = b
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}

	dx := padding - minX
	dy := padding + headerH - minY
	for i := range boxes {
		boxes[i].X += dx
		boxes[i].Y += dy
	}

	var links []link
	for _, it := range items[1:] {
		c := boxes[index[it.node.Key]]
		p := boxes[index[it.node.Parent]]
		l := link{Y1: p.Y + p.H/2, Y2: c.Y + c.H/2, Stroke: brushColor(it.node.Brush)}
		if it.node.Dir == model.DirLeft {
			l.X1, l.X2 = p.X, c.X+c.W
		} else {
			l.X1, l.X2 = p.X+p.W, c.X
		}
		links = append(links, l)
	}

	if strings.TrimSpace(title) == "" {
		title = items[0].node.Text
	}
	width := max(int(math.Ceil(maxX-minX+2*padding)), minWidth)
	height := max(int(math.Ceil(maxY-minY+2*padding+headerH)), minHeight)

	return scene{
		Boxes:  boxes,
		Links:  links,
		Width:  width,
		Height: height,
		Title:  title,
		Stats:  analysis.ComputeStats(nodes),
	}, nil
}

func summaryLine(s analysis.Stats) string {
	return fmt.Sprintf("nodes: %d  depth: %d  left: %d  right: %d",
		s.Nodes, s.Depth, s.LeftBranches, s.RightBranches)
}

// --- rendering -------------------------------------------------------------

func renderSVG(w io.Writer, sc scene) error {
	canvas := svg.New(w)
	canvas.Start(sc.Width, sc.Height)
	canvas.Rect(0, 0, sc.Width, sc.Height, "fill:"+css(colorBackdrop))
	canvas.Roundrect(16, 16, sc.Width-32, int(headerH-24), 10, 10, "fill:"+css(colorHeaderBG))
	canvas.Text(32, 40, sc.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 58, summaryLine(sc.Stats), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	for _, l := range sc.Links {
		canvas.Line(int(l.X1), int(l.Y1), int(l.X2), int(l.Y2),
			fmt.Sprintf("stroke:%s;stroke-width:2", css(l.Stroke)))
	}
	for _, b := range sc.Boxes {
		style := fmt.Sprintf("fill:%s", css(b.Fill))
		if b.Root {
			style += fmt.Sprintf(";stroke:%s;stroke-width:1.5", css(colorStroke))
		}
		canvas.Roundrect(int(b.X), int(b.Y), int(b.W), int(b.H), int(cornerRound), int(cornerRound), style)

		text := fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace;text-anchor:middle", css(colorText), b.Font)
		if b.Bold {
			text += ";font-weight:bold"
		}
		canvas.Text(int(b.X+b.W/2), int(b.Y+b.H/2+4), b.Label, text)
	}
	canvas.End()
	return nil
}

func renderPNG(path string, sc scene) error {
	dc := gg.NewContext(sc.Width, sc.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(sc.Width)-32, headerH-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(sc.Title, 32, 36, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(summaryLine(sc.Stats), 32, 54, 0, 0.5)

	dc.SetLineWidth(2)
	for _, l := range sc.Links {
		dc.SetColor(l.Stroke)
		dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
		dc.Stroke()
	}
	for _, b := range sc.Boxes {
		dc.SetColor(b.Fill)
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, cornerRound)
		dc.Fill()
		if b.Root {
			dc.SetColor(colorStroke)
			dc.SetLineWidth(1.5)
			dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, cornerRound)
			dc.Stroke()
			dc.SetLineWidth(2)
		}
		dc.SetColor(colorText)
		dc.DrawStringAnchored(b.Label, b.X+b.W/2, b.Y+b.H/2, 0.5, 0.5)
	}
	return dc.SavePNG(path)
}
