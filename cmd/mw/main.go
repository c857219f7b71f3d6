// Command mw edits mind-map files from the command line: it adds, removes,
// moves and flips branches, relays the map out, runs edit scripts, and
// prints or exports the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/mindwork/internal/datasource"
	"github.com/vanderheijden86/mindwork/pkg/analysis"
	"github.com/vanderheijden86/mindwork/pkg/command"
	"github.com/vanderheijden86/mindwork/pkg/config"
	"github.com/vanderheijden86/mindwork/pkg/loader"
	"github.com/vanderheijden86/mindwork/pkg/metrics"
	"github.com/vanderheijden86/mindwork/pkg/model"
	"github.com/vanderheijden86/mindwork/pkg/version"
)

// noKey marks an unset key flag; real keys are never negative.
const noKey = -1

type options struct {
	file, db, mapName, configPath string

	script     string
	addParent  int
	text       string
	setText    int
	remove     int
	move       string
	flip       int
	dir        string
	layout     bool
	layoutNode int
	copyKey    int
	pasteKey   int

	dryRun   bool
	print    bool
	format   string
	plain    bool
	stats    bool
	records  bool
	validate bool
	export   string
	title    string
	listMaps bool
	check    bool
	watch    bool
}

func main() {
	var o options
	flag.StringVar(&o.file, "file", "", "Map file (.jsonl or .json); defaults to the configured path or .mindwork/")
	flag.StringVar(&o.db, "db", "", "SQLite database holding named maps (\"-\" for the default database)")
	flag.StringVar(&o.mapName, "map", "", "Map name inside -db (default \"default\")")
	flag.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/mindwork/config.yaml)")
	flag.StringVar(&o.script, "script", "", "Run an edit script (\"-\" reads stdin)")
	flag.IntVar(&o.addParent, "add", noKey, "Add a child under KEY")
	flag.StringVar(&o.text, "text", "", "Text for -add or -set-text")
	flag.IntVar(&o.setText, "set-text", noKey, "Replace the text of KEY with -text")
	flag.IntVar(&o.remove, "remove", noKey, "Remove the subtree at KEY")
	flag.StringVar(&o.move, "move", "", "Drop KEY at a location: \"KEY X Y\"")
	flag.IntVar(&o.flip, "flip", noKey, "Move the branch at KEY to the side given by -dir")
	flag.StringVar(&o.dir, "dir", "", "Side for -flip: left or right")
	flag.BoolVar(&o.layout, "layout", false, "Relayout the whole map")
	flag.IntVar(&o.layoutNode, "layout-node", noKey, "Relayout the subtree at KEY")
	flag.IntVar(&o.copyKey, "copy", noKey, "Copy the subtree at KEY to the clipboard")
	flag.IntVar(&o.pasteKey, "paste", noKey, "Paste the clipboard subtree under KEY")
	flag.BoolVar(&o.dryRun, "dry-run", false, "Apply edits in memory only")
	flag.BoolVar(&o.print, "print", false, "Print the map as an outline")
	flag.StringVar(&o.format, "format", "outline", "Format for -print: outline or md")
	flag.BoolVar(&o.plain, "plain", false, "Never colour the outline")
	flag.BoolVar(&o.stats, "stats", false, "Print map statistics as JSON")
	flag.BoolVar(&o.records, "records", false, "Print the map as JSONL records")
	flag.BoolVar(&o.validate, "validate", false, "Check the map and report problems")
	flag.StringVar(&o.export, "export", "", "Export to .svg, .png, .md, .mmd, .jsonl or .json")
	flag.StringVar(&o.title, "title", "", "Title for -export snapshots")
	flag.BoolVar(&o.listMaps, "list-maps", false, "List the maps stored in -db")
	flag.BoolVar(&o.check, "check-mirrors", false, "Compare the map with every configured mirror")
	flag.BoolVar(&o.watch, "watch", false, "Reload and reprint when the map changes; with -layout, keep it laid out")
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	showMetrics := flag.Bool("metrics", false, "Print timing metrics to stderr on exit")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("mw %s\n", version.String())
		os.Exit(0)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}
	if *showMetrics {
		metrics.SetEnabled(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, o, os.Stdin, os.Stdout, os.Stderr)
	stop()

	if *showMetrics {
		printMetrics(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	cfg, err := config.Load()
	if err != nil {
		// A broken user config should not block editing.
		warnf(fmt.Sprintf("ignoring config: %v", err))
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func run(ctx context.Context, o options, stdin io.Reader, stdout, stderr io.Writer) error {
	switch o.format {
	case "", "outline", "md", "markdown":
	default:
		return fmt.Errorf("-format %q: want outline or md", o.format)
	}
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	path, err := resolveMapPath(o.file, o.db, cfg)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, path, o.mapName, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if o.listMaps {
		return listMaps(ctx, s, stdout)
	}
	if o.check {
		report, err := s.checkMirrors(ctx)
		fmt.Fprint(stdout, report)
		return err
	}
	if s.fresh {
		fmt.Fprintf(stderr, "No map at %s; starting from the sample map.\n", s.store)
	}

	if err := applyEdits(ctx, s, o, stdin, stderr); err != nil {
		return err
	}

	if !o.dryRun {
		saved, err := s.save(ctx, false)
		if err != nil {
			return err
		}
		if saved {
			fmt.Fprintf(stderr, "Saved %d nodes to %s\n", s.editor.Tree().Len(), s.store)
		}
	}

	if err := writeOutputs(s, o, stdout, stderr); err != nil {
		return err
	}

	if o.watch {
		return watchMap(ctx, s, cfg.Watch, o.layout, stderr, func() {
			if err := writeOutputs(s, o, stdout, stderr); err != nil {
				fmt.Fprintf(stderr, "Output failed: %v\n", err)
			}
		})
	}
	return nil
}

// applyEdits runs the edit flags in a fixed order: script, add, set-text,
// remove, move, flip, paste, copy, layout-node, layout. Each is its own
// undo step.
func applyEdits(ctx context.Context, s *session, o options, stdin io.Reader, stderr io.Writer) error {
	ed := s.editor

	if o.script != "" {
		var src io.Reader = stdin
		if o.script != "-" {
			f, err := os.Open(o.script)
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			defer f.Close()
			src = f
		}
		res, err := command.Run(ctx, ed, src)
		if err != nil {
			return fmt.Errorf("script %s: %w", o.script, err)
		}
		fmt.Fprintf(stderr, "Script ran %d commands, added %d nodes\n", res.Executed, len(res.Added))
	}

	if o.addParent != noKey {
		key, loc, err := ed.AddChild(o.addParent, o.text)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Added node %d at %s\n", key, loc)
	}
	if o.setText != noKey {
		if o.text == "" {
			return errors.New("-set-text needs -text")
		}
		if err := ed.SetText(o.setText, o.text); err != nil {
			return err
		}
	}
	if o.remove != noKey {
		if err := ed.RemoveSubtree(o.remove); err != nil {
			return err
		}
	}
	if o.move != "" {
		key, loc, err := parseMove(o.move)
		if err != nil {
			return err
		}
		if err := ed.Move(key, loc); err != nil {
			return err
		}
	}
	if o.flip != noKey {
		dir, err := model.ParseDirection(o.dir)
		if err != nil || !dir.IsValid() {
			return fmt.Errorf("-flip needs -dir left or -dir right")
		}
		if err := ed.Flip(o.flip, dir); err != nil {
			return err
		}
	}
	if o.pasteKey != noKey {
		keys, err := pasteSubtree(ed, o.pasteKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Pasted %d nodes under %d\n", len(keys), o.pasteKey)
	}
	if o.copyKey != noKey {
		n, err := copySubtree(ed, o.copyKey)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Copied %d nodes\n", n)
	}
	if o.layoutNode != noKey {
		if err := ed.LayoutNode(o.layoutNode); err != nil {
			return err
		}
	}
	if o.layout {
		if err := ed.RelayoutAll(); err != nil {
			return err
		}
	}
	return nil
}

// parseMove parses the -move argument "KEY X Y".
func parseMove(s string) (int, model.Point, error) {
	key, rest, _ := strings.Cut(strings.TrimSpace(s), " ")
	k, err := strconv.Atoi(key)
	if err != nil {
		return 0, model.Point{}, fmt.Errorf("-move %q: want \"KEY X Y\"", s)
	}
	loc, err := model.ParsePoint(rest)
	if err != nil || strings.TrimSpace(rest) == "" {
		return 0, model.Point{}, fmt.Errorf("-move %q: want \"KEY X Y\"", s)
	}
	return k, loc, nil
}

func writeOutputs(s *session, o options, stdout, stderr io.Writer) error {
	tree := s.editor.Tree()

	if o.validate {
		if err := analysis.Validate(tree.Nodes()); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "ok: %d nodes\n", tree.Len())
	}
	if o.print {
		opts := outlineOptions{}
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			opts.Styled = !o.plain
			if w, _, err := term.GetSize(int(f.Fd())); err == nil {
				opts.Width = w
			}
		}
		if o.format == "md" || o.format == "markdown" {
			out, err := renderMarkdown(tree, opts)
			if err != nil {
				return err
			}
			fmt.Fprint(stdout, out)
		} else {
			fmt.Fprint(stdout, renderOutline(tree, opts))
		}
	}
	if o.records {
		if err := loader.WriteRecords(stdout, s.records()); err != nil {
			return err
		}
	}
	if o.stats {
		data, err := json.MarshalIndent(analysis.ComputeStats(tree.Nodes()), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
	}
	if o.export != "" {
		if err := exportMap(tree, o.export, o.title); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Exported to %s\n", o.export)
	}
	return nil
}

func listMaps(ctx context.Context, s *session, stdout io.Writer) error {
	db, ok := s.store.(*datasource.SQLiteStore)
	if !ok {
		return fmt.Errorf("-list-maps needs -db (have %s)", s.store)
	}
	maps, err := db.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range maps {
		fmt.Fprintf(stdout, "%-20s %5d nodes  %s\n", m.Name, m.Nodes, m.SavedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printMetrics(w io.Writer) {
	data, err := json.MarshalIndent(metrics.AllTimingStats(), "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s\n", data)
}
