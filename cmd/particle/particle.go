package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/particle.report/internal/config"
	"github.com/banshee-data/particle.report/internal/db"
	"github.com/banshee-data/particle.report/internal/fsutil"
	"github.com/banshee-data/particle.report/internal/monitoring"
	"github.com/banshee-data/particle.report/internal/particle/l1grid"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
	"github.com/banshee-data/particle.report/internal/particle/monitor"
	"github.com/banshee-data/particle.report/internal/particle/pipeline"
	"github.com/banshee-data/particle.report/internal/version"
)

// options holds the parsed command line.
type options struct {
	gridPath    string
	configPath  string
	reach       int
	reachSet    bool
	dbPath      string
	pngPath     string
	listen      string
	debug       bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("particle", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.gridPath, "grid", "", "Path to a whitespace-separated energy grid (required)")
	fs.StringVar(&o.configPath, "config", "", "Path to a JSON tuning config (defaults built in)")
	fs.IntVar(&o.reach, "reach", 0, "Neighbour reach in cells; overrides the config")
	fs.StringVar(&o.dbPath, "db", "", "Persist the run to this sqlite database")
	fs.StringVar(&o.pngPath, "png", "", "Render tracks to this PNG path")
	fs.StringVar(&o.listen, "listen", "", "Serve charts and the JSON API on this address")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "reach" {
			o.reachSet = true
		}
	})
	if !o.showVersion && o.gridPath == "" {
		return nil, errors.New("-grid is required")
	}
	return o, nil
}

func loadConfig(fsys fsutil.FileSystem, o *options) (*config.TuningConfig, error) {
	cfg := config.EmptyTuningConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfigFS(fsys, o.configPath); err != nil {
			return nil, err
		}
	}
	// A reach below 1 from the command line is clamped by the extractor.
	if o.reachSet {
		cfg = cfg.WithReach(o.reach)
	}
	return cfg, nil
}

// printTally writes one line per particle type in display order.
func printTally(w io.Writer, tally map[l3objects.PartType]int) {
	for _, pt := range l3objects.AllPartTypes {
		fmt.Fprintf(w, "%-8s %d\n", pt.String()+":", tally[pt])
	}
}

func persist(store *db.RunStore, source string, res *pipeline.Result) (*db.Run, error) {
	run := &db.Run{
		Source:     source,
		Reach:      res.Reach,
		Rows:       res.Grid.Rows(),
		Cols:       res.Grid.Cols(),
		TrackCount: len(res.Particles),
		Model:      res.Model,
	}
	if err := store.InsertRun(run); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	tracks := make([]l3objects.Summary, len(res.Particles))
	for i, p := range res.Particles {
		tracks[i] = p.Summarize(res.Grid, true)
	}
	if err := store.InsertTracks(run.RunID, tracks); err != nil {
		return nil, fmt.Errorf("failed to insert tracks: %w", err)
	}
	return run, nil
}

// renderPNGs writes one combined image, or one image per track in single
// mode (path-<id>.png).
func renderPNGs(fsys fsutil.FileSystem, path string, cfg *config.TuningConfig, res *pipeline.Result) error {
	r := monitor.NewRenderer(cfg.GetRenderScale())
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if cfg.GetRenderMode() != config.RenderSingle {
		view := monitor.NewViewer(len(res.Particles), monitor.Combined)
		return r.SavePNG(fsys, path, res, view.Visible())
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for i, p := range res.Particles {
		out := fmt.Sprintf("%s-%d.png", base, p.ID())
		if err := r.SavePNG(fsys, out, res, []int{i}); err != nil {
			return err
		}
	}
	return nil
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("serving on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	return nil
}

// runMigrate handles "particle migrate -db <path> <action> [version]".
func runMigrate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("particle migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "particles.db", "Path to the sqlite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, fsys fsutil.FileSystem) error {
	if len(args) > 0 && args[0] == "migrate" {
		return runMigrate(args[1:], stdout, stderr)
	}

	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.String("particle"))
		return nil
	}
	monitoring.EnableDebug(o.debug)

	cfg, err := loadConfig(fsys, o)
	if err != nil {
		return err
	}
	grid, err := l1grid.LoadFile(fsys, o.gridPath)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, grid, cfg)
	if err != nil {
		return err
	}
	printTally(stdout, res.Tally)

	var runs monitor.RunReader
	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		store := db.NewRunStore(database)
		saved, err := persist(store, o.gridPath, res)
		if err != nil {
			return err
		}
		monitoring.Logf("saved run %s (%d tracks)", saved.RunID, saved.TrackCount)
		runs = store
	}

	if o.pngPath != "" {
		if err := renderPNGs(fsys, o.pngPath, cfg, res); err != nil {
			return err
		}
	}

	if o.listen != "" {
		mode, err := monitor.ParseMode(cfg.GetRenderMode())
		if err != nil {
			return err
		}
		view := monitor.NewViewer(len(res.Particles), mode)
		srv := monitor.NewServer(res, view, monitor.NewRenderer(cfg.GetRenderScale()), runs)
		return serve(ctx, o.listen, srv)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, fsutil.OSFileSystem{})
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("particle: %v", err)
	}
}
