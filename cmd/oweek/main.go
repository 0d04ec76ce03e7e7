package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"oweek/internal/aggregate"
	"oweek/internal/config"
	"oweek/internal/csvload"
	"oweek/internal/export"
	appLog "oweek/internal/log"
	"oweek/internal/model"
	"oweek/internal/normalize"
	"oweek/internal/resolve"
	"oweek/internal/validate"
	"oweek/internal/web"
)

type flagConfig struct {
	configPath string
	eventsDir  string
	outDir     string
	cronSpec   string
	listen     string
}

func main() {
	flags := parseFlags()
	appLog.Info("oweek starting", "config", flags.configPath, "events", flags.eventsDir, "out", flags.outDir)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	tables, err := resolve.NewTables(cfg)
	if err != nil {
		appLog.Error("bad name configuration", err)
		os.Exit(1)
	}

	build := func() error {
		return runBuild(cfg, tables, flags)
	}

	if flags.cronSpec == "" && flags.listen == "" {
		if err := build(); err != nil {
			appLog.Error("build failed", err)
			os.Exit(1)
		}
		return
	}

	// Long-running mode: one immediate build so the output directory is
	// never stale, then scheduled rebuilds and/or the preview server
	// until interrupted.
	if err := build(); err != nil {
		appLog.Error("initial build failed", err)
	}

	var c *cron.Cron
	if flags.cronSpec != "" {
		c = cron.New()
		if _, err := c.AddFunc(flags.cronSpec, func() {
			if err := build(); err != nil {
				appLog.Error("scheduled build failed", err)
			}
		}); err != nil {
			appLog.Error("invalid cron spec", err, "cron", flags.cronSpec)
			os.Exit(1)
		}
		c.Start()
		appLog.Info("scheduled rebuilds enabled", "cron", flags.cronSpec)
	}

	if flags.listen != "" {
		srv := web.NewServer(flags.outDir)
		go func() {
			if err := srv.ListenAndServe(flags.listen); err != nil {
				appLog.Error("preview server failed", err)
				os.Exit(1)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLog.Info("signal received, shutting down", "signal", sig.String())
	if c != nil {
		<-c.Stop().Done()
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.eventsDir, "events", "events", "Directory containing event CSV files")
	flag.StringVar(&cfg.outDir, "out", "output", "Output directory")
	flag.StringVar(&cfg.cronSpec, "cron", "", "Optional cron spec for scheduled rebuilds (e.g. \"*/15 * * * *\")")
	flag.StringVar(&cfg.listen, "listen", "", "Optional address for the output preview server (e.g. 127.0.0.1:8080)")
	flag.Parse()
	return cfg
}

// runBuild executes one full pipeline pass: load rows, normalize,
// validate, aggregate and write the three output documents.
func runBuild(cfg *config.Config, tables *resolve.Tables, flags flagConfig) error {
	started := time.Now()

	rows, err := loadRows(cfg, flags.eventsDir)
	if err != nil {
		return err
	}

	norm := normalize.New(cfg, tables)
	events := make([]model.Event, 0, len(rows))
	var normProblems []model.Problem
	for i, row := range rows {
		ev, problems := norm.Row(row, i+1)
		events = append(events, ev)
		normProblems = append(normProblems, problems...)
	}

	problems := validate.New(cfg, tables).Run(events, normProblems)
	out := aggregate.Build(cfg, tables, events, problems, time.Now().In(cfg.CSV.Location))

	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(flags.outDir, "api.json"), func(f *os.File) error {
		return export.WriteAPIJSON(f, out, tables)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(flags.outDir, "booklet.ics"), func(f *os.File) error {
		return export.WriteICS(f, out, tables)
	}); err != nil {
		return err
	}
	report := export.BuildReport(out, events, tables)
	if err := writeFile(filepath.Join(flags.outDir, "problems.json"), func(f *os.File) error {
		return export.WriteProblems(f, report)
	}); err != nil {
		return err
	}

	appLog.Info("build complete",
		"rows", len(rows),
		"feed_events", len(out.Feed),
		"booklet_events", len(out.Booklet),
		"problems", len(out.Problems),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return nil
}

// loadRows reads the orientation file (when configured) followed by every
// other CSV in the events directory, sorted by name so row ordinals are
// stable across runs.
func loadRows(cfg *config.Config, eventsDir string) ([]model.RawRow, error) {
	var rows []model.RawRow

	orientationBase := filepath.Base(cfg.Orientation.FileName)
	if cfg.Orientation.FileName != "" {
		path := filepath.Join(eventsDir, orientationBase)
		loaded, err := csvload.ReadFile(path, true)
		if err != nil {
			return nil, fmt.Errorf("orientation events: %w", err)
		}
		appLog.Info("loaded orientation events", "file", path, "rows", len(loaded))
		rows = append(rows, loaded...)
	}

	paths, err := filepath.Glob(filepath.Join(eventsDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		if cfg.Orientation.FileName != "" && filepath.Base(path) == orientationBase {
			continue
		}
		loaded, err := csvload.ReadFile(path, false)
		if err != nil {
			return nil, err
		}
		appLog.Debug("loaded event file", "file", path, "rows", len(loaded))
		rows = append(rows, loaded...)
	}
	return rows, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
