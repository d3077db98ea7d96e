package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/petersawicki/seo-log-analyzer/internal/analyzer"
	"github.com/petersawicki/seo-log-analyzer/internal/config"
	"github.com/petersawicki/seo-log-analyzer/internal/logging"
	"github.com/petersawicki/seo-log-analyzer/internal/parser"
	"github.com/petersawicki/seo-log-analyzer/internal/pipeline"
	"github.com/petersawicki/seo-log-analyzer/internal/report"
	"github.com/petersawicki/seo-log-analyzer/internal/watch"
)

var (
	configPath    = flag.String("config", "", "Path to configuration file (optional)")
	filePath      = flag.StringP("file", "f", "", "Access log to analyze (\"-\" for stdin)")
	limit         = flag.Int("limit", 0, "Max lines to examine (0 = all)")
	workers       = flag.Int("workers", 1, "Parallel parse workers")
	format        = flag.String("format", "", "Report format: table, json, csv")
	output        = flag.StringP("output", "o", "", "Write report to file instead of stdout")
	minCrawls     = flag.Int("min-crawls", 0, "Minimum crawls for the path frequency report")
	trapThreshold = flag.Int("trap-threshold", 0, "Crawl count above which a path is flagged as a trap")
	errorStatus   = flag.Int("error-status", 0, "Status code for the error pages report")
	botFilter     = flag.String("bot", "", "Restrict the time series to one bot type")
	follow        = flag.Bool("follow", false, "Tail the log and re-render the report as lines arrive")
	watchMode     = flag.Bool("watch", false, "Re-analyze the whole file whenever it changes")
	interval      = flag.Duration("interval", 0, "Re-render interval for follow/watch modes")
	showVersion   = flag.Bool("version", false, "Print version and exit")

	version = "dev" // Set via ldflags: -X main.version=v1.0.0
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("seolog version", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	defer logger.Sync()

	if cfg.Input.Path == "" {
		fmt.Fprintln(os.Stderr, "no access log given: use --file or input.path in the config")
		os.Exit(1)
	}
	if cfg.Input.Follow && cfg.Input.Watch {
		fmt.Fprintln(os.Stderr, "--follow and --watch are mutually exclusive")
		os.Exit(1)
	}

	table, err := cfg.BotTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid bot patterns: %v\n", err)
		os.Exit(1)
	}
	p := parser.NewWithTable(table)

	opts := report.Options{
		MinCrawls:     cfg.Analysis.MinCrawls,
		TrapThreshold: cfg.Analysis.TrapThreshold,
		ErrorStatus:   cfg.Analysis.ErrorStatus,
		BotFilter:     cfg.Analysis.BotFilter,
	}

	ctx, cancel := signalContext()
	defer cancel()

	switch {
	case cfg.Input.Follow:
		err = runFollow(ctx, cfg, p, opts, logger)
	case cfg.Input.Watch:
		err = runWatch(ctx, cfg, p, opts, logger)
	default:
		err = runOnce(cfg, p, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// applyFlags overlays explicitly-set flags onto the loaded config.
func applyFlags(cfg *config.Config) {
	if *filePath != "" {
		cfg.Input.Path = *filePath
	}
	if flag.CommandLine.Changed("limit") {
		cfg.Input.Limit = *limit
	}
	if flag.CommandLine.Changed("workers") {
		cfg.Input.Workers = *workers
	}
	if *format != "" {
		cfg.Report.Format = *format
	}
	if *output != "" {
		cfg.Report.Output = *output
	}
	if *minCrawls > 0 {
		cfg.Analysis.MinCrawls = *minCrawls
	}
	if *trapThreshold > 0 {
		cfg.Analysis.TrapThreshold = *trapThreshold
	}
	if *errorStatus > 0 {
		cfg.Analysis.ErrorStatus = *errorStatus
	}
	if *botFilter != "" {
		cfg.Analysis.BotFilter = *botFilter
	}
	if *follow {
		cfg.Input.Follow = true
	}
	if *watchMode {
		cfg.Input.Watch = true
	}
	if *interval > 0 {
		cfg.Report.Interval = config.Duration(*interval)
	}
}

func parseInput(cfg *config.Config, p *parser.Parser) ([]parser.Record, error) {
	var r io.Reader
	if cfg.Input.Path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			return nil, fmt.Errorf("open access log: %w", err)
		}
		defer f.Close()
		r = f
	}
	if cfg.Input.Workers > 1 {
		return p.ParseAllConcurrent(r, cfg.Input.Limit, cfg.Input.Workers), nil
	}
	return p.ParseAll(r, cfg.Input.Limit), nil
}

func emit(rep report.Report, cfg *config.Config) error {
	f := report.Format(cfg.Report.Format)
	if cfg.Report.Output != "" {
		return report.WriteToFile(rep, f, cfg.Report.Output)
	}
	return report.Render(rep, f, os.Stdout)
}

func runOnce(cfg *config.Config, p *parser.Parser, opts report.Options) error {
	records, err := parseInput(cfg, p)
	if err != nil {
		return err
	}
	eng := analyzer.New(records)
	return emit(report.Build(eng, opts), cfg)
}

// runWatch serves the current analysis and rebuilds it whenever the file
// changes, re-rendering on each swap.
func runWatch(ctx context.Context, cfg *config.Config, p *parser.Parser, opts report.Options, logger *logging.Logger) error {
	records, err := parseInput(cfg, p)
	if err != nil {
		return err
	}
	store := watch.NewStore(analyzer.New(records))

	rebuild := func() (*analyzer.Engine, error) {
		recs, err := parseInput(cfg, p)
		if err != nil {
			return nil, err
		}
		return analyzer.New(recs), nil
	}

	stop, err := watch.WatchFile(cfg.Input.Path, store, rebuild, logger)
	if err != nil {
		return err
	}
	defer stop()

	if err := emit(report.Build(store.Current(), opts), cfg); err != nil {
		return err
	}

	logger.Infof("watching %s, re-rendering every %s on change", cfg.Input.Path, time.Duration(cfg.Report.Interval))

	rendered := store.Generation()
	ticker := time.NewTicker(time.Duration(cfg.Report.Interval))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if gen := store.Generation(); gen != rendered {
				rendered = gen
				if err := emit(report.Build(store.Current(), opts), cfg); err != nil {
					return err
				}
			}
		}
	}
}

// runFollow tails the log, accumulating records and re-rendering the report
// on an interval while new lines keep arriving.
func runFollow(ctx context.Context, cfg *config.Config, p *parser.Parser, opts report.Options, logger *logging.Logger) error {
	records := make(chan parser.Record, 100)
	pipeline.StartFollowPipeline(ctx, cfg.Input.Path, p, logger, records)

	var (
		all   []parser.Record
		dirty bool
	)
	ticker := time.NewTicker(time.Duration(cfg.Report.Interval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-records:
			if !ok {
				if dirty {
					return emit(report.Build(analyzer.New(all), opts), cfg)
				}
				return nil
			}
			all = append(all, rec)
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := emit(report.Build(analyzer.New(all), opts), cfg); err != nil {
				return err
			}
			logger.Debugf("report rendered over %d records", len(all))
		}
	}
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
