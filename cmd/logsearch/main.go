package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuchTitan/go-log-search/internal/config"
	"github.com/MuchTitan/go-log-search/internal/engine"
	"github.com/MuchTitan/go-log-search/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	keywords     []string
	regexes      []string
	matchAny     bool
	matchAll     bool
	since        string
	until        string
	format       string
	output       string
	encodingName string
	ignoreCase   bool
	includes     []string
	excludes     []string
	follow       bool

	rootCmd = &cobra.Command{
		Use:   "logsearch",
		Short: "Search application and web server logs with keywords, regexes and time windows",
		Long: `logsearch scans plain or gzip-compressed log files for lines matching
keyword and regex patterns, optionally filters them by an embedded
timestamp window, extracts structured fields via named-capture regexes and
emits matches as console text, CSV or JSONL. With --follow it keeps
watching the matched files for newly appended lines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to config YAML")
	rootCmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "keyword to search (repeatable)")
	rootCmd.Flags().StringArrayVarP(&regexes, "regex", "r", nil, "regex pattern to search (repeatable)")
	rootCmd.Flags().BoolVar(&matchAny, "any", false, "match ANY of the patterns")
	rootCmd.Flags().BoolVar(&matchAll, "all", false, "match ALL pattern categories")
	rootCmd.Flags().StringVar(&since, "since", "", `start time (local), "YYYY-MM-DD[ HH:MM[:SS]]"`)
	rootCmd.Flags().StringVar(&until, "until", "", `end time (local), "YYYY-MM-DD[ HH:MM[:SS]]"`)
	rootCmd.Flags().StringVar(&format, "format", "", "output format (console, csv, jsonl, sqlite, gelf)")
	rootCmd.Flags().StringVar(&output, "output", "", "output path for csv/jsonl/sqlite")
	rootCmd.Flags().StringVar(&encodingName, "encoding", "", "file encoding (default utf-8)")
	rootCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "case-insensitive search")
	rootCmd.Flags().StringArrayVar(&includes, "include", nil, "add include glob (repeatable)")
	rootCmd.Flags().StringArrayVar(&excludes, "exclude", nil, "add exclude glob (repeatable)")
	rootCmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow the files for new lines (tail -f)")
}

func run(cmd *cobra.Command, args []string) error {
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		// The default config file is optional, flags alone are enough.
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	mode := ""
	if matchAll {
		mode = pipeline.ModeAll
	} else if matchAny {
		mode = pipeline.ModeAny
	}
	cfg.Apply(config.Overrides{
		Include:    includes,
		Exclude:    excludes,
		Keywords:   keywords,
		Regexes:    regexes,
		MatchMode:  mode,
		Format:     format,
		Output:     output,
		Encoding:   encodingName,
		IgnoreCase: ignoreCase,
		Follow:     follow,
	})

	if err := cfg.SetupLogging(); err != nil {
		return err
	}

	var window pipeline.Window
	if since != "" {
		t, err := config.ParseTime(since)
		if err != nil {
			return err
		}
		window.Since = &t
	}
	if until != "" {
		t, err := config.ParseTime(until)
		if err != nil {
			return err
		}
		window.Until = &t
	}

	eng, err := engine.New(cfg, window)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, runErr := eng.Run(ctx)

	if runErr == nil && cfg.Follow && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "[FOLLOW] Watching %d file(s). Press Ctrl+C to stop.\n", len(eng.Files()))
		runErr = eng.Follow(ctx, &stats)
	}

	if cerr := eng.Close(); runErr == nil {
		runErr = cerr
	}

	fmt.Fprintf(os.Stderr, "[DONE] Scanned %d file(s), %d line(s) in %s. Matches: %d.\n",
		stats.FilesScanned, stats.LinesScanned, time.Since(start).Round(time.Millisecond), stats.LinesMatched)

	return runErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
