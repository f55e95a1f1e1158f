// Package main provides the PAA harvester command-line tool.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"paaharvest/internal/config"
	"paaharvest/internal/engine"
	"paaharvest/internal/formatter"
	"paaharvest/internal/logger"
	"paaharvest/internal/scraper"
	"paaharvest/internal/storage"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	headless := flag.Bool("headless", false, "Run the browser headless (overrides config)")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	if _, err := os.Stat(*configFile); os.IsNotExist(err) {
		fmt.Printf("⚠️  Config file %s not found, writing defaults...\n", *configFile)

		if err := config.DefaultConfig().SaveConfig(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to write default config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Default config written to %s. Edit it and run again.\n", *configFile)

		return
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if flagWasSet("headless") {
		cfg.Headless = *headless
	}

	log := logger.NewLogger(cfg.Logging.Level)

	fmt.Println("================================================================")
	fmt.Println("🔧 paaharvest - People Also Ask harvester")
	fmt.Printf("⚙️  %s\n", cfg)
	fmt.Println("================================================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(cfg.ResultsDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to prepare results directory: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.StartWithRetry(ctx, engine.Options{
		Headless:    cfg.Headless,
		UserAgent:   cfg.Browser.UserAgent,
		CallTimeout: cfg.Browser.GetCallTimeout(),
	}, cfg.Browser.InitAttempts, cfg.Browser.GetInitRetryDelay(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ Browser initialization failed!")
		fmt.Fprintln(os.Stderr, "💡 Possible causes:")
		fmt.Fprintln(os.Stderr, "   1. Chrome is not installed or is too old")
		fmt.Fprintln(os.Stderr, "   2. The browser process was blocked from starting")
		fmt.Fprintf(os.Stderr, "\nError detail: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn("browser shutdown reported an error", "error", err)
		}
	}()

	gate := scraper.NewGate(cfg.Verification.Indicators, operatorWait(os.Stdin), log)
	harvester := scraper.New(eng, cfg, store, gate, log)

	results := harvester.Run(ctx)

	fmt.Println()
	fmt.Println(formatter.RenderSummary(toSummaries(results)))
	fmt.Printf("🎉 Processed %d keywords. Results saved in %s/\n", len(results), cfg.ResultsDir)
}

// operatorWait blocks until the operator confirms the verification page was
// resolved, or the run is cancelled.
func operatorWait(r io.Reader) scraper.WaitFunc {
	reader := bufio.NewReader(r)

	return func(ctx context.Context) error {
		fmt.Println("🔒 Verification page detected. Complete it in the browser, then press Enter...")

		done := make(chan error, 1)

		go func() {
			_, err := reader.ReadString('\n')
			done <- err
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func toSummaries(results []scraper.KeywordResult) []formatter.KeywordSummary {
	summaries := make([]formatter.KeywordSummary, 0, len(results))

	for _, r := range results {
		status := "❌ no panel"
		if r.Succeeded {
			status = "✅ ok"
		}

		summaries = append(summaries, formatter.KeywordSummary{
			Keyword:    r.Keyword,
			Variant:    r.Variant,
			New:        r.NewRecords,
			StoreTotal: r.StoreTotal,
			Status:     status,
		})
	}

	return summaries
}

func flagWasSet(name string) bool {
	set := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})

	return set
}

func printUsage() {
	fmt.Println("paaharvest - harvest People Also Ask panels for a keyword list")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  paaharvest [-config config.yaml] [-headless]")
	fmt.Println()
	fmt.Println("On first run a default config file is written for editing.")
	fmt.Println()
	flag.PrintDefaults()
}
