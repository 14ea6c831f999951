package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/geomonitor/internal/classify"
	"github.com/TobiSchelling/geomonitor/internal/collect"
	"github.com/TobiSchelling/geomonitor/internal/config"
	"github.com/TobiSchelling/geomonitor/internal/countries"
	"github.com/TobiSchelling/geomonitor/internal/database"
	"github.com/TobiSchelling/geomonitor/internal/filter"
	"github.com/TobiSchelling/geomonitor/internal/ingest"
	"github.com/TobiSchelling/geomonitor/internal/llm"
	"github.com/TobiSchelling/geomonitor/internal/logging"
	"github.com/TobiSchelling/geomonitor/internal/pipeline"
	"github.com/TobiSchelling/geomonitor/internal/quality"
	"github.com/TobiSchelling/geomonitor/internal/server"
	"github.com/TobiSchelling/geomonitor/internal/translate"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	resetDB    bool
	cfg        *config.Config
	logger     = slog.Default()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "geomonitor",
	Short:   "Geopolitical event extraction from news",
	Long:    "geomonitor collects news articles, keeps those describing interactions between countries, and extracts structured events with an LLM.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnv(filepath.Join(config.ConfigDir(), ".env"), ".env"); err != nil {
			return err
		}
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger = logging.New(os.Stderr, level, cfg.Logging.Format, verbose)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&resetDB, "reset-db", false, "Drop and recreate all tables before running")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reclassifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(queryCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("geomonitor", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/geomonitor/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, the LLM provider and the translation service.")
		fmt.Printf("Secrets (OPENAI_API_KEY, GEOMONITOR_DATABASE_URL, ...) can go in %s\n",
			filepath.Join(config.ConfigDir(), ".env"))
		return nil
	},
}

func openDB(ctx context.Context) (*database.DB, error) {
	opts := database.Options{
		Engine: database.Engine(cfg.Database.Engine),
		Path:   cfg.DatabasePath(),
		DSN:    cfg.DatabaseDSN(),
		Logger: logger,
	}
	if opts.Engine == database.EnginePostgres && opts.DSN == "" {
		return nil, fmt.Errorf("database.engine is postgres but $%s is empty", cfg.Database.DSNEnv)
	}
	db, err := database.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if resetDB {
		logger.Warn("resetting database", "engine", db.Engine())
		if err := db.Reset(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("resetting database: %w", err)
		}
	}
	return db, nil
}

// buildOrchestrator wires translation, admission and classification from
// the loaded config.
func buildOrchestrator(db *database.DB) (*ingest.Orchestrator, error) {
	resolver := countries.Default()

	cl := cfg.Classification
	provider := llm.CreateProvider(cl.Provider, cl.Model, cl.OllamaURL, cl.OpenAIModel, os.Getenv(cl.APIKeyEnv), cl.BaseURL)
	if provider == nil {
		return nil, errors.New("no LLM provider available: start Ollama or set " + cl.APIKeyEnv)
	}
	classifier := classify.New(provider, resolver,
		classify.WithMaxTokens(cl.MaxTokens),
		classify.WithMaxChars(cl.MaxChars),
		classify.WithTemperature(cl.Temperature),
		classify.WithLogger(logger),
	)

	filterOpts := []filter.Option{filter.WithMinCountries(cfg.Filter.MinCountries)}
	if len(cfg.Filter.Keywords) > 0 {
		filterOpts = append(filterOpts, filter.WithKeywords(cfg.Filter.Keywords))
	}
	admitter := filter.New(resolver, filterOpts...)

	tr := cfg.Translation
	var normalizer ingest.Normalizer
	if tr.Enabled {
		normalizer = translate.NewAdapter(
			translate.TrigramDetector{},
			translate.NewLibreTranslate(tr.ServiceURL, os.Getenv(tr.APIKeyEnv), tr.Timeout),
			translate.WithTarget(tr.Target),
			translate.WithMaxChunkChars(tr.MaxChunkChars),
			translate.WithTimeout(tr.Timeout),
		)
	}

	return ingest.New(db, normalizer, admitter, classifier,
		ingest.WithLimiter(ingest.NewLimiter(cfg.Processing.DelayBetweenCalls)),
		ingest.WithMaxAttempts(cl.MaxAttempts),
		ingest.WithClassifyTimeout(cl.Timeout),
		ingest.WithTranslationPolicy(ingest.TranslationPolicy(tr.OnFailure)),
		ingest.WithWorkingLanguage(tr.Target),
		ingest.WithWorkers(cfg.Processing.Workers),
		ingest.WithLogger(logger),
	), nil
}

// buildSeenSet returns the database-backed seen set, chained with valkey
// when a cache address is configured and reachable.
func buildSeenSet(ctx context.Context, db *database.DB) (collect.SeenSet, func()) {
	storeSeen := collect.StoreSeen{Store: db}
	sc := cfg.Sources.SeenCache
	if sc.Addr == "" {
		return storeSeen, func() {}
	}
	v, err := collect.NewValkeySeen(ctx, sc.Addr, os.Getenv(sc.PasswordEnv), sc.Key)
	if err != nil {
		logger.Warn("seen cache unavailable, using database only", "addr", sc.Addr, "error", err)
		return storeSeen, func() {}
	}
	return collect.Chain{storeSeen, v}, v.Close
}

func printSteps(steps []pipeline.StepResult) {
	for i, step := range steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(ctx)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s (%s)\n\n", db.Path(), db.Engine())
		fmt.Println("Articles:")
		fmt.Printf("  Total stored: %d\n", stats.TotalArticles)
		for _, s := range []string{database.StatusClassified, database.StatusPending, database.StatusFailed} {
			fmt.Printf("  %s: %d\n", s, stats.ArticlesByStatus[s])
		}
		fmt.Println("\nEvents:")
		fmt.Printf("  Total: %d (%.2f per article)\n", stats.TotalEvents, stats.EventsPerArticle)
		if stats.AvgSentiment != nil {
			fmt.Printf("  Average sentiment: %.2f\n", *stats.AvgSentiment)
		}
		for _, d := range stats.ByDimension {
			fmt.Printf("  %s: %d\n", d.Dimension, d.Events)
		}
		if len(stats.TopCountries) > 0 {
			fmt.Println("\nMost involved countries:")
			for _, c := range stats.TopCountries {
				fmt.Printf("  %s: %d\n", c.ISO3, c.Events)
			}
		}
		if stats.LastRun != nil {
			fmt.Printf("\nLast run: %s (%s)\n", stats.LastRun.StartedAt, stats.LastRun.Status)
		}
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect articles from configured feeds without ingesting them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		seen, closeSeen := buildSeenSet(ctx, db)
		defer closeSeen()

		fmt.Println("Collecting articles from feeds...")
		articles, result := collect.New(cfg, logger, seen).Collect(ctx, effectiveDaysBack())

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New articles: %d\n", result.Collected)
		fmt.Printf("  Already seen: %d\n", result.Seen)
		fmt.Printf("  Description fallbacks: %d\n", result.Fallbacks)
		fmt.Printf("  Without content: %d\n", result.Failed)

		if len(result.Sources) > 0 {
			fmt.Println("\nArticles by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}

		if collectOut != "" {
			if err := writeArticles(collectOut, articles); err != nil {
				return err
			}
			fmt.Printf("\nWrote %d articles to %s (ingest with 'geomonitor ingest %s')\n", len(articles), collectOut, collectOut)
		}
		return nil
	},
}

var collectOut string

func init() {
	collectCmd.Flags().StringVarP(&collectOut, "output", "o", "", "Write collected articles as JSON to this file")
	collectCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
}

func writeArticles(path string, articles []ingest.RawArticle) error {
	if articles == nil {
		articles = []ingest.RawArticle{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
)

func effectiveDaysBack() int {
	if daysBack > 0 {
		return daysBack
	}
	if cfg.Sources.DaysLookback > 0 {
		return cfg.Sources.DaysLookback
	}
	return 1
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> translate -> filter -> classify -> store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		seen, closeSeen := buildSeenSet(ctx, db)
		defer closeSeen()
		collector := collect.New(cfg, logger, seen)

		var result *pipeline.Result
		if dryRun {
			result = pipeline.New(db, collector, nil, seen, logger).DryRun(ctx, effectiveDaysBack())
		} else {
			orch, err := buildOrchestrator(db)
			if err != nil {
				return err
			}
			result = pipeline.New(db, collector, orch, seen, logger).Run(ctx, effectiveDaysBack())
		}

		printSteps(result.Steps)
		if err := result.Err(); err != nil {
			return err
		}
		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'geomonitor serve' to browse the events.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect only and show what would be ingested")
	runCmd.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
}

// --- ingest command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Ingest raw articles from a JSON file ('-' for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		articles, err := readArticles(args[0])
		if err != nil {
			return err
		}

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		orch, err := buildOrchestrator(db)
		if err != nil {
			return err
		}
		result := pipeline.New(db, nil, orch, nil, logger).Ingest(ctx, articles)
		printSteps(result.Steps)
		return result.Err()
	},
}

// readArticles accepts a JSON array of raw articles or a single object.
func readArticles(path string) ([]ingest.RawArticle, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}

	var articles []ingest.RawArticle
	if err := json.Unmarshal(data, &articles); err == nil {
		return articles, nil
	}
	var single ingest.RawArticle
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parsing articles: %w", err)
	}
	return []ingest.RawArticle{single}, nil
}

// --- reclassify command ---

var (
	reclassifyStatus string
	reclassifyLimit  int
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Classify stored articles again (failed ones by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reclassifyStatus != database.StatusFailed && reclassifyStatus != database.StatusPending {
			return fmt.Errorf("--status must be %s or %s", database.StatusFailed, database.StatusPending)
		}
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		orch, err := buildOrchestrator(db)
		if err != nil {
			return err
		}
		step := pipeline.New(db, nil, orch, nil, logger).Reclassify(ctx, reclassifyStatus, reclassifyLimit)
		printSteps([]pipeline.StepResult{step})
		return step.Err
	},
}

func init() {
	reclassifyCmd.Flags().StringVar(&reclassifyStatus, "status", database.StatusFailed, "Classification status to retry (failed or pending)")
	reclassifyCmd.Flags().IntVar(&reclassifyLimit, "limit", 100, "Maximum number of articles")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, db, port, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- quality command ---

var qualityJSON bool

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Report data-quality issues in stored events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		report, err := quality.Build(ctx, db)
		if err != nil {
			return err
		}
		if qualityJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Printf("Bilateral events without actor2: %d\n", len(report.BilateralWithoutActor2))
		for _, id := range report.BilateralWithoutActor2 {
			fmt.Printf("  %s\n", id)
		}
		fmt.Printf("Events with unmapped sub-dimension: %d\n", report.NullSubDimension)
		fmt.Printf("Articles with failed classification: %d\n", len(report.FailedArticles))
		for _, a := range report.FailedArticles {
			fmt.Printf("  [%d] %s\n", a.NewsID, a.Title)
		}
		fmt.Printf("Sentiment disagreements: %d of %d events\n", len(report.SentimentDisagreements), report.EventsChecked)
		for _, d := range report.SentimentDisagreements {
			fmt.Printf("  %s model %+.0f lexicon %+.2f: %s\n", d.EventID, d.Sentiment, d.Compound, d.Summary)
		}
		return nil
	},
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityJSON, "json", false, "Print the report as JSON")
}

// --- runs command ---

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show ingestion run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet. Start one with: geomonitor run")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tSTATUS\tFETCHED\tREJECTED\tINVALID\tWITH EVENTS\tZERO EVENTS\tFAILED CLS\tFAILED TR\tSEEN\tEVENTS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				r.StartedAt, r.Status, r.Fetched, r.Rejected, r.Invalid, r.StoredWithEvents, r.StoredZeroEvents,
				r.FailedClassification, r.FailedTranslation, r.AlreadyIngested, r.Events)
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show")
}

// --- query command ---

var queryMaxRows int

var queryCmd = &cobra.Command{
	Use:   "query SQL",
	Short: "Run a read-only SELECT against the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := db.ReadOnlyQuery(ctx, args[0], queryMaxRows)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryMaxRows, "max-rows", database.DefaultMaxRows, "Maximum rows returned")
}
