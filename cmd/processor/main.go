package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"freightpulse/internal/app"
	"freightpulse/internal/config"
	"freightpulse/internal/dataprocessing"
	"freightpulse/internal/files"
	"freightpulse/internal/history"
	"freightpulse/internal/infrastructure"
	"freightpulse/pkg/contracts/domain"
)

func main() {
	file := flag.String("file", "", "single manifest file to process")
	dir := flag.String("dir", "", "directory of manifest files to process in filename order")
	archiveDir := flag.String("archive", "", "move committed manifests into this directory, grouped by period")
	carriers := flag.Bool("carriers", false, "print the carrier roster for each processed manifest")
	flag.Parse()

	if (*file == "") == (*dir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -dir is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ledger, err := history.New(cfg.Paths.LedgerFile, logger)
	if err != nil {
		logger.Error("failed to open history ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	service := app.BuildAnalyticsService(cfg, ledger, nil, logger)

	ctx := context.Background()

	var manifests []parsedManifest
	if *file != "" {
		manifests, err = parseOne(ctx, cfg, logger, *file)
	} else {
		manifests, err = parseDirectory(ctx, cfg, logger, *dir)
	}
	if err != nil {
		logger.Error("manifest loading failed", "error", err)
		os.Exit(1)
	}
	if len(manifests) == 0 {
		logger.Info("no manifest files found", "dir", *dir)
		return
	}

	var archiver *files.Archiver
	if *archiveDir != "" {
		archiver = files.NewArchiver(*archiveDir, logger)
	}

	// Commits run sequentially in filename order so the freshness gate
	// sees periods in the order the operator laid the files out.
	failures := 0
	for _, item := range manifests {
		outcome, err := service.ProcessManifest(ctx, item.manifest)
		if err != nil {
			logger.Error("processing failed",
				"source_file", item.manifest.SourceFile,
				"error", err)
			failures++
			continue
		}

		printOutcome(outcome)

		if *carriers {
			printCarriers(service.CarriersForPeriod(ctx, item.manifest, outcome.Period))
		}

		if archiver != nil && outcome.HistoricalUpdated {
			if _, err := archiver.Archive(item.path, outcome.Period); err != nil {
				logger.Warn("archive failed", "error", err)
			}
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

// parsedManifest keeps the on-disk path a manifest was loaded from next
// to the parsed records. The manifest itself only carries the base name,
// which is not enough to archive the file from an arbitrary working
// directory.
type parsedManifest struct {
	path     string
	manifest *domain.Manifest
}

func parseOne(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) ([]parsedManifest, error) {
	if !files.IsManifest(path) {
		return nil, fmt.Errorf("unsupported manifest file: %s", path)
	}
	manifest, err := newParser(cfg, logger).ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return []parsedManifest{{path: path, manifest: manifest}}, nil
}

// parseDirectory parses every manifest in dir concurrently and returns
// them in filename order.
func parseDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger, dir string) ([]parsedManifest, error) {
	found, err := files.NewDiscovery(cfg.Paths.DataDir).FindManifests(dir)
	if err != nil {
		return nil, err
	}

	parser := newParser(cfg, logger)
	manifests := make([]parsedManifest, len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, f := range found {
		g.Go(func() error {
			manifest, err := parser.ParseFile(gctx, f.Path)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			manifests[i] = parsedManifest{path: f.Path, manifest: manifest}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return manifests, nil
}

func newParser(cfg *config.Config, logger *slog.Logger) *dataprocessing.Parser {
	parserCfg := dataprocessing.DefaultParserConfig()
	parserCfg.DefaultPrice = cfg.Analytics.DefaultPrice
	return dataprocessing.NewParser(parserCfg, logger)
}

func printOutcome(outcome domain.ProcessOutcome) {
	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", outcome)
		return
	}
	fmt.Println(string(encoded))
}

func printCarriers(entries []domain.CarrierEntry) {
	fmt.Printf("carriers with trips (%d):\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("  %s  %s\n", entry.Code, entry.Name)
	}
}
