package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/etl"
	"github.com/yamahealth/medguard/internal/logger"
	"github.com/yamahealth/medguard/internal/meddb"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputFile  = flag.String("input", "", "Input medication dataset (CSV, Parquet, or JSON lines)")
		outputFile = flag.String("output", "medications.json", "Output reference file")
		keepDupes  = flag.Bool("keep-duplicates", false, "Keep duplicate medication names")
		noValidate = flag.Bool("no-validate", false, "Skip record validation")
		verify     = flag.Bool("verify", false, "Load the output file back through the index and exit")
	)
	flag.Parse()

	if *inputFile == "" && !*verify {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input pharmacy_export.csv --output medications.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input drugs.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --verify --output medications.json\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *verify {
		verifyReference(*outputFile, log)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	pipeline := etl.NewPipeline(&etl.Config{
		SkipDuplicates: !*keepDupes,
		ValidateData:   !*noValidate,
	}, log.WithComponent("etl").Logger)

	result, err := pipeline.ProcessFile(ctx, *inputFile, *outputFile)
	if err != nil {
		log.Fatal("ETL failed", zap.Error(err))
	}

	log.Info("Reference file written",
		zap.String("output", *outputFile),
		zap.Int64("medications", result.ProcessedOK),
		zap.Int64("duplicates", result.Duplicates),
		zap.Int64("rejected", result.ProcessedFailed),
	)
}

// verifyReference loads a reference file into the index the same way the
// gateway does at startup.
func verifyReference(path string, log *logger.Logger) {
	entries, err := meddb.LoadFile(path)
	if err != nil {
		log.Fatal("Reference file failed to load", zap.Error(err))
	}

	index := meddb.NewIndex(entries, log.WithComponent("meddb").Logger)
	log.Info("Reference file verified",
		zap.String("file", path),
		zap.Int("medications", index.Len()),
	)
}
