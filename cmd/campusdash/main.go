package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ellaku/campusdash/internal/backup"
	"github.com/ellaku/campusdash/internal/billing"
	"github.com/ellaku/campusdash/internal/clock"
	"github.com/ellaku/campusdash/internal/config"
	"github.com/ellaku/campusdash/internal/ids"
	"github.com/ellaku/campusdash/internal/logger"
	"github.com/ellaku/campusdash/internal/migration"
	"github.com/ellaku/campusdash/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runStartup(log)
	case "import":
		runImport(log)
	case "deduct":
		runDeduct(log)
	case "backup":
		runBackup(log)
	case "restore":
		runRestore(log)
	case "seed":
		runSeed(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("campusdash - personal campus management core")
	fmt.Println("\nUsage:")
	fmt.Println("  campusdash <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Startup sequence: legacy import, then subscription deductions")
	fmt.Println("  import    Run the legacy JSON import only")
	fmt.Println("  deduct    Run the subscription auto-deduction only")
	fmt.Println("  backup    Upload a database snapshot to the configured bucket")
	fmt.Println("  restore   Download a snapshot over the local database")
	fmt.Println("  seed      Write a sample legacy JSON file for testing the import")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'campusdash <command> -h' for more information on a command.")
}

func loadConfig(log zerolog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
	}
	return cfg
}

func openStore(cfg *config.Config, log zerolog.Logger) *store.Store {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	return st
}

func runStartup(log zerolog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)
	st := openStore(cfg, log)
	defer st.Close()

	ctx := logger.WithContext(context.Background(), log)

	engine := migration.New(st, migration.Params{
		Clock:      clock.System(),
		IDs:        ids.UUID(),
		Log:        logger.Component(log, "migration"),
		SearchDirs: cfg.LegacySearchDirs(),
		Filename:   cfg.LegacyFilename,
	})
	// Import failures are retried on the next startup; they must not stop
	// the app from coming up.
	if err := engine.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Legacy import failed; will retry on next startup")
	}

	biller := billing.New(st, billing.Params{
		Clock:  clock.System(),
		IDs:    ids.UUID(),
		Log:    logger.Component(log, "billing"),
		Policy: billing.OverflowPolicy(cfg.OverflowPolicy),
	})
	count, err := biller.CheckAndProcessDeductions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Subscription deduction failed")
	}
	log.Info().Int("deductions", count).Msg("Startup complete")
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "", "Directory holding the legacy JSON (overrides the configured search path)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)
	st := openStore(cfg, log)
	defer st.Close()

	dirs := cfg.LegacySearchDirs()
	if *source != "" {
		dirs = []string{*source}
	}

	engine := migration.New(st, migration.Params{
		Clock:      clock.System(),
		IDs:        ids.UUID(),
		Log:        logger.Component(log, "migration"),
		SearchDirs: dirs,
		Filename:   cfg.LegacyFilename,
	})
	if err := engine.Run(logger.WithContext(context.Background(), log)); err != nil {
		log.Fatal().Err(err).Msg("Legacy import failed")
	}
}

func runDeduct(log zerolog.Logger) {
	fs := flag.NewFlagSet("deduct", flag.ExitOnError)
	policy := fs.String("policy", "", "Calendar overflow policy: clamp or rollover (overrides config)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)
	st := openStore(cfg, log)
	defer st.Close()

	chosen := cfg.OverflowPolicy
	if *policy != "" {
		chosen = *policy
	}

	biller := billing.New(st, billing.Params{
		Clock:  clock.System(),
		IDs:    ids.UUID(),
		Log:    logger.Component(log, "billing"),
		Policy: billing.OverflowPolicy(chosen),
	})
	count, err := biller.CheckAndProcessDeductions(logger.WithContext(context.Background(), log))
	if err != nil {
		log.Fatal().Err(err).Msg("Subscription deduction failed")
	}
	fmt.Printf("Processed %d deduction(s)\n", count)
}

func runBackup(log zerolog.Logger) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	bucket := fs.String("bucket", "", "Bucket name (overrides config)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)
	if *bucket != "" {
		cfg.BackupBucket = *bucket
	}
	if cfg.BackupBucket == "" {
		log.Fatal().Msg("No backup bucket configured; set backup.bucket or pass -bucket")
	}

	svc := backup.NewGCS(cfg.BackupBucket, cfg.BackupCredentials)
	object, err := backup.Snapshot(context.Background(), svc, cfg.BackupPrefix, cfg.DBPath, clock.System().Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Backup failed")
	}
	fmt.Printf("Uploaded %s to gs://%s/%s\n", cfg.DBPath, cfg.BackupBucket, object)
}

func runRestore(log zerolog.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	bucket := fs.String("bucket", "", "Bucket name (overrides config)")
	object := fs.String("object", "", "Snapshot object name (required)")
	fs.Parse(os.Args[2:])

	cfg := loadConfig(log)
	if *bucket != "" {
		cfg.BackupBucket = *bucket
	}
	if cfg.BackupBucket == "" || *object == "" {
		log.Fatal().Msg("Usage: campusdash restore -object OBJECT_NAME [-bucket BUCKET]")
	}

	svc := backup.NewGCS(cfg.BackupBucket, cfg.BackupCredentials)
	if err := backup.Restore(context.Background(), svc, *object, cfg.DBPath); err != nil {
		log.Fatal().Err(err).Msg("Restore failed")
	}
	fmt.Printf("Restored gs://%s/%s to %s\n", cfg.BackupBucket, *object, cfg.DBPath)
}
