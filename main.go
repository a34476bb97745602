package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/coilwinder/internal/config"
	"github.com/banshee-data/coilwinder/internal/db"
	"github.com/banshee-data/coilwinder/internal/generate"
	"github.com/banshee-data/coilwinder/internal/version"
)

var (
	dbPath        = flag.String("db", "coilwinder.db", "Path to the sqlite database")
	migrationsDir = flag.String("migrations", "internal/db/migrations", "Path to the schema migrations directory")
	genPositions  = flag.Bool("positions", false, "Generate the axis position tables from the coil map")
	genEvents     = flag.Bool("events", false, "Generate the line controller event list from the coil map")
	tuningPath    = flag.String("tuning", "", "Path to a JSON tuning config (optional)")
)

func main() {
	flag.Parse()

	log.Printf("coilwinder %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	// subcommand form: coilwinder migrate <up|down|status|force>
	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		db.RunMigrateCommand(args[1:], *dbPath, *migrationsDir)
		return
	}

	if !*genPositions && !*genEvents {
		fmt.Fprintln(os.Stderr, "No action selected: pass -positions and/or -events, or 'migrate <command>'")
		fmt.Fprintln(os.Stderr)
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.EmptyTuningConfig()
	if *tuningPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if cfg.GetCheckMigrations() {
		if err := database.CheckMigrations(*migrationsDir); err != nil {
			log.Fatalf("Schema check failed: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// events first: the event list is read by the line controller while
	// the position write is still in flight
	if *genEvents {
		if err := generate.Events(ctx, database, database, cfg); err != nil {
			log.Fatalf("Event generation failed: %v", err)
		}
	}

	if *genPositions {
		if err := generate.Positions(ctx, database, database, cfg); err != nil {
			log.Fatalf("Position generation failed: %v", err)
		}
	}
}
