package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Schema migration runner for the compliance database.
//
//	migrate [flags] <command>
//
// Commands:
//	up          apply all pending migrations (default)
//	down [n]    roll back n migrations (default 1)
//	version     print the current schema version
//	force <v>   mark the schema as version v without running anything

func main() {
	databaseURL := flag.String("database", os.Getenv("DATABASE_URL"), "database URL (defaults to $DATABASE_URL)")
	migrationsPath := flag.String("path", "migrations", "migrations directory")
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("database URL is required: pass -database or set DATABASE_URL")
	}

	m, err := migrate.New("file://"+*migrationsPath, *databaseURL)
	if err != nil {
		log.Fatalf("open migrations at %s: %v", *migrationsPath, err)
	}
	defer m.Close()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(m, command, flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(m *migrate.Migrate, command string, args []string) error {
	switch command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("schema already up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Println("migrations applied")
		return nil

	case "down":
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("down: step count must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		err := m.Steps(-steps)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("nothing to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("roll back %d migration(s): %w", steps, err)
		}
		log.Printf("rolled back %d migration(s)", steps)
		return nil

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if dirty {
			log.Printf("schema version %d (dirty)", version)
		} else {
			log.Printf("schema version %d", version)
		}
		return nil

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("force: version number required")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("force: invalid version %q", args[0])
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		log.Printf("schema version forced to %d", version)
		return nil

	default:
		return fmt.Errorf("unknown command %q (want up, down, version, force)", command)
	}
}
