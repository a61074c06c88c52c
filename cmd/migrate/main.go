// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up            apply every pending migration
//	migrate down [n]      roll back n migrations (default 1)
//	migrate force <ver>   mark the schema as <ver> after a failed run
//	migrate version       print the current schema version
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/iliyamo/sports-marketplace/internal/config"
	"github.com/iliyamo/sports-marketplace/internal/database"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate up | down [n] | force <version> | version")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadDB()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.OpenMigrations(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	m, err := database.Migrator(db)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer m.Close()

	if err := apply(m, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func apply(m *migrate.Migrate, cmd string, args []string) error {
	switch cmd {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		n := 1
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			n = v
		}
		return ignoreNoChange(m.Steps(-n))
	case "force":
		if len(args) < 1 {
			return errors.New("force needs a version")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("no change")
		return nil
	}
	return err
}
