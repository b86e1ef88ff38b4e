// Command migrate applies the embedded schema migrations and exits. The API
// server runs them at startup as well; this binary exists for deploy
// pipelines that migrate before rolling the server.
package main

import (
	"fmt"
	"os"

	"github.com/foliofyhq/foliofy/internal/config"
	"github.com/foliofyhq/foliofy/internal/repository/postgres"
	"github.com/foliofyhq/foliofy/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.FS()); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("All migrations completed successfully")
}
