package main

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/lama-alharbi8/SkillSwap/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Tables in dependency order, children first, for the drop command.
var tables = []string{
	"notifications",
	"exchanges",
	"chain_links",
	"exchange_chains",
	"needed_skills",
	"offered_skills",
	"skill_categories",
	"skills",
	"categories",
	"users",
}

func main() {
	app := &cli.App{
		Name:  "skillswap-migrate",
		Usage: "manage the SkillSwap database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "create all tables and indexes (idempotent)",
				Action: runUp,
			},
			{
				Name:   "drop",
				Usage:  "drop all tables",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "confirm the drop"},
				},
				Action: runDrop,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func connect() (*pgxpool.Pool, context.Context, context.CancelFunc, error) {
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, ctx, cancel, nil
}

func runUp(c *cli.Context) error {
	pool, ctx, cancel, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer pool.Close()

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	log.Println("schema applied")
	return nil
}

func runDrop(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("refusing to drop without --yes")
	}

	pool, ctx, cancel, err := connect()
	if err != nil {
		return err
	}
	defer cancel()
	defer pool.Close()

	for _, table := range tables {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	log.Println("all tables dropped")
	return nil
}
