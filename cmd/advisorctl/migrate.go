package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var skipMongo bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes, and collections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			pg, err := db.NewPostgres(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("postgres schema: %w", err)
			}
			fmt.Fprintln(out, "postgres: conversations, messages, users, api keys ready")

			rel, err := db.NewGORM(cfg.Postgres)
			if err != nil {
				return err
			}
			defer rel.Close()
			if err := rel.AutoMigrate(ctx); err != nil {
				return fmt.Errorf("gorm migrate: %w", err)
			}
			fmt.Fprintln(out, "postgres: portfolios, stocks, bookmarks ready")

			if skipMongo || cfg.Mongo.URI == "" {
				fmt.Fprintln(out, "mongo: skipped")
				return nil
			}
			mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
			if err != nil {
				return err
			}
			defer mongoStore.Close(context.Background())
			if err := mongoStore.EnsureCollections(ctx); err != nil {
				return fmt.Errorf("mongo collections: %w", err)
			}
			fmt.Fprintln(out, "mongo: financial plans ready")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMongo, "skip-mongo", false, "do not touch MongoDB")
	return cmd
}
