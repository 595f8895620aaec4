package main

import (
    "errors"
    "fmt"

    "github.com/spf13/cobra"

    "github.com/iliyamo/cementerio-ledger/internal/config"
    "github.com/iliyamo/cementerio-ledger/internal/database"
)

func migrateCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "migrate",
        Short: "Manage the MySQL schema",
    }
    cmd.AddCommand(
        migrateAction("up", "Apply all pending migrations", (*database.Migrator).Up),
        migrateAction("down", "Roll back every migration", (*database.Migrator).Down),
        &cobra.Command{
            Use:   "version",
            Short: "Print the current schema version",
            RunE: func(cmd *cobra.Command, args []string) error {
                return withMigrator(cmd, func(mg *database.Migrator) error {
                    v, dirty, err := mg.Version()
                    if err != nil {
                        return err
                    }
                    fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
                    return nil
                })
            },
        },
    )
    return cmd
}

func migrateAction(use, short string, run func(*database.Migrator) error) *cobra.Command {
    return &cobra.Command{
        Use:   use,
        Short: short,
        RunE: func(cmd *cobra.Command, args []string) error {
            return withMigrator(cmd, run)
        },
    }
}

func withMigrator(cmd *cobra.Command, fn func(*database.Migrator) error) error {
    cfg, log, err := setup()
    if err != nil {
        return err
    }
    defer func() { _ = log.Sync() }()
    if cfg.App.StoreDriver != config.DriverMySQL {
        return errors.New("migrations need STORE_DRIVER=mysql")
    }
    db, err := database.Open(cmd.Context(), cfg.Database)
    if err != nil {
        return err
    }
    mg, err := database.NewMigrator(db, log)
    if err != nil {
        _ = db.Close()
        return err
    }
    defer func() { _ = mg.Close() }()
    return fn(mg)
}
