// Command server runs the cemetery ledger API and its maintenance tasks.
package main

import (
    "fmt"
    "os"

    "github.com/spf13/cobra"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/config"
    "github.com/iliyamo/cementerio-ledger/internal/logger"
)

func main() {
    rootCmd := &cobra.Command{
        Use:           "cementerio-ledger",
        Short:         "Cemetery reservation and payment ledger",
        SilenceUsage:  true,
        SilenceErrors: true,
    }

    rootCmd.AddCommand(
        serveCmd(),
        migrateCmd(),
        consumeCmd(),
        hashPasswordCmd(),
    )

    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, *zap.Logger, error) {
    cfg, err := config.Load()
    if err != nil {
        return nil, nil, fmt.Errorf("load config: %w", err)
    }
    lc := logger.DefaultConfig()
    if cfg.App.Env == "production" {
        lc = logger.ProductionConfig()
    }
    if cfg.Log.Level != "" {
        lc.Level = cfg.Log.Level
    }
    if cfg.Log.Format != "" {
        lc.Format = cfg.Log.Format
    }
    if cfg.Log.Output != "" {
        lc.Output = cfg.Log.Output
    }
    log, err := logger.New(lc)
    if err != nil {
        return nil, nil, fmt.Errorf("build logger: %w", err)
    }
    return cfg, log.With(zap.String("env", cfg.App.Env)), nil
}
