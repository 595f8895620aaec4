package main

import (
    "context"
    "errors"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/queue"
)

func consumeCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "consume",
        Short: "Append ledger events from RabbitMQ to the audit log file",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log, err := setup()
            if err != nil {
                return err
            }
            defer func() { _ = log.Sync() }()
            if cfg.RabbitMQ.URL == "" {
                return errors.New("RABBITMQ_URL is required")
            }
            path, _ := cmd.Flags().GetString("file")
            if path == "" {
                path = cfg.RabbitMQ.LedgerLogPath
            }

            ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
            defer stop()

            log.Info("ledger consumer starting", zap.String("file", path))
            err = queue.NewConsumer(cfg.RabbitMQ.URL, path, log).Run(ctx)
            if errors.Is(err, context.Canceled) {
                return nil
            }
            return err
        },
    }
    cmd.Flags().String("file", "", "audit log path (default LEDGER_LOG_PATH)")
    return cmd
}
