/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/nanogen/studio/config"
	"github.com/nanogen/studio/internal/events"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/types"
	"github.com/spf13/cobra"
)

// eventsCmd groups commands over the generation event channel.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with published generation events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print generation events as JSON lines until interrupted",
	Long: `Subscribes to the configured events backend (rabbitmq or pubsub) and
prints each generation event as one JSON line. The log backend only delivers
events published by the same process, so tail is useful with a broker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(os.Stderr, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := events.Open(ctx, cfg.Events, log)
		if err != nil {
			return err
		}
		defer func() {
			_ = bus.Close()
		}()

		log.Info(ctx, "tailing events", "backend", cfg.Events.Backend, "channel", bus.Channel())
		enc := json.NewEncoder(cmd.OutOrStdout())
		err = bus.Subscribe(ctx, func(_ context.Context, ev types.GenerationEvent) error {
			return enc.Encode(ev)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
