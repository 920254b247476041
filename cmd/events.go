package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soomgil/counsel/internal/config"
	"github.com/soomgil/counsel/internal/events"
	"github.com/soomgil/counsel/internal/infrastructure/redis"
)

func newEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow session events fanned out to Redis Streams",
	}
	cmd.AddCommand(newEventsTailCommand())
	return cmd
}

func newEventsTailCommand() *cobra.Command {
	var topics []string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print events as JSON lines until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := redis.NewService(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()

			sub, err := events.NewRedisSubscriber(client.Client(), cfg.Events.Group, cfg.Events.Consumer)
			if err != nil {
				return err
			}
			defer sub.Close()

			return events.Tail(ctx, sub, topics, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&topics, "topic", events.Topics, "topics to follow")
	return cmd
}
