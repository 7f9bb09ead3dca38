package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sgfcp/internal/amqp"
	applog "sgfcp/internal/log"
)

func notifyCommand() *cobra.Command {
	var (
		source    string
		resources []string
	)
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Announce that backend data changed",
		Long:  `Publishes a data-changed message so running dashboards show the "new data available" banner.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			logger := SetupLogger(cfg).WithComponent(applog.ComponentCLI)

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			msg := amqp.NewDataChangedMessage(source, resources...)
			if err := client.PublishDataChanged(cmd.Context(), msg); err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published data change from %s %v\n", msg.Source, msg.Resources)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "cli", "Name of the system reporting the change")
	cmd.Flags().StringSliceVar(&resources, "resource", nil, "Changed resource (trips, expenses, advances, drivers, trucks, clients); repeatable")
	return cmd
}
