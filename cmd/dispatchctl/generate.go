package main

import (
	"encoding/json"
	"fmt"
	"time"
	"waste-dispatch-service/internal/adapters/events"
	"waste-dispatch-service/internal/adapters/repositories"
	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/ports"
	"waste-dispatch-service/internal/services"

	"github.com/spf13/cobra"
)

// newGenerateCommand runs one route generation; schedulers call it on a timer.
func newGenerateCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a route from pending collection demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			var planned *time.Time
			if date != "" {
				d, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				planned = &d
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			var publisher ports.EventPublisher = events.NopPublisher{}
			if cfg.Redis.Enabled {
				client, err := events.NewRedisClient(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					return err
				}
				defer client.Close()
				publisher = events.NewRedisPublisher(client, cfg.Redis.Channel, logger)
			}

			d := services.NewDispatcher(repositories.NewPostgresUnitOfWork(conn),
				services.WithLogger(logger),
				services.WithPublisher(publisher),
				services.WithPolicy(services.Policy{
					FillThreshold:   cfg.Dispatch.FillThreshold,
					FallbackEnabled: cfg.Dispatch.FallbackEnabled,
					UnlockOnCancel:  cfg.Dispatch.UnlockOnCancel,
				}),
			)

			route, err := d.GenerateRoute(cmd.Context(), planned)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewRouteResponse(route))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Planned date (YYYY-MM-DD, default today)")
	return cmd
}
