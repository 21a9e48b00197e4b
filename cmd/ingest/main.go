// Command ingest is the Smart Pet Care telemetry CLI.
//
// Usage:
//
//	petcare-ingest reading --water 25 --temperature 29.5
//	petcare-ingest reading --activity
//	petcare-ingest profile --name Toby --breed Beagle --photo toby.jpg
//	petcare-ingest listen
//	petcare-ingest stats
//	petcare-ingest purge events
//	petcare-ingest purge expired
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/petcare-telemetry/internal/activity"
	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
	"github.com/albapepper/petcare-telemetry/internal/listener"
	"github.com/albapepper/petcare-telemetry/internal/maintenance"
	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/notifications"
	"github.com/albapepper/petcare-telemetry/internal/store"
	"github.com/albapepper/petcare-telemetry/internal/store/backend"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "petcare-ingest",
		Short: "Smart Pet Care telemetry CLI",
	}

	root.AddCommand(readingCmd())
	root.AddCommand(profileCmd())
	root.AddCommand(listenCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(purgeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// reading command
// --------------------------------------------------------------------------

func readingCmd() *cobra.Command {
	var (
		meals       int
		water       float64
		humidity    float64
		temperature float64
		active      bool
		at          string
	)
	cmd := &cobra.Command{
		Use:   "reading",
		Short: "Apply one telemetry reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			recordedAt := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				recordedAt = t
			}

			r := &ingest.Reading{RecordedAt: &recordedAt}
			flags := cmd.Flags()
			if flags.Changed("meals") {
				r.Meals = model.Some(meals)
			}
			if flags.Changed("water") {
				r.Water = model.Some(water)
			}
			if flags.Changed("humidity") {
				r.Humidity = model.Some(humidity)
			}
			if flags.Changed("temperature") {
				r.Temperature = model.Some(temperature)
			}
			if flags.Changed("activity") {
				r.ActivityDetected = &active
			}

			return runIngest(func(ctx context.Context, svc *ingest.Service) error {
				res, err := svc.Ingest(ctx, r)
				if err != nil {
					return err
				}
				for _, n := range res.Notifications {
					logger.Info("Notification", "type", n.Kind, "title", n.Title, "message", n.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&meals, "meals", 0, "Meals eaten today")
	cmd.Flags().Float64Var(&water, "water", 0, "Water level (0-100)")
	cmd.Flags().Float64Var(&humidity, "humidity", 0, "Relative humidity (0-100)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Ambient temperature in °C")
	cmd.Flags().BoolVar(&active, "activity", false, "Report a motion pulse")
	cmd.Flags().StringVar(&at, "at", "", "Reading time (RFC 3339); defaults to now")
	return cmd
}

// --------------------------------------------------------------------------
// profile command
// --------------------------------------------------------------------------

func profileCmd() *cobra.Command {
	var (
		name      string
		breed     string
		birthDate string
		weight    float64
		photoPath string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Create or update the pet profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &ingest.Profile{Name: name}
			flags := cmd.Flags()
			if flags.Changed("breed") {
				p.Breed = model.Some(breed)
			}
			if flags.Changed("birth-date") {
				p.BirthDate = model.Some(birthDate)
			}
			if flags.Changed("weight") {
				p.Weight = model.Some(weight)
			}
			if photoPath != "" {
				data, err := os.ReadFile(photoPath)
				if err != nil {
					return fmt.Errorf("read photo: %w", err)
				}
				p.Photo = model.Some(fmt.Sprintf("data:%s;base64,%s",
					http.DetectContentType(data), base64.StdEncoding.EncodeToString(data)))
			}

			return runIngest(func(ctx context.Context, svc *ingest.Service) error {
				res, err := svc.UpdateProfile(ctx, p)
				if err != nil {
					return err
				}
				logger.Info("Profile stored", "pet_id", res.Entity.ID, "name", res.Entity.Name, "created", res.Created)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Pet name (required)")
	cmd.Flags().StringVar(&breed, "breed", "", "Breed")
	cmd.Flags().StringVar(&birthDate, "birth-date", "", "Birth date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight in kg")
	cmd.Flags().StringVar(&photoPath, "photo", "", "Path to a photo file")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// --------------------------------------------------------------------------
// listen command
// --------------------------------------------------------------------------

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Consume readings from the MQTT broker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				svc, stop := newIngestService(cfg, st)
				defer stop()

				l := listener.New(cfg, svc, logger)
				if l == nil {
					return fmt.Errorf("MQTT_BROKER_URL is required")
				}
				l.Start(ctx)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print activity statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				stats, err := activity.NewService(st).Stats(ctx, time.Now())
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			})
		},
	}
}

// --------------------------------------------------------------------------
// purge command
// --------------------------------------------------------------------------

func purgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored activity events or notifications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "events",
		Short: "Delete the whole activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				n, err := st.PurgeEvents(ctx)
				if err != nil {
					return err
				}
				logger.Info("Activity log purged", "deleted", n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "notifications",
		Short: "Delete every stored notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				n, err := st.PurgeNotifications(ctx)
				if err != nil {
					return err
				}
				logger.Info("Notifications purged", "deleted", n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "expired",
		Short: "Apply the retention policy once (EVENT_RETENTION, NOTIFICATION_RETENTION)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				mc := maintenance.ConfigFrom(cfg)
				if mc.EventRetention <= 0 && mc.NotificationRetention <= 0 {
					return fmt.Errorf("set EVENT_RETENTION and/or NOTIFICATION_RETENTION to choose what expires")
				}
				start := time.Now()
				res, err := maintenance.Prune(ctx, st, mc, start)
				logger.Info("Retention pass finished",
					"events", res.Events,
					"notifications", res.Notifications,
					"duration", time.Since(start).Round(time.Millisecond))
				return err
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runStore handles config loading, store connection, and context cancellation.
func runStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(ctx, cfg, st)
}

// runIngest runs fn against an ingest service whose notifications are
// pushed before the command exits.
func runIngest(fn func(ctx context.Context, svc *ingest.Service) error) error {
	return runStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
		svc, stop := newIngestService(cfg, st)
		defer stop()
		return fn(ctx, svc)
	})
}

// newIngestService wires the ingest service to the delivery pipeline, so
// CLI ingestion pushes and publishes like the API does. stop closes the
// queue and waits for pending deliveries.
func newIngestService(cfg *config.Config, st store.Store) (*ingest.Service, func()) {
	pipeline := notifications.StartPipeline(cfg, st, logger)

	svc := ingest.NewService(st, ingest.Options{
		Rules: notifications.Rules{
			LowWaterMark:    cfg.LowWaterMark,
			HighTemperature: cfg.HighTemperature,
			Cooldown:        cfg.AlertCooldown,
		},
		MaxAttempts: cfg.IngestMaxRetries,
		Queue:       pipeline.Worker,
		Logger:      logger,
	})

	return svc, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = pipeline.Stop(ctx)
	}
}
