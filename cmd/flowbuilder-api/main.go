package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dukex/flowbuilder/pkg/cmd"
	"github.com/dukex/flowbuilder/pkg/log"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/registry"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "flowbuilder-api",
		Usage:                 "Build, validate and store email automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Workflow store URL (memory://, file://path, postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "drafts-url",
				Usage:   "Draft cache URL (memory:// or redis://host:port/db)",
				Value:   "memory://",
				Sources: cli.EnvVars("DRAFTS_URL"),
			},
			&cli.DurationFlag{
				Name:    "draft-ttl",
				Usage:   "How long an untouched draft is kept (0 keeps drafts until deleted)",
				Value:   7 * 24 * time.Hour,
				Sources: cli.EnvVars("DRAFT_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka broker addresses",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "HS256 secret of session tokens; empty disables authentication",
				Sources: cli.EnvVars("JWT_SECRET"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json, pretty)",
				Value:   log.FormatText,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")
	logger.InfoContext(ctx, "Initializing Flowbuilder API")

	var opts []APIOption

	if command.Bool("tracing") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "flowbuilder-api")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		opts = append(opts, WithTracer(tracer))
	}

	opts = append(opts, WithJWTSecret(command.String("jwt-secret")))

	catalog, err := registry.Default()
	if err != nil {
		return err
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.Background()); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	draftStore, err := cmd.NewDraftStore(ctx, logger, command.String("drafts-url"), command.Duration("draft-ttl"))
	if err != nil {
		return err
	}

	defer func() {
		if err := draftStore.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close draft cache", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), splitBrokers(command.String("kafka-brokers")), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if err := subscribeAuditLog(ctx, eventBus, log.WithModule("audit")); err != nil {
		return fmt.Errorf("failed to subscribe audit log: %w", err)
	}

	api := NewAPI(logger, persistence, draftStore, catalog, eventBus, opts...)

	return api.Start(ctx, command.Int("port"))
}

func splitBrokers(value string) []string {
	var brokers []string

	for _, broker := range strings.Split(value, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return brokers
}
