package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/pitviper/backend/internal/api"
	"github.com/wonny/pitviper/backend/internal/api/handlers"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health               - health check (postgres, redis when configured)
  GET  /api/advice/latest    - last advice packet
  POST /api/advice/run       - run the pipeline now
  GET  /api/advice/stream    - websocket feed of new packets
  GET  /api/jobs             - scheduler statistics (with --scheduler)
  GET  /metrics              - Prometheus metrics

Example:
  go run ./cmd/pitviper api
  go run ./cmd/pitviper api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default: PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "also run the job scheduler")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	routes := api.Routes{}
	var store handlers.PacketStore
	if a.runs != nil {
		store = a.runs
	}
	routes.Advice = handlers.NewAdviceHandler(a.orch, a.cache, store, log)
	routes.Stream = a.hub
	routes.Checks = map[string]api.HealthCheck{}
	if a.db != nil {
		routes.Checks["postgres"] = func(ctx context.Context) error {
			_, err := a.db.HealthCheck(ctx)
			return err
		}
	}
	if a.redis.Enabled() {
		routes.Checks["redis"] = a.redis.Ping
	}
	if a.metrics != nil {
		routes.Metrics = a.metrics.Handler()
	}

	if apiScheduler {
		s, err := newScheduler(a)
		if err != nil {
			return err
		}
		s.Start()
		defer s.Stop()
		routes.Jobs = handlers.NewJobsHandler(s)
	}

	server := api.New(cfg, log, api.NewRouter(routes, log))
	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
