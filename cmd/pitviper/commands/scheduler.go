package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/pitviper/backend/internal/scheduler"
	"github.com/wonny/pitviper/backend/internal/scheduler/jobs"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduler management",
	Long: `Starts the job scheduler or runs its jobs by hand.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job now, ignoring the nightly window

Example:
  go run ./cmd/pitviper scheduler start
  go run ./cmd/pitviper scheduler run daily_advice`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler in PIT_VIPER_TZ and registers:
- daily_advice: SCHEDULE_SPEC (default 01:30), only inside 00:00-06:00
- artifact_cleanup: 04:00, prunes artifacts older than ARTIFACT_RETENTION

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerListCmd, schedulerRunCmd)
}

// newScheduler builds the scheduler with every job registered.
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	s := scheduler.New(scheduler.Options{
		Location: a.cfg.Location(),
		Window: scheduler.Window{
			Start: a.cfg.Scheduling.WindowStart,
			End:   a.cfg.Scheduling.WindowEnd,
		},
		MaxRetries: 2,
	}, a.log)

	toAdd := []scheduler.Job{
		jobs.NewAdviceJob(a.orch, a.cfg.Scheduling.Spec, a.log),
		jobs.NewArtifactCleanupJob(a.cfg.Storage.DataDir, a.cfg.Storage.Retention, a.log),
	}
	for _, job := range toAdd {
		if err := s.AddJob(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func withScheduler(fn func(ctx context.Context, a *app, s *scheduler.Scheduler) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}
	return fn(ctx, a, s)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	return withScheduler(func(ctx context.Context, a *app, s *scheduler.Scheduler) error {
		s.Start()
		a.log.WithField("jobs", s.GetAllJobs()).Info("Scheduler running, press Ctrl+C to stop")

		<-ctx.Done()
		s.Stop()
		return nil
	})
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withScheduler(func(ctx context.Context, a *app, s *scheduler.Scheduler) error {
		out := cmd.OutOrStdout()
		stats := s.GetJobStats()
		for _, name := range s.GetAllJobs() {
			fmt.Fprintf(out, "%-20s %s\n", name, stats[name].Schedule)
		}
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	return withScheduler(func(ctx context.Context, a *app, s *scheduler.Scheduler) error {
		result, err := s.RunJob(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
		}
		return nil
	})
}
