package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// DefaultAdviceSchedule is 01:30 every day, inside the nightly window.
const DefaultAdviceSchedule = "0 30 1 * * *"

// AdviceRunner runs the daily advice pipeline once.
type AdviceRunner interface {
	Run(ctx context.Context) (*contracts.AdvicePacket, error)
}

// AdviceJob runs the advice pipeline on a schedule.
type AdviceJob struct {
	runner   AdviceRunner
	schedule string
	logger   *logger.Logger
}

// NewAdviceJob creates the daily advice job. An empty schedule uses
// DefaultAdviceSchedule.
func NewAdviceJob(runner AdviceRunner, schedule string, log *logger.Logger) *AdviceJob {
	if schedule == "" {
		schedule = DefaultAdviceSchedule
	}
	return &AdviceJob{runner: runner, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *AdviceJob) Name() string {
	return "daily_advice"
}

// Schedule returns the cron schedule
func (j *AdviceJob) Schedule() string {
	return j.schedule
}

// RequiresWindow keeps the advice run inside the nightly window.
func (j *AdviceJob) RequiresWindow() bool {
	return true
}

// Run executes the advice pipeline
func (j *AdviceJob) Run(ctx context.Context) error {
	packet, err := j.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("advice run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   packet.RunID,
		"top":      len(packet.Recommendations.Top),
		"provider": packet.Advice.Provider,
	}).Info("Scheduled advice run finished")
	return nil
}
