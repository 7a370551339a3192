package jobs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/pitviper/backend/pkg/logger"
)

// ArtifactCleanupJob removes artifact files older than the retention period.
type ArtifactCleanupJob struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// NewArtifactCleanupJob creates a cleanup job over the data directory.
func NewArtifactCleanupJob(dir string, retention time.Duration, log *logger.Logger) *ArtifactCleanupJob {
	return &ArtifactCleanupJob{
		dir:       dir,
		retention: retention,
		now:       time.Now,
		logger:    log,
	}
}

// Name returns the job name
func (j *ArtifactCleanupJob) Name() string {
	return "artifact_cleanup"
}

// Schedule returns the cron schedule (04:00 daily)
func (j *ArtifactCleanupJob) Schedule() string {
	return "0 0 4 * * *"
}

// Run deletes expired files. A missing data directory is not an error.
func (j *ArtifactCleanupJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return nil
	}
	cutoff := j.now().Add(-j.retention)
	removed := 0

	err := filepath.WalkDir(j.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove %s: %w", path, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Artifact cleanup completed")
	}
	return nil
}
