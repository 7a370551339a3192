package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(context.Context) (*contracts.AdvicePacket, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.AdvicePacket{RunID: "r1"}, nil
}

func TestAdviceJob(t *testing.T) {
	runner := &fakeRunner{}
	job := NewAdviceJob(runner, "", logger.Nop())

	assert.Equal(t, "daily_advice", job.Name())
	assert.Equal(t, DefaultAdviceSchedule, job.Schedule())
	assert.True(t, job.RequiresWindow())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, runner.calls)

	failing := NewAdviceJob(&fakeRunner{err: errors.New("S5 failed")}, "0 0 2 * * *", logger.Nop())
	assert.Equal(t, "0 0 2 * * *", failing.Schedule())
	assert.ErrorContains(t, failing.Run(context.Background()), "S5 failed")
}

func TestArtifactCleanupJob(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

	write := func(rel string, age time.Duration) string {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		mod := now.Add(-age)
		require.NoError(t, os.Chtimes(path, mod, mod))
		return path
	}
	old := write("advice/advice_20240101.json", 60*24*time.Hour)
	fresh := write("advice/advice_20240229.json", 24*time.Hour)

	job := NewArtifactCleanupJob(dir, 30*24*time.Hour, logger.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestArtifactCleanupJob_MissingDir(t *testing.T) {
	job := NewArtifactCleanupJob(filepath.Join(t.TempDir(), "absent"), time.Hour, logger.Nop())
	assert.NoError(t, job.Run(context.Background()))
}

func TestArtifactCleanupJob_Disabled(t *testing.T) {
	job := NewArtifactCleanupJob("/does/not/matter", 0, logger.Nop())
	assert.NoError(t, job.Run(context.Background()))
}
