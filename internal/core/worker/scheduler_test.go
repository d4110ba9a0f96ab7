package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bailee1531/CS499-BankManagement-sub000/internal/core/domain"
)

func countingJob(name string, cadence Cadence, runs *int) Job {
	return Job{
		Name:    name,
		Cadence: cadence,
		Run: func(ctx context.Context) ([]domain.Outcome, error) {
			*runs++
			return []domain.Outcome{domain.SuccessOutcome("item", "done")}, nil
		},
	}
}

func TestScheduler_DailyCadence(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	sched, err := New(Config{Clock: func() time.Time { return now }})
	require.NoError(t, err)

	runs := 0
	sched.Register(countingJob("process-scheduled-bills", Daily, &runs))

	// several ticks on the same day run the job once
	sched.RunDue(context.Background())
	sched.RunDue(context.Background())
	assert.Equal(t, 1, runs)

	// next day it fires again
	now = now.AddDate(0, 0, 1)
	sched.RunDue(context.Background())
	assert.Equal(t, 2, runs)
}

func TestScheduler_MonthlyCadence(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	sched, err := New(Config{Clock: func() time.Time { return now }})
	require.NoError(t, err)

	runs := 0
	sched.Register(countingJob("interest-compounding", Monthly, &runs))

	// mid-month ticks never fire a monthly job
	sched.RunDue(context.Background())
	assert.Equal(t, 0, runs)

	// first of the month fires it exactly once
	now = time.Date(2025, 7, 1, 0, 1, 0, 0, time.UTC)
	sched.RunDue(context.Background())
	sched.RunDue(context.Background())
	assert.Equal(t, 1, runs)

	now = time.Date(2025, 8, 1, 0, 1, 0, 0, time.UTC)
	sched.RunDue(context.Background())
	assert.Equal(t, 2, runs)
}

func TestScheduler_RunNow(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 1, 0, 0, time.UTC)
	sched, err := New(Config{Clock: func() time.Time { return now }})
	require.NoError(t, err)

	runs := 0
	sched.Register(countingJob("generate-statements", Monthly, &runs))

	// manual trigger ignores cadence
	outcomes, err := sched.RunNow(context.Background(), "generate-statements")
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, 1, runs)

	_, err = sched.RunNow(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduler_Jobs(t *testing.T) {
	sched, err := New(Config{Clock: time.Now})
	require.NoError(t, err)

	runs := 0
	sched.Register(
		countingJob("a", Daily, &runs),
		countingJob("b", Monthly, &runs),
	)
	assert.Equal(t, []string{"a", "b"}, sched.Jobs())
}
