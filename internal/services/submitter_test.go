package services

import (
	"context"
	"errors"
	"route-map-client/internal/adapters/optimizer"
	"route-map-client/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmitterCreatesPendingJobWithSnapshot(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	m.Queue("task-7")
	sub := NewSubmitter(m, nil)

	job, err := sub.Submit(context.Background(), []byte(obeliscoInput))
	require.NoError(t, err)
	require.Equal(t, "task-7", job.ID)
	require.Equal(t, domain.JobStatusPending, job.Status)
	require.Equal(t, 3, job.Snapshot.Len())
	require.False(t, job.SubmittedAt.IsZero())

	first, _ := job.Snapshot.At(0)
	require.Equal(t, "Obelisco", first.Address)
}

func TestSubmitterWrapsServiceErrors(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	cause := errors.New("503 broker unavailable")
	m.FailSubmit(cause)
	sub := NewSubmitter(m, nil)

	job, err := sub.Submit(context.Background(), []byte(obeliscoInput))
	require.Nil(t, job)

	var se *domain.SubmissionError
	require.True(t, errors.As(err, &se))
	require.ErrorIs(t, err, cause)
}

func TestSubmitterRejectsBeforeNetwork(t *testing.T) {
	m := optimizer.NewMockOptimizer()
	sub := NewSubmitter(m, nil)

	_, err := sub.Submit(context.Background(), []byte(`not json`))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Empty(t, m.Submitted())
}
