package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, JobStatusOpen.CanTransitionTo(JobStatusAssigned))
	assert.True(t, JobStatusAssigned.CanTransitionTo(JobStatusInProgress))
	assert.True(t, JobStatusInProgress.CanTransitionTo(JobStatusRevisionRequested))
	assert.True(t, JobStatusRevisionRequested.CanTransitionTo(JobStatusInProgress))
	assert.True(t, JobStatusInProgress.CanTransitionTo(JobStatusCompleted))
	assert.True(t, JobStatusDisputed.CanTransitionTo(JobStatusCompleted))

	// Завершённое задание неизменяемо.
	assert.False(t, JobStatusCompleted.CanTransitionTo(JobStatusOpen))
	assert.False(t, JobStatusCompleted.CanTransitionTo(JobStatusDisputed))

	// Перепрыгивать стадии нельзя.
	assert.False(t, JobStatusOpen.CanTransitionTo(JobStatusInProgress))
	assert.False(t, JobStatusOpen.CanTransitionTo(JobStatusCompleted))
	assert.False(t, JobStatusAssigned.CanTransitionTo(JobStatusCompleted))
	assert.False(t, JobStatusRevisionRequested.CanTransitionTo(JobStatusCompleted))

	// Из спора нет возврата в работу.
	assert.False(t, JobStatusDisputed.CanTransitionTo(JobStatusInProgress))
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.False(t, JobStatusDisputed.IsTerminal())
	assert.False(t, JobStatusOpen.IsTerminal())
}

func TestNewJobStatus(t *testing.T) {
	s, err := NewJobStatus("in_progress")
	assert.NoError(t, err)
	assert.Equal(t, JobStatusInProgress, s)

	_, err = NewJobStatus("paused")
	assert.Error(t, err)
}

func TestBidStatus_IsResolved(t *testing.T) {
	assert.False(t, BidStatusPending.IsResolved())
	assert.True(t, BidStatusAccepted.IsResolved())
	assert.True(t, BidStatusRejected.IsResolved())
}
