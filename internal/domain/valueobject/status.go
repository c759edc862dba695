package valueobject

import "github.com/ignatzorin/escrow-backend/internal/pkg/apperror"

type JobStatus string

const (
	JobStatusOpen              JobStatus = "open"
	JobStatusAssigned          JobStatus = "assigned"
	JobStatusInProgress        JobStatus = "in_progress"
	JobStatusRevisionRequested JobStatus = "revision_requested"
	JobStatusDisputed          JobStatus = "disputed"
	JobStatusCompleted         JobStatus = "completed"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusOpen, JobStatusAssigned, JobStatusInProgress,
		JobStatusRevisionRequested, JobStatusDisputed, JobStatusCompleted:
		return true
	}
	return false
}

// IsTerminal сообщает, допускаются ли дальнейшие изменения задания.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted
}

func (s JobStatus) CanTransitionTo(newStatus JobStatus) bool {
	transitions := map[JobStatus][]JobStatus{
		JobStatusOpen:              {JobStatusAssigned, JobStatusDisputed},
		JobStatusAssigned:          {JobStatusInProgress, JobStatusDisputed},
		JobStatusInProgress:        {JobStatusRevisionRequested, JobStatusDisputed, JobStatusCompleted},
		JobStatusRevisionRequested: {JobStatusInProgress, JobStatusDisputed},
		JobStatusDisputed:          {JobStatusCompleted},
		JobStatusCompleted:         {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewJobStatus(status string) (JobStatus, error) {
	s := JobStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус задания")
	}
	return s, nil
}

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	}
	return false
}

// IsResolved сообщает, что отклик уже принят или отклонён.
func (s BidStatus) IsResolved() bool {
	return s == BidStatusAccepted || s == BidStatusRejected
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

func (s DisputeStatus) IsValid() bool {
	return s == DisputeStatusOpen || s == DisputeStatusResolved
}

type SettlementStatus string

const (
	SettlementStatusCompleted SettlementStatus = "completed"
)

// ReleaseTrigger описывает причину запуска выплаты.
type ReleaseTrigger string

const (
	TriggerManualApproval    ReleaseTrigger = "manual_approval"
	TriggerAutoRelease       ReleaseTrigger = "auto_release"
	TriggerDisputeResolution ReleaseTrigger = "dispute_resolution"
)
