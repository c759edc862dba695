package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/validation"
)

// RevisionStore описывает хранилище сдач работы.
type RevisionStore interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Revision, error)
	RequestRevision(ctx context.Context, jobID uuid.UUID, fromRevision int, notes string) error
	SubmitRevision(ctx context.Context, rev *models.Revision, from valueobject.JobStatus, reviewDeadline time.Time) error
}

// RevisionService ведёт учёт сдач и запросов правок. Счётчик правок
// монотонный: каждый учтённый запрос увеличивает его ровно на единицу,
// и выше лимита задания он не поднимается.
type RevisionService struct {
	jobs    JobGetter
	store   RevisionStore
	emitter events.Emitter

	reviewWindow time.Duration
}

// NewRevisionService создаёт сервис правок.
func NewRevisionService(jobs JobGetter, store RevisionStore, emitter events.Emitter, reviewWindow time.Duration) *RevisionService {
	if reviewWindow <= 0 {
		reviewWindow = 72 * time.Hour
	}
	return &RevisionService{
		jobs:         jobs,
		store:        store,
		emitter:      emitter,
		reviewWindow: reviewWindow,
	}
}

// SubmitInput — сдача работы фрилансером.
type SubmitInput struct {
	JobID          uuid.UUID
	ActorID        uuid.UUID
	ArtifactHash   string
	ArtifactCommit *string
	Notes          *string
}

// ListRevisions возвращает историю сдач по заданию. Историю видят
// только стороны задания.
func (s *RevisionService) ListRevisions(ctx context.Context, jobID, actorID uuid.UUID) ([]models.Revision, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !isParty(job, actorID) {
		return nil, apperror.ErrForbidden
	}
	return s.store.ListByJob(ctx, jobID)
}

// RequestRevision — запрос правки заказчиком: in_progress ->
// revision_requested, счётчик правок увеличивается. Замечания к работе
// обязательны: фрилансер должен понимать, что исправлять. По исчерпании
// лимита возвращается LIMIT_EXCEEDED: дальше только приёмка или спор.
func (s *RevisionService) RequestRevision(ctx context.Context, jobID, actorID uuid.UUID, notes string) (*models.Job, error) {
	if err := validation.ValidateLength("замечания", notes, 1, validation.MaxNotesLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != valueobject.JobStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание не ожидает приёмки")
	}
	if job.ArtifactHash == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "работа ещё не сдана")
	}
	if job.CurrentRevision >= job.AllowedRevisions {
		return nil, apperror.New(apperror.ErrCodeLimitExceeded, "лимит правок исчерпан")
	}

	if err := s.store.RequestRevision(ctx, jobID, job.CurrentRevision, notes); err != nil {
		return nil, mapRepoError(err, "состояние задания изменилось, повторите запрос")
	}

	updated, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if updated.FreelancerID != nil {
		s.emitter.Emit(events.Event{
			Recipient: *updated.FreelancerID,
			Type:      events.EventRevisionRequested,
			Data:      updated,
		})
	}

	return updated, nil
}

// Submit — сдача работы фрилансером: первая сдача из in_progress или
// ответ на запрос правки из revision_requested. В обоих случаях задание
// оказывается в in_progress с новым артефактом и свежим окном приёмки.
func (s *RevisionService) Submit(ctx context.Context, in SubmitInput) (*models.Revision, error) {
	if err := validation.ValidateArtifactHash(in.ArtifactHash); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if in.Notes != nil && len(*in.Notes) > validation.MaxNotesLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "комментарий слишком длинный")
	}

	job, err := s.getJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.FreelancerID == nil || *job.FreelancerID != in.ActorID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != valueobject.JobStatusInProgress && job.Status != valueobject.JobStatusRevisionRequested {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание не принимает сдачу работы")
	}

	rev := &models.Revision{
		JobID:          in.JobID,
		ArtifactHash:   in.ArtifactHash,
		ArtifactCommit: in.ArtifactCommit,
		SubmittedBy:    in.ActorID,
		Notes:          in.Notes,
	}

	deadline := time.Now().Add(s.reviewWindow)
	if err := s.store.SubmitRevision(ctx, rev, job.Status, deadline); err != nil {
		return nil, mapRepoError(err, "состояние задания изменилось, повторите сдачу")
	}

	s.emitter.Emit(events.Event{
		Recipient: job.ClientID,
		Type:      events.EventRevisionSubmitted,
		Data:      rev,
	})

	return rev, nil
}

func (s *RevisionService) getJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	return job, nil
}

// isParty сообщает, является ли пользователь стороной задания.
func isParty(job *models.Job, userID uuid.UUID) bool {
	if job.ClientID == userID {
		return true
	}
	return job.FreelancerID != nil && *job.FreelancerID == userID
}
