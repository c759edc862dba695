package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/validation"
)

const testArtifactHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func revisionJob(clientID, freelancerID uuid.UUID) *models.Job {
	job := inProgressJob(clientID, freelancerID)
	job.AllowedRevisions = 2
	job.CurrentRevision = 0
	return job
}

func TestRevisionService_Request_Success(t *testing.T) {
	jobs := new(mockJobRepo)
	store := new(mockRevisionStore)
	emitter := &stubEmitter{}
	svc := NewRevisionService(jobs, store, emitter, 72*time.Hour)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	job := revisionJob(clientID, freelancerID)

	notes := "поправьте вёрстку шапки"
	updated := *job
	updated.Status = valueobject.JobStatusRevisionRequested
	updated.CurrentRevision = 1
	updated.RevisionNotes = &notes

	jobs.On("GetByID", ctx, job.ID).Return(job, nil).Once()
	store.On("RequestRevision", ctx, job.ID, 0, "поправьте вёрстку шапки").Return(nil)
	jobs.On("GetByID", ctx, job.ID).Return(&updated, nil).Once()

	got, err := svc.RequestRevision(ctx, job.ID, clientID, "поправьте вёрстку шапки")
	assert.NoError(t, err)
	assert.Equal(t, 1, got.CurrentRevision)
	assert.Equal(t, valueobject.JobStatusRevisionRequested, got.Status)
	assert.Len(t, emitter.published, 1)
	assert.Equal(t, events.EventRevisionRequested, emitter.published[0].Type)
	assert.Equal(t, freelancerID, emitter.published[0].Recipient)
	// Фрилансер получает задание вместе с замечаниями заказчика.
	emitted := emitter.published[0].Data.(*models.Job)
	assert.Equal(t, notes, *emitted.RevisionNotes)
	store.AssertExpectations(t)
}

func TestRevisionService_Request_MissingNotes(t *testing.T) {
	jobs := new(mockJobRepo)
	store := new(mockRevisionStore)
	svc := NewRevisionService(jobs, store, &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	// Без замечаний запрос не доходит даже до чтения задания.
	_, err := svc.RequestRevision(ctx, uuid.New(), uuid.New(), "")
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	jobs.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "RequestRevision", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRevisionService_Request_NotesTooLong(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewRevisionService(jobs, new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	long := strings.Repeat("а", validation.MaxNotesLength+1)
	_, err := svc.RequestRevision(ctx, uuid.New(), uuid.New(), long)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRevisionService_Request_LimitExhausted(t *testing.T) {
	jobs := new(mockJobRepo)
	store := new(mockRevisionStore)
	svc := NewRevisionService(jobs, store, &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	clientID := uuid.New()
	job := revisionJob(clientID, uuid.New())
	job.CurrentRevision = 2

	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.RequestRevision(ctx, job.ID, clientID, "ещё одна правка")
	assert.Error(t, err)
	assert.True(t, apperror.IsLimitExceeded(err))
	assert.Contains(t, err.Error(), "лимит правок")
	store.AssertNotCalled(t, "RequestRevision", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRevisionService_Request_NotClient(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewRevisionService(jobs, new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := revisionJob(uuid.New(), freelancerID)
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	// Исполнитель не может запросить правку у самого себя.
	_, err := svc.RequestRevision(ctx, job.ID, freelancerID, "сам себе замечание")
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRevisionService_Request_NoArtifact(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewRevisionService(jobs, new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	clientID := uuid.New()
	job := revisionJob(clientID, uuid.New())
	job.ArtifactHash = nil
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.RequestRevision(ctx, job.ID, clientID, "нечего править")
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestRevisionService_Submit_FirstDelivery(t *testing.T) {
	jobs := new(mockJobRepo)
	store := new(mockRevisionStore)
	emitter := &stubEmitter{}
	svc := NewRevisionService(jobs, store, emitter, 48*time.Hour)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	job := revisionJob(clientID, freelancerID)

	jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	store.On("SubmitRevision", ctx, mock.MatchedBy(func(rev *models.Revision) bool {
		return rev.JobID == job.ID && rev.ArtifactHash == testArtifactHash && rev.SubmittedBy == freelancerID
	}), valueobject.JobStatusInProgress, mock.MatchedBy(func(deadline time.Time) bool {
		return deadline.After(time.Now().Add(47 * time.Hour))
	})).Return(nil)

	rev, err := svc.Submit(ctx, SubmitInput{
		JobID:        job.ID,
		ActorID:      freelancerID,
		ArtifactHash: testArtifactHash,
	})
	assert.NoError(t, err)
	assert.Equal(t, testArtifactHash, rev.ArtifactHash)
	assert.Len(t, emitter.published, 1)
	assert.Equal(t, events.EventRevisionSubmitted, emitter.published[0].Type)
	assert.Equal(t, clientID, emitter.published[0].Recipient)
	store.AssertExpectations(t)
}

func TestRevisionService_Submit_AfterRevisionRequest(t *testing.T) {
	jobs := new(mockJobRepo)
	store := new(mockRevisionStore)
	svc := NewRevisionService(jobs, store, &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := revisionJob(uuid.New(), freelancerID)
	job.Status = valueobject.JobStatusRevisionRequested
	job.CurrentRevision = 1

	jobs.On("GetByID", ctx, job.ID).Return(job, nil)
	store.On("SubmitRevision", ctx, mock.Anything, valueobject.JobStatusRevisionRequested, mock.Anything).Return(nil)

	_, err := svc.Submit(ctx, SubmitInput{
		JobID:        job.ID,
		ActorID:      freelancerID,
		ArtifactHash: testArtifactHash,
	})
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRevisionService_Submit_NotFreelancer(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewRevisionService(jobs, new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	clientID := uuid.New()
	job := revisionJob(clientID, uuid.New())
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.Submit(ctx, SubmitInput{
		JobID:        job.ID,
		ActorID:      clientID,
		ArtifactHash: testArtifactHash,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRevisionService_Submit_BadArtifactHash(t *testing.T) {
	svc := NewRevisionService(new(mockJobRepo), new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)

	_, err := svc.Submit(context.Background(), SubmitInput{
		JobID:        uuid.New(),
		ActorID:      uuid.New(),
		ArtifactHash: "не-хэш",
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "хэш артефакта")
}

func TestRevisionService_Submit_WrongStatus(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewRevisionService(jobs, new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := revisionJob(uuid.New(), freelancerID)
	job.Status = valueobject.JobStatusDisputed
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.Submit(ctx, SubmitInput{
		JobID:        job.ID,
		ActorID:      freelancerID,
		ArtifactHash: testArtifactHash,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestRevisionService_Submit_NotesTooLong(t *testing.T) {
	svc := NewRevisionService(new(mockJobRepo), new(mockRevisionStore), &stubEmitter{}, 72*time.Hour)

	notes := strings.Repeat("а", 5001)
	_, err := svc.Submit(context.Background(), SubmitInput{
		JobID:        uuid.New(),
		ActorID:      uuid.New(),
		ArtifactHash: testArtifactHash,
		Notes:        &notes,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRevisionService_List_OnlyParties(t *testing.T) {
	jobs := new(mockJobRepo)
	store := new(mockRevisionStore)
	svc := NewRevisionService(jobs, store, &stubEmitter{}, 72*time.Hour)
	ctx := context.Background()

	job := revisionJob(uuid.New(), uuid.New())
	jobs.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.ListRevisions(ctx, job.ID, uuid.New())
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	store.AssertNotCalled(t, "ListByJob", mock.Anything, mock.Anything)
}
