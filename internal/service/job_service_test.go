package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/repository"
	"github.com/ignatzorin/escrow-backend/internal/repository/common"
)

func validJobInput(clientID uuid.UUID) CreateJobInput {
	return CreateJobInput{
		ClientID:    clientID,
		Title:       "Парсер банковских выписок",
		Description: "Нужен сервис разбора выписок в формате CSV с выгрузкой в API",
		Skills:      []string{"go", "postgresql"},
		BudgetCents: 150000,
	}
}

func TestJobService_CreateJob_Success(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	clientID := uuid.New()
	repo.On("Create", ctx, mock.MatchedBy(func(job *models.Job) bool {
		return job.ClientID == clientID && job.Status == valueobject.JobStatusOpen
	})).Return(nil)

	job, err := svc.CreateJob(ctx, validJobInput(clientID))
	assert.NoError(t, err)
	assert.Equal(t, valueobject.Money(150000), job.BudgetCents)
	// Лимит правок не задан — берётся значение по умолчанию.
	assert.Equal(t, 3, job.AllowedRevisions)
	repo.AssertExpectations(t)
}

func TestJobService_CreateJob_ShortTitle(t *testing.T) {
	svc := NewJobService(new(mockJobRepo), &stubEmitter{}, 3)

	in := validJobInput(uuid.New())
	in.Title = "ab"
	_, err := svc.CreateJob(context.Background(), in)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestJobService_CreateJob_ZeroBudget(t *testing.T) {
	svc := NewJobService(new(mockJobRepo), &stubEmitter{}, 3)

	in := validJobInput(uuid.New())
	in.BudgetCents = 0
	_, err := svc.CreateJob(context.Background(), in)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "бюджет")
}

func TestJobService_CreateJob_NegativeBudget(t *testing.T) {
	svc := NewJobService(new(mockJobRepo), &stubEmitter{}, 3)

	in := validJobInput(uuid.New())
	in.BudgetCents = -100
	_, err := svc.CreateJob(context.Background(), in)
	assert.Error(t, err)
}

func validBidInput(jobID, freelancerID uuid.UUID) BidInput {
	return BidInput{
		JobID:         jobID,
		FreelancerID:  freelancerID,
		AmountCents:   120000,
		Proposal:      "Возьмусь, делал похожий разбор выписок в прошлом проекте",
		PayoutAddress: testPayoutAddress,
	}
}

func TestJobService_SubmitBid_Success(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: valueobject.JobStatusOpen}

	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("GetBidByFreelancer", ctx, job.ID, freelancerID).Return(nil, repository.ErrBidNotFound)
	repo.On("CreateBid", ctx, mock.MatchedBy(func(bid *models.Bid) bool {
		return bid.JobID == job.ID && bid.Status == valueobject.BidStatusPending
	})).Return(nil)

	bid, err := svc.SubmitBid(ctx, validBidInput(job.ID, freelancerID))
	assert.NoError(t, err)
	assert.Equal(t, valueobject.Money(120000), bid.AmountCents)
	repo.AssertExpectations(t)
}

func TestJobService_SubmitBid_ClosedJob(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: valueobject.JobStatusAssigned}
	repo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.SubmitBid(ctx, validBidInput(job.ID, uuid.New()))
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "закрыто для откликов")
}

func TestJobService_SubmitBid_OwnJob(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	clientID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: valueobject.JobStatusOpen}
	repo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.SubmitBid(ctx, validBidInput(job.ID, clientID))
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestJobService_SubmitBid_Duplicate(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: valueobject.JobStatusOpen}

	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("GetBidByFreelancer", ctx, job.ID, freelancerID).
		Return(&models.Bid{ID: uuid.New(), JobID: job.ID, FreelancerID: freelancerID}, nil)

	_, err := svc.SubmitBid(ctx, validBidInput(job.ID, freelancerID))
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "CreateBid", mock.Anything, mock.Anything)
}

func TestJobService_SubmitBid_BadAddress(t *testing.T) {
	svc := NewJobService(new(mockJobRepo), &stubEmitter{}, 3)

	in := validBidInput(uuid.New(), uuid.New())
	in.PayoutAddress = "0xzzz"
	_, err := svc.SubmitBid(context.Background(), in)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestJobService_AcceptBid_Success(t *testing.T) {
	repo := new(mockJobRepo)
	emitter := &stubEmitter{}
	svc := NewJobService(repo, emitter, 3)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: valueobject.JobStatusOpen}
	bid := &models.Bid{ID: uuid.New(), JobID: job.ID, FreelancerID: freelancerID}

	assigned := *job
	assigned.Status = valueobject.JobStatusAssigned
	assigned.FreelancerID = &freelancerID

	repo.On("GetBidByID", ctx, bid.ID).Return(bid, nil)
	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("Assign", ctx, job.ID, bid.ID).Return(&assigned, nil)

	got, err := svc.AcceptBid(ctx, bid.ID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusAssigned, got.Status)
	assert.Len(t, emitter.published, 1)
	assert.Equal(t, events.EventJobAssigned, emitter.published[0].Type)
	assert.Equal(t, freelancerID, emitter.published[0].Recipient)
}

func TestJobService_AcceptBid_NotOwner(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: valueobject.JobStatusOpen}
	bid := &models.Bid{ID: uuid.New(), JobID: job.ID, FreelancerID: uuid.New()}

	repo.On("GetBidByID", ctx, bid.ID).Return(bid, nil)
	repo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.AcceptBid(ctx, bid.ID, uuid.New())
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobService_AcceptBid_LosesRace(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	clientID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: valueobject.JobStatusOpen}
	bid := &models.Bid{ID: uuid.New(), JobID: job.ID, FreelancerID: uuid.New()}

	repo.On("GetBidByID", ctx, bid.ID).Return(bid, nil)
	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	// Конкурирующее принятие успело первым: compare-and-set не прошёл.
	repo.On("Assign", ctx, job.ID, bid.ID).Return(nil, common.ErrStaleStatus)

	_, err := svc.AcceptBid(ctx, bid.ID, clientID)
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "уже рассмотрен")
}

func TestJobService_MarkFunded_Success(t *testing.T) {
	repo := new(mockJobRepo)
	emitter := &stubEmitter{}
	svc := NewJobService(repo, emitter, 3)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: valueobject.JobStatusAssigned, FreelancerID: &freelancerID}

	funded := *job
	funded.Status = valueobject.JobStatusInProgress

	repo.On("GetByID", ctx, job.ID).Return(job, nil).Once()
	repo.On("MarkFunded", ctx, job.ID).Return(nil)
	repo.On("GetByID", ctx, job.ID).Return(&funded, nil).Once()

	got, err := svc.MarkFunded(ctx, job.ID, clientID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusInProgress, got.Status)
	assert.Len(t, emitter.published, 1)
	assert.Equal(t, events.EventJobFunded, emitter.published[0].Type)
}

func TestJobService_MarkFunded_WrongStatus(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	clientID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: clientID, Status: valueobject.JobStatusOpen}

	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("MarkFunded", ctx, job.ID).Return(common.ErrStaleStatus)

	_, err := svc.MarkFunded(ctx, job.ID, clientID)
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestJobService_ListBids_FreelancerSeesOwn(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	freelancerID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: valueobject.JobStatusOpen}
	own := models.Bid{ID: uuid.New(), JobID: job.ID, FreelancerID: freelancerID}

	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("GetBidByFreelancer", ctx, job.ID, freelancerID).Return(&own, nil)

	bids, err := svc.ListBids(ctx, job.ID, freelancerID)
	assert.NoError(t, err)
	assert.Len(t, bids, 1)
	assert.Equal(t, own.ID, bids[0].ID)
	repo.AssertNotCalled(t, "ListBids", mock.Anything, mock.Anything)
}

func TestJobService_ListBids_NoOwnBid(t *testing.T) {
	repo := new(mockJobRepo)
	svc := NewJobService(repo, &stubEmitter{}, 3)
	ctx := context.Background()

	actorID := uuid.New()
	job := &models.Job{ID: uuid.New(), ClientID: uuid.New(), Status: valueobject.JobStatusOpen}

	repo.On("GetByID", ctx, job.ID).Return(job, nil)
	repo.On("GetBidByFreelancer", ctx, job.ID, actorID).Return(nil, repository.ErrBidNotFound)

	bids, err := svc.ListBids(ctx, job.ID, actorID)
	assert.NoError(t, err)
	assert.Empty(t, bids)
}
