package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/chain"
	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/repository"
	"github.com/ignatzorin/escrow-backend/internal/validation"
)

// JobRepository описывает взаимодействие сервиса с хранилищем заданий.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	List(ctx context.Context, params repository.ListFilterParams) ([]models.Job, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error)
	CreateBid(ctx context.Context, bid *models.Bid) error
	GetBidByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error)
	GetBidByFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (*models.Bid, error)
	ListBidsByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error)
	Assign(ctx context.Context, jobID, bidID uuid.UUID) (*models.Job, error)
	MarkFunded(ctx context.Context, jobID uuid.UUID) error
}

// JobService содержит бизнес-логику реестра заданий и подбора откликов.
type JobService struct {
	repo    JobRepository
	emitter events.Emitter

	defaultAllowedRevisions int
}

// NewJobService создаёт сервис заданий.
func NewJobService(repo JobRepository, emitter events.Emitter, defaultAllowedRevisions int) *JobService {
	if defaultAllowedRevisions <= 0 {
		defaultAllowedRevisions = 3
	}
	return &JobService{
		repo:                    repo,
		emitter:                 emitter,
		defaultAllowedRevisions: defaultAllowedRevisions,
	}
}

// CreateJobInput описывает входные данные нового задания.
type CreateJobInput struct {
	ClientID         uuid.UUID
	Title            string
	Description      string
	Skills           []string
	BudgetCents      int64
	AllowedRevisions int
	StakeCents       int64
}

// BidInput описывает отклик фрилансера.
type BidInput struct {
	JobID         uuid.UUID
	FreelancerID  uuid.UUID
	AmountCents   int64
	Proposal      string
	PayoutAddress string
}

// CreateJob создаёт задание в статусе open.
func (s *JobService) CreateJob(ctx context.Context, in CreateJobInput) (*models.Job, error) {
	if err := validation.ValidateLength("заголовок", in.Title, validation.MinTitleLength, validation.MaxTitleLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", in.Description, validation.MinDescriptionLength, validation.MaxDescriptionLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	budget, err := valueobject.NewMoney(in.BudgetCents)
	if err != nil {
		return nil, err
	}
	if budget == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "бюджет должен быть положительным")
	}

	stake, err := valueobject.NewMoney(in.StakeCents)
	if err != nil {
		return nil, err
	}

	allowed := in.AllowedRevisions
	if allowed <= 0 {
		allowed = s.defaultAllowedRevisions
	}

	job := &models.Job{
		ClientID:         in.ClientID,
		Title:            in.Title,
		Description:      in.Description,
		Skills:           in.Skills,
		BudgetCents:      budget,
		Status:           valueobject.JobStatusOpen,
		AllowedRevisions: allowed,
		StakeCents:       stake,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob возвращает задание по идентификатору.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListJobs возвращает задания с фильтрацией.
func (s *JobService) ListJobs(ctx context.Context, params repository.ListFilterParams) ([]models.Job, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.repo.List(ctx, params)
}

// ListAssignedJobs возвращает задания, назначенные фрилансеру.
func (s *JobService) ListAssignedJobs(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// SubmitBid создаёт отклик на открытое задание.
func (s *JobService) SubmitBid(ctx context.Context, in BidInput) (*models.Bid, error) {
	if err := validation.ValidateLength("сопроводительное письмо", in.Proposal, validation.MinProposalLength, validation.MaxProposalLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	amount, err := valueobject.NewMoney(in.AmountCents)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма отклика должна быть положительной")
	}

	if err := chain.ValidateAddress(in.PayoutAddress); err != nil {
		return nil, err
	}

	job, err := s.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != valueobject.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание закрыто для откликов")
	}
	if job.ClientID == in.FreelancerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя откликнуться на своё задание")
	}

	if existing, err := s.repo.GetBidByFreelancer(ctx, in.JobID, in.FreelancerID); err == nil && existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на это задание")
	} else if err != nil && !errors.Is(err, repository.ErrBidNotFound) {
		return nil, err
	}

	bid := &models.Bid{
		JobID:         in.JobID,
		FreelancerID:  in.FreelancerID,
		AmountCents:   amount,
		Proposal:      in.Proposal,
		PayoutAddress: in.PayoutAddress,
		Status:        valueobject.BidStatusPending,
	}

	if err := s.repo.CreateBid(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// ListBids возвращает отклики по заданию. Полный список видит только
// заказчик; фрилансер видит свой отклик.
func (s *JobService) ListBids(ctx context.Context, jobID, actorID uuid.UUID) ([]models.Bid, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.ClientID == actorID {
		return s.repo.ListBids(ctx, jobID)
	}

	bid, err := s.repo.GetBidByFreelancer(ctx, jobID, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrBidNotFound) {
			return []models.Bid{}, nil
		}
		return nil, err
	}
	return []models.Bid{*bid}, nil
}

// ListMyBids возвращает отклики фрилансера.
func (s *JobService) ListMyBids(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListBidsByFreelancer(ctx, freelancerID, limit, offset)
}

// AcceptBid принимает отклик: задание переходит open -> assigned,
// остальные отклики отклоняются атомарно. Конкурирующее принятие
// проигрывает по compare-and-set и получает конфликт.
func (s *JobService) AcceptBid(ctx context.Context, bidID, actorID uuid.UUID) (*models.Job, error) {
	bid, err := s.repo.GetBidByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, repository.ErrBidNotFound) {
			return nil, apperror.ErrBidNotFound
		}
		return nil, err
	}

	job, err := s.GetJob(ctx, bid.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, apperror.ErrForbidden
	}

	assigned, err := s.repo.Assign(ctx, bid.JobID, bidID)
	if err != nil {
		return nil, mapRepoError(err, "отклик уже рассмотрен или задание не открыто")
	}

	s.emitter.Emit(events.Event{
		Recipient: bid.FreelancerID,
		Type:      events.EventJobAssigned,
		Data:      assigned,
	})

	return assigned, nil
}

// MarkFunded подтверждает зачисление средств на эскроу: задание
// переходит assigned -> in_progress.
func (s *JobService) MarkFunded(ctx context.Context, jobID, actorID uuid.UUID) (*models.Job, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, apperror.ErrForbidden
	}

	if err := s.repo.MarkFunded(ctx, jobID); err != nil {
		return nil, mapRepoError(err, "задание не ожидает зачисления средств")
	}

	funded, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if funded.FreelancerID != nil {
		s.emitter.Emit(events.Event{
			Recipient: *funded.FreelancerID,
			Type:      events.EventJobFunded,
			Data:      funded,
		})
	}

	return funded, nil
}
