package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/validation"
)

// DisputeStore описывает хранилище споров.
type DisputeStore interface {
	Create(ctx context.Context, d *models.Dispute, from valueobject.JobStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error)
	Resolve(ctx context.Context, d *models.Dispute) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	IncrementDisputeStrikes(ctx context.Context, userID uuid.UUID) error
}

// UserGetter — доступ к пользователям для проверки роли арбитра.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Splitter исполняет выплату по решению арбитра.
type Splitter interface {
	ReleaseSplit(ctx context.Context, job *models.Job, clientShare, freelancerShare valueobject.Money) (*models.SettlementRecord, error)
}

// DisputeService ведёт споры: открытие со снимком улик, решение арбитра
// с раздельной выплатой сторонам и штрафными отметками.
type DisputeService struct {
	jobs       JobGetter
	disputes   DisputeStore
	revisions  RevisionStore
	users      UserGetter
	settlement Splitter
	emitter    events.Emitter
}

// NewDisputeService создаёт арбитражный сервис.
func NewDisputeService(jobs JobGetter, disputes DisputeStore, revisions RevisionStore, users UserGetter, settlement Splitter, emitter events.Emitter) *DisputeService {
	return &DisputeService{
		jobs:       jobs,
		disputes:   disputes,
		revisions:  revisions,
		users:      users,
		settlement: settlement,
		emitter:    emitter,
	}
}

// RaiseInput — открытие спора стороной задания.
type RaiseInput struct {
	JobID        uuid.UUID
	ActorID      uuid.UUID
	DepositCents int64
}

// ResolveInput — решение арбитра по спору.
type ResolveInput struct {
	DisputeID             uuid.UUID
	ActorID               uuid.UUID
	ClientAmountCents     int64
	FreelancerAmountCents int64
	ResolutionNotes       string
	ClientPenalized       bool
	StakeSlashed          bool
}

// Raise открывает спор. Задание переводится в disputed, и в спор
// вкладывается снимок задания и всех сдач на момент обращения: арбитр
// судит по состоянию на момент открытия, а не по текущему.
func (s *DisputeService) Raise(ctx context.Context, in RaiseInput) (*models.Dispute, error) {
	job, err := s.getJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if !isParty(job, in.ActorID) {
		return nil, apperror.ErrForbidden
	}
	if !job.Status.CanTransitionTo(valueobject.JobStatusDisputed) {
		return nil, apperror.New(apperror.ErrCodeConflict, "по заданию нельзя открыть спор")
	}
	if job.Status == valueobject.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор возможен только после назначения исполнителя")
	}

	deposit, err := valueobject.NewMoney(in.DepositCents)
	if err != nil {
		return nil, err
	}

	revisions, err := s.revisions.ListByJob(ctx, in.JobID)
	if err != nil {
		return nil, err
	}

	evidence, err := json.Marshal(models.EvidenceBundle{
		Job:        *job,
		Revisions:  revisions,
		CapturedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("dispute: не удалось сериализовать улики: %w", err)
	}

	dispute := &models.Dispute{
		JobID:        in.JobID,
		RaisedBy:     in.ActorID,
		DepositCents: deposit,
		Status:       valueobject.DisputeStatusOpen,
		Evidence:     evidence,
	}

	if err := s.disputes.Create(ctx, dispute, job.Status); err != nil {
		return nil, mapRepoError(err, "спор по заданию уже открыт или задание изменило статус")
	}

	if other := counterparty(job, in.ActorID); other != nil {
		s.emitter.Emit(events.Event{Recipient: *other, Type: events.EventDisputeRaised, Data: dispute})
	}

	return dispute, nil
}

// Get возвращает спор. Доступ есть у сторон задания и арбитров.
func (s *DisputeService) Get(ctx context.Context, disputeID, actorID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}

	job, err := s.getJob(ctx, dispute.JobID)
	if err != nil {
		return nil, err
	}
	if !isParty(job, actorID) {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return nil, mapRepoError(err, "")
		}
		if !actor.IsArbitrator() {
			return nil, apperror.ErrForbidden
		}
	}

	return dispute, nil
}

// GetOpenByJob возвращает открытый спор по заданию.
func (s *DisputeService) GetOpenByJob(ctx context.Context, jobID, actorID uuid.UUID) (*models.Dispute, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !isParty(job, actorID) {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return nil, mapRepoError(err, "")
		}
		if !actor.IsArbitrator() {
			return nil, apperror.ErrForbidden
		}
	}

	dispute, err := s.disputes.GetOpenByJobID(ctx, jobID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	return dispute, nil
}

// ListMy возвращает споры с участием пользователя.
func (s *DisputeService) ListMy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.disputes.ListByUser(ctx, userID, limit, offset)
}

// Resolve исполняет решение арбитра: пул средств делится между
// сторонами, спор закрывается, штрафы фиксируются. Сначала выплата,
// потом закрытие спора: если закрытие упало, повтор Resolve упрётся в
// запись о выплате и получит те же суммы, а не переведёт средства дважды.
func (s *DisputeService) Resolve(ctx context.Context, in ResolveInput) (*models.Dispute, error) {
	actor, err := s.users.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	if !actor.IsArbitrator() {
		return nil, apperror.ErrForbidden
	}

	if err := validation.ValidateLength("обоснование решения", in.ResolutionNotes, validation.MinDescriptionLength, validation.MaxNotesLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	dispute, err := s.disputes.GetByID(ctx, in.DisputeID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	if dispute.Status != valueobject.DisputeStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор уже разрешён")
	}

	job, err := s.getJob(ctx, dispute.JobID)
	if err != nil {
		return nil, err
	}

	clientShare, err := valueobject.NewMoney(in.ClientAmountCents)
	if err != nil {
		return nil, err
	}
	freelancerShare, err := valueobject.NewMoney(in.FreelancerAmountCents)
	if err != nil {
		return nil, err
	}

	// Пул решения — бюджет эскроу; при срезании залога исполнителя залог
	// добавляется в пул. Суммы сторон обязаны исчерпывать пул без остатка.
	pool := job.BudgetCents
	if in.StakeSlashed {
		pool = pool.Add(job.StakeCents)
	}
	if clientShare.Add(freelancerShare) != pool {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("суммы сторон должны в точности делить пул %s", pool))
	}

	if _, err := s.settlement.ReleaseSplit(ctx, job, clientShare, freelancerShare); err != nil {
		return nil, err
	}

	clientCents := clientShare.Cents()
	freelancerCents := freelancerShare.Cents()
	dispute.ClientAmountCents = &clientCents
	dispute.FreelancerAmountCents = &freelancerCents
	dispute.ResolutionNotes = &in.ResolutionNotes
	dispute.ResolvedBy = &in.ActorID
	dispute.ClientPenalized = in.ClientPenalized
	dispute.StakeSlashed = in.StakeSlashed

	if err := s.disputes.Resolve(ctx, dispute); err != nil {
		return nil, mapRepoError(err, "спор уже разрешён")
	}

	// Штрафные отметки best-effort: выплата и решение уже зафиксированы.
	if in.ClientPenalized {
		if err := s.disputes.IncrementDisputeStrikes(ctx, job.ClientID); err != nil {
			logger.Log.WithError(err).Warn("dispute: не удалось записать штраф заказчику")
		}
	}
	if in.StakeSlashed && job.FreelancerID != nil {
		if err := s.disputes.IncrementDisputeStrikes(ctx, *job.FreelancerID); err != nil {
			logger.Log.WithError(err).Warn("dispute: не удалось записать штраф исполнителю")
		}
	}

	s.emitter.Emit(events.Event{Recipient: job.ClientID, Type: events.EventDisputeResolved, Data: dispute})
	if job.FreelancerID != nil {
		s.emitter.Emit(events.Event{Recipient: *job.FreelancerID, Type: events.EventDisputeResolved, Data: dispute})
	}

	return dispute, nil
}

func (s *DisputeService) getJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	return job, nil
}

// counterparty возвращает вторую сторону задания.
func counterparty(job *models.Job, userID uuid.UUID) *uuid.UUID {
	if job.ClientID == userID {
		return job.FreelancerID
	}
	return &job.ClientID
}
