package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-backend/internal/chain"
	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/events"
	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/repository"
	"github.com/ignatzorin/escrow-backend/internal/repository/common"
)

// SettlementStore описывает хранилище выплат.
type SettlementStore interface {
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.SettlementRecord, error)
	CreateWithCompletion(ctx context.Context, rec *models.SettlementRecord, from valueobject.JobStatus, freelancerID uuid.UUID) error
	EnsureChainRef(ctx context.Context, jobID uuid.UUID) (int64, error)
	ListExpiredReviews(ctx context.Context, limit int) ([]models.Job, error)
}

// JobGetter — минимальная зависимость от реестра заданий.
type JobGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// SettlementService исполняет выплаты по эскроу. Ровно одна успешная
// выплата на задание: до перевода средств сервис проверяет наличие
// записи о выплате, а после — фиксирует её под уникальным индексом.
// Проигравший гонку получает уже существующую запись, а не ошибку.
type SettlementService struct {
	jobs    JobGetter
	store   SettlementStore
	wallet  chain.Transferer
	emitter events.Emitter

	feeBPS int64
}

// NewSettlementService создаёт расчётный сервис.
func NewSettlementService(jobs JobGetter, store SettlementStore, wallet chain.Transferer, emitter events.Emitter, feeBPS int64) *SettlementService {
	return &SettlementService{
		jobs:    jobs,
		store:   store,
		wallet:  wallet,
		emitter: emitter,
		feeBPS:  feeBPS,
	}
}

// GetByJob возвращает запись о выплате по заданию.
func (s *SettlementService) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.SettlementRecord, error) {
	rec, err := s.store.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	return rec, nil
}

// Approve — ручная приёмка работы заказчиком. Задание должно быть
// in_progress и иметь сданный артефакт.
func (s *SettlementService) Approve(ctx context.Context, jobID, actorID uuid.UUID) (*models.SettlementRecord, error) {
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

	fee, payout := job.BudgetCents.SplitFee(s.feeBPS)
	return s.release(ctx, job, releasePlan{
		trigger:          valueobject.TriggerManualApproval,
		fromStatus:       valueobject.JobStatusInProgress,
		total:            job.BudgetCents,
		freelancerAmount: payout,
		clientAmount:     0,
		platformFee:      fee,
	})
}

// AutoRelease выплачивает средства по истечении окна приёмки. Вызывается
// фоновым обходом; проверка дедлайна повторяется здесь, потому что между
// выборкой и выплатой заказчик мог успеть запросить правку или открыть спор.
func (s *SettlementService) AutoRelease(ctx context.Context, jobID uuid.UUID) (*models.SettlementRecord, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != valueobject.JobStatusInProgress || job.ArtifactHash == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание не ожидает авто-релиза")
	}
	if job.ReviewDeadline == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "у задания нет дедлайна приёмки")
	}
	if time.Now().Before(*job.ReviewDeadline) {
		return nil, apperror.New(apperror.ErrCodeConflict, "окно приёмки ещё не истекло")
	}

	fee, payout := job.BudgetCents.SplitFee(s.feeBPS)
	return s.release(ctx, job, releasePlan{
		trigger:          valueobject.TriggerAutoRelease,
		fromStatus:       valueobject.JobStatusInProgress,
		total:            job.BudgetCents,
		freelancerAmount: payout,
		clientAmount:     0,
		platformFee:      fee,
	})
}

// ReleaseSplit исполняет выплату по решению арбитра: пул делится между
// сторонами, комиссия платформы удерживается только с доли фрилансера.
func (s *SettlementService) ReleaseSplit(ctx context.Context, job *models.Job, clientShare, freelancerShare valueobject.Money) (*models.SettlementRecord, error) {
	fee, payout := freelancerShare.SplitFee(s.feeBPS)
	return s.release(ctx, job, releasePlan{
		trigger:          valueobject.TriggerDisputeResolution,
		fromStatus:       valueobject.JobStatusDisputed,
		total:            clientShare.Add(freelancerShare),
		freelancerAmount: payout,
		clientAmount:     clientShare,
		platformFee:      fee,
	})
}

type releasePlan struct {
	trigger          valueobject.ReleaseTrigger
	fromStatus       valueobject.JobStatus
	total            valueobject.Money
	freelancerAmount valueobject.Money
	clientAmount     valueobject.Money
	platformFee      valueobject.Money
}

// release — общий путь выплаты. Порядок строгий: сначала проверка
// существующей записи, затем переводы, затем фиксация записи вместе с
// завершением задания. Если перевод прошёл, а фиксация упала, повтор
// release упрётся в запись о выплате и вернёт её без второго перевода;
// сбой до фиксации оставляет задание в исходном статусе для повтора.
func (s *SettlementService) release(ctx context.Context, job *models.Job, plan releasePlan) (*models.SettlementRecord, error) {
	if existing, err := s.store.GetByJobID(ctx, job.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrSettlementNotFound) {
		return nil, err
	}

	if job.FreelancerID == nil || job.PayoutAddress == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "у задания нет исполнителя")
	}
	if err := chain.ValidateAddress(*job.PayoutAddress); err != nil {
		return nil, err
	}

	chainRef, err := s.store.EnsureChainRef(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	rec := &models.SettlementRecord{
		JobID:                 job.ID,
		Trigger:               plan.trigger,
		TotalCents:            plan.total,
		FreelancerAmountCents: plan.freelancerAmount,
		ClientAmountCents:     plan.clientAmount,
		PlatformFeeCents:      plan.platformFee,
		AppliedFeeBPS:         s.feeBPS,
		Status:                valueobject.SettlementStatusCompleted,
	}

	if plan.freelancerAmount > 0 {
		txRef, err := s.wallet.Transfer(ctx, *job.PayoutAddress, plan.freelancerAmount.Cents(), chainRef)
		if err != nil {
			return nil, err
		}
		rec.FreelancerTxRef = &txRef
	}

	if plan.clientAmount > 0 {
		txRef, err := s.wallet.Refund(ctx, chainRef, plan.clientAmount.Cents())
		if err != nil {
			return nil, err
		}
		rec.ClientTxRef = &txRef
	}

	if err := s.store.CreateWithCompletion(ctx, rec, plan.fromStatus, *job.FreelancerID); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			// Параллельный release успел первым: его запись — ответ.
			return s.GetByJob(ctx, job.ID)
		}
		return nil, mapRepoError(err, "задание уже рассчитано или изменило статус")
	}

	logger.Log.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"trigger": plan.trigger,
		"total":   plan.total.Cents(),
		"payout":  plan.freelancerAmount.Cents(),
		"fee":     plan.platformFee.Cents(),
	}).Info("settlement: выплата исполнена")

	s.emitter.Emit(events.Event{Recipient: job.ClientID, Type: events.EventJobCompleted, Data: rec})
	s.emitter.Emit(events.Event{Recipient: *job.FreelancerID, Type: events.EventJobCompleted, Data: rec})

	return rec, nil
}

func (s *SettlementService) getJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapRepoError(err, "")
	}
	return job, nil
}
