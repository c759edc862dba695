package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// sweepBatchSize ограничивает число заданий за один проход.
const sweepBatchSize = 100

// AutoReleaser исполняет авто-релиз одного задания.
type AutoReleaser interface {
	AutoRelease(ctx context.Context, jobID uuid.UUID) (*models.SettlementRecord, error)
}

// ExpiredLister выбирает задания с истёкшим окном приёмки.
type ExpiredLister interface {
	ListExpiredReviews(ctx context.Context, limit int) ([]models.Job, error)
}

// SweepService — фоновый обход просроченных окон приёмки. Молчание
// заказчика в течение окна приёмки считается согласием: выплата
// запускается с триггером auto_release.
type SweepService struct {
	store      ExpiredLister
	settlement AutoReleaser
	interval   time.Duration
}

// NewSweepService создаёт фоновый обходчик.
func NewSweepService(store ExpiredLister, settlement AutoReleaser, interval time.Duration) *SweepService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SweepService{
		store:      store,
		settlement: settlement,
		interval:   interval,
	}
}

// Run обходит просроченные задания до отмены контекста.
func (s *SweepService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep — один проход. Ошибка по одному заданию не останавливает
// остальные; конфликт означает, что задание успело изменить статус
// между выборкой и выплатой, и это не ошибка обхода.
func (s *SweepService) sweep(ctx context.Context) {
	jobs, err := s.store.ListExpiredReviews(ctx, sweepBatchSize)
	if err != nil {
		logger.Log.WithError(err).Error("sweep: не удалось выбрать просроченные задания")
		return
	}

	for _, job := range jobs {
		if _, err := s.settlement.AutoRelease(ctx, job.ID); err != nil {
			if apperror.IsConflict(err) {
				continue
			}
			logger.Log.WithField("job_id", job.ID).WithError(err).Error("sweep: авто-релиз не удался")
		}
	}
}
