package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/repository/common"
)

var ErrSettlementNotFound = errors.New("settlement record not found")

// uniqueViolation — код PostgreSQL для нарушения уникального индекса.
const uniqueViolation = "23505"

// SettlementRepository создаёт записи о выплатах. Идемпотентность
// обеспечивается на уровне хранилища: уникальный индекс по job_id.
type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// GetByJobID возвращает запись о выплате по заданию.
func (r *SettlementRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.SettlementRecord, error) {
	var rec models.SettlementRecord
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM settlement_records WHERE job_id = $1`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	return &rec, err
}

// CreateWithCompletion сохраняет запись о выплате, завершает задание и
// обновляет агрегаты фрилансера одной транзакцией. Статус задания
// меняется compare-and-set от прочитанного значения; дубликат записи
// по job_id превращается в ErrAlreadyExists.
func (r *SettlementRepository) CreateWithCompletion(ctx context.Context, rec *models.SettlementRecord, from valueobject.JobStatus, freelancerID uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, rec, `
			INSERT INTO settlement_records
				(job_id, trigger, total_cents, freelancer_amount_cents, client_amount_cents,
				 platform_fee_cents, applied_fee_bps, freelancer_tx_ref, client_tx_ref, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, processed_at
		`, rec.JobID, rec.Trigger, rec.TotalCents, rec.FreelancerAmountCents, rec.ClientAmountCents,
			rec.PlatformFeeCents, rec.AppliedFeeBPS, rec.FreelancerTxRef, rec.ClientTxRef, rec.Status)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
				return common.ErrAlreadyExists
			}
			return fmt.Errorf("settlement repository: create %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = 'completed', completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $2
		`, rec.JobID, from)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return common.ErrStaleStatus
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET jobs_completed = jobs_completed + 1,
				earned_cents = earned_cents + $2,
				updated_at = NOW()
			WHERE id = $1
		`, freelancerID, rec.FreelancerAmountCents)
		return err
	})
}

// EnsureChainRef возвращает числовую ссылку задания для кошелькового
// сервиса, создавая её при первом обращении. Соответствие инъективно
// по построению.
func (r *SettlementRepository) EnsureChainRef(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var chainRef int64
	err := r.db.GetContext(ctx, &chainRef, `
		INSERT INTO chain_jobs (job_id) VALUES ($1)
		ON CONFLICT (job_id) DO UPDATE SET job_id = EXCLUDED.job_id
		RETURNING chain_ref
	`, jobID)
	if err != nil {
		return 0, fmt.Errorf("settlement repository: ensure chain ref %w", err)
	}
	return chainRef, nil
}

// ListExpiredReviews возвращает задания, по которым наступила
// готовность к авто-релизу: in_progress и дедлайн приёмки в прошлом.
func (r *SettlementRepository) ListExpiredReviews(ctx context.Context, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT id, client_id, freelancer_id, accepted_bid_id, title, description, skills,
			budget_cents, status, current_revision, allowed_revisions, review_deadline,
			artifact_hash, artifact_commit, payout_address, stake_cents,
			started_at, completed_at, created_at, updated_at
		FROM jobs
		WHERE status = 'in_progress' AND review_deadline IS NOT NULL AND review_deadline < NOW()
		ORDER BY review_deadline ASC
		LIMIT $1
	`, limit)
	return jobs, err
}
