package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/repository/common"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrBidNotFound = errors.New("bid not found")
)

// JobRepository владеет записями заданий и жизненным циклом откликов.
// Все смены статуса выполняются compare-and-set по прочитанному статусу:
// проигравший гонку получает common.ErrStaleStatus.
type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, client_id, freelancer_id, accepted_bid_id, title, description, skills,
	budget_cents, status, current_revision, allowed_revisions, review_deadline,
	artifact_hash, artifact_commit, payout_address, stake_cents,
	started_at, completed_at, created_at, updated_at`

// Create сохраняет новое задание в статусе open.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (client_id, title, description, skills, budget_cents, status, allowed_revisions, stake_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		job.ClientID, job.Title, job.Description, job.Skills,
		job.BudgetCents, job.Status, job.AllowedRevisions, job.StakeCents,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

// GetByID возвращает задание по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}
	return &job, nil
}

// ListFilterParams описывает фильтры выборки заданий.
type ListFilterParams struct {
	Status   string
	ClientID *uuid.UUID
	Limit    int
	Offset   int
}

// List возвращает задания с количеством откликов.
func (r *JobRepository) List(ctx context.Context, params ListFilterParams) ([]models.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s, (SELECT COUNT(*) FROM bids b WHERE b.job_id = jobs.id) AS bids_count
		FROM jobs
		WHERE ($1 = '' OR status = $1)
		  AND ($2::uuid IS NULL OR client_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, jobColumns)

	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, query, params.Status, params.ClientID, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("job repository: list %w", err)
	}
	return jobs, nil
}

// ListByFreelancer возвращает задания, назначенные фрилансеру.
func (r *JobRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM jobs WHERE freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, jobColumns)

	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, query, freelancerID, limit, offset)
	return jobs, err
}

// CreateBid сохраняет отклик фрилансера.
func (r *JobRepository) CreateBid(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (job_id, freelancer_id, amount_cents, proposal, payout_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		bid.JobID, bid.FreelancerID, bid.AmountCents, bid.Proposal, bid.PayoutAddress, bid.Status,
	).Scan(&bid.ID, &bid.CreatedAt, &bid.UpdatedAt)
}

// GetBidByID возвращает отклик.
func (r *JobRepository) GetBidByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	return common.GetByID[models.Bid](ctx, r.db, "bids", id, ErrBidNotFound)
}

// ListBids возвращает отклики по заданию.
func (r *JobRepository) ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE job_id = $1 ORDER BY created_at ASC
	`, jobID)
	return bids, err
}

// GetBidByFreelancer возвращает отклик фрилансера на задание, если он есть.
func (r *JobRepository) GetBidByFreelancer(ctx context.Context, jobID, freelancerID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.GetContext(ctx, &bid, `
		SELECT * FROM bids WHERE job_id = $1 AND freelancer_id = $2 AND status <> 'rejected'
	`, jobID, freelancerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBidNotFound
	}
	return &bid, err
}

// ListBidsByFreelancer возвращает все отклики фрилансера.
func (r *JobRepository) ListBidsByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	return bids, err
}

// Assign принимает отклик: помечает его accepted, отклоняет остальные
// отклики задания и переводит задание open -> assigned одной транзакцией.
// Либо выполняется всё, либо ничего: два принятых отклика на одно задание
// невозможны ни при каком чередовании.
func (r *JobRepository) Assign(ctx context.Context, jobID, bidID uuid.UUID) (*models.Job, error) {
	var assigned models.Job

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Блокируем строку задания: сериализует конкурирующие принятия.
		var job models.Job
		query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1 FOR UPDATE`, jobColumns)
		if err := tx.GetContext(ctx, &job, query, jobID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrJobNotFound
			}
			return err
		}
		if job.Status != valueobject.JobStatusOpen {
			return common.ErrStaleStatus
		}

		var bid models.Bid
		if err := tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 AND job_id = $2`, bidID, jobID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBidNotFound
			}
			return err
		}
		if bid.Status != valueobject.BidStatusPending {
			return common.ErrStaleStatus
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bids SET status = 'accepted', updated_at = NOW() WHERE id = $1
		`, bidID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE bids SET status = 'rejected', updated_at = NOW()
			WHERE job_id = $1 AND id <> $2 AND status = 'pending'
		`, jobID, bidID); err != nil {
			return err
		}

		now := time.Now()
		returning := fmt.Sprintf(`
			UPDATE jobs SET status = 'assigned', freelancer_id = $2, accepted_bid_id = $3,
				budget_cents = $4, payout_address = $5, started_at = $6, updated_at = NOW()
			WHERE id = $1 AND status = 'open'
			RETURNING %s
		`, jobColumns)
		if err := tx.GetContext(ctx, &assigned, returning,
			jobID, bid.FreelancerID, bidID, bid.AmountCents, bid.PayoutAddress, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrStaleStatus
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assigned, nil
}

// MarkFunded переводит задание assigned -> in_progress после подтверждения
// зачисления средств внешним коллаборатором.
func (r *JobRepository) MarkFunded(ctx context.Context, jobID uuid.UUID) error {
	return r.compareAndSetStatus(ctx, jobID, valueobject.JobStatusAssigned, valueobject.JobStatusInProgress)
}

func (r *JobRepository) compareAndSetStatus(ctx context.Context, jobID uuid.UUID, from, to valueobject.JobStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2
	`, jobID, from, to)
	if err != nil {
		return fmt.Errorf("job repository: cas %s -> %s: %w", from, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrStaleStatus
	}
	return nil
}
