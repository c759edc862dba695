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

var ErrDisputeNotFound = errors.New("dispute not found")

// DisputeRepository владеет записями споров. Частичный уникальный индекс
// по job_id для открытых споров гарантирует не более одного открытого
// спора на задание.
type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create сохраняет новый спор вместе со снимком улик и переводит задание
// в disputed одной транзакцией. CAS по прочитанному статусу задания:
// ни спора без disputed-задания, ни disputed-задания без открытого спора.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute, from valueobject.JobStatus) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = 'disputed', updated_at = NOW() WHERE id = $1 AND status = $2
		`, d.JobID, from)
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

		err = tx.QueryRowContext(ctx, `
			INSERT INTO disputes (job_id, raised_by, deposit_cents, status, evidence)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, d.JobID, d.RaisedBy, d.DepositCents, d.Status, d.Evidence).
			Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
				return common.ErrAlreadyExists
			}
			return fmt.Errorf("dispute repository: create %w", err)
		}
		return nil
	})
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

// GetOpenByJobID возвращает открытый спор по заданию.
func (r *DisputeRepository) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE job_id = $1 AND status = 'open'`, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// Resolve сохраняет решение арбитра и помечает спор разрешённым.
// CAS по статусу open: повторное разрешение того же спора невозможно.
func (r *DisputeRepository) Resolve(ctx context.Context, d *models.Dispute) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes
		SET status = 'resolved', client_amount_cents = $2, freelancer_amount_cents = $3,
			resolution_notes = $4, resolved_by = $5, client_penalized = $6, stake_slashed = $7,
			resolved_at = NOW()
		WHERE id = $1 AND status = 'open'
	`, d.ID, d.ClientAmountCents, d.FreelancerAmountCents, d.ResolutionNotes,
		d.ResolvedBy, d.ClientPenalized, d.StakeSlashed)
	if err != nil {
		return fmt.Errorf("dispute repository: resolve %w", err)
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

// ListByUser возвращает споры с участием пользователя.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN jobs j ON d.job_id = j.id
		WHERE j.client_id = $1 OR j.freelancer_id = $1 OR d.raised_by = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

// IncrementDisputeStrikes увеличивает счётчик штрафов пользователя.
func (r *DisputeRepository) IncrementDisputeStrikes(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET dispute_strikes = dispute_strikes + 1, updated_at = NOW() WHERE id = $1
	`, userID)
	return err
}
