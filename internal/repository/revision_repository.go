package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
	"github.com/ignatzorin/escrow-backend/internal/models"
	"github.com/ignatzorin/escrow-backend/internal/repository/common"
)

// RevisionRepository добавляет записи о сдачах работы и меняет у задания
// только счётчик правок, артефакт и дедлайн приёмки. Номер сдачи
// назначается в той же транзакции, что и compare-and-set статуса,
// поэтому пропуски и дубликаты номеров исключены.
type RevisionRepository struct {
	db *sqlx.DB
}

func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// ListByJob возвращает сдачи по заданию в порядке номеров.
func (r *RevisionRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Revision, error) {
	var revisions []models.Revision
	err := r.db.SelectContext(ctx, &revisions, `
		SELECT * FROM revisions WHERE job_id = $1 ORDER BY seq_no ASC
	`, jobID)
	return revisions, err
}

// RequestRevision увеличивает счётчик правок, сохраняет замечания
// заказчика и переводит задание in_progress -> revision_requested.
// CAS по статусу и прочитанному значению счётчика: конкурирующий
// запрос получает ErrStaleStatus.
func (r *RevisionRepository) RequestRevision(ctx context.Context, jobID uuid.UUID, fromRevision int, notes string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'revision_requested', current_revision = current_revision + 1,
			revision_request_notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		  AND current_revision = $2 AND current_revision < allowed_revisions
	`, jobID, fromRevision, notes)
	if err != nil {
		return fmt.Errorf("revision repository: request revision %w", err)
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

// SubmitRevision добавляет запись о сдаче со следующим порядковым номером,
// обновляет артефакт задания, возвращает статус в in_progress,
// переустанавливает дедлайн приёмки и снимает замечания прошлого
// запроса правки.
func (r *RevisionRepository) SubmitRevision(ctx context.Context, rev *models.Revision, from valueobject.JobStatus, reviewDeadline time.Time) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs
			SET status = 'in_progress', artifact_hash = $3, artifact_commit = $4,
				review_deadline = $5, revision_request_notes = NULL, updated_at = NOW()
			WHERE id = $1 AND status = $2
		`, rev.JobID, from, rev.ArtifactHash, rev.ArtifactCommit, reviewDeadline)
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

		// Номер выдаётся под тем же замком, что и статус задания.
		return tx.GetContext(ctx, rev, `
			INSERT INTO revisions (job_id, seq_no, artifact_hash, artifact_commit, submitted_by, notes)
			SELECT $1, COALESCE(MAX(seq_no), 0) + 1, $2, $3, $4, $5 FROM revisions WHERE job_id = $1
			RETURNING *
		`, rev.JobID, rev.ArtifactHash, rev.ArtifactCommit, rev.SubmittedBy, rev.Notes)
	})
}
