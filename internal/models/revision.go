package models

import (
	"time"

	"github.com/google/uuid"
)

// Revision — неизменяемая запись о сдаче работы. Порядковые номера
// внутри задания образуют непрерывную возрастающую последовательность.
type Revision struct {
	ID             uuid.UUID `db:"id" json:"id"`
	JobID          uuid.UUID `db:"job_id" json:"job_id"`
	SeqNo          int       `db:"seq_no" json:"seq_no"`
	ArtifactHash   string    `db:"artifact_hash" json:"artifact_hash"`
	ArtifactCommit *string   `db:"artifact_commit" json:"artifact_commit,omitempty"`
	SubmittedBy    uuid.UUID `db:"submitted_by" json:"submitted_by"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
