package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
)

// Job описывает задание, средства по которому удерживаются эскроу
// до приёмки, исчерпания правок или решения арбитра.
type Job struct {
	ID               uuid.UUID             `db:"id" json:"id"`
	ClientID         uuid.UUID             `db:"client_id" json:"client_id"`
	FreelancerID     *uuid.UUID            `db:"freelancer_id" json:"freelancer_id,omitempty"`
	AcceptedBidID    *uuid.UUID            `db:"accepted_bid_id" json:"accepted_bid_id,omitempty"`
	Title            string                `db:"title" json:"title"`
	Description      string                `db:"description" json:"description"`
	Skills           pq.StringArray        `db:"skills" json:"skills"`
	BudgetCents      valueobject.Money     `db:"budget_cents" json:"budget_cents"`
	Status           valueobject.JobStatus `db:"status" json:"status"`
	CurrentRevision  int                   `db:"current_revision" json:"current_revision"`
	AllowedRevisions int                   `db:"allowed_revisions" json:"allowed_revisions"`
	RevisionNotes    *string               `db:"revision_request_notes" json:"revision_request_notes,omitempty"`
	ReviewDeadline   *time.Time            `db:"review_deadline" json:"review_deadline,omitempty"`
	ArtifactHash     *string               `db:"artifact_hash" json:"artifact_hash,omitempty"`
	ArtifactCommit   *string               `db:"artifact_commit" json:"artifact_commit,omitempty"`
	PayoutAddress    *string               `db:"payout_address" json:"payout_address,omitempty"`
	StakeCents       valueobject.Money     `db:"stake_cents" json:"stake_cents"`
	StartedAt        *time.Time            `db:"started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time            `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time             `db:"updated_at" json:"updated_at"`
	BidsCount        *int                  `db:"bids_count" json:"bids_count,omitempty"`
}

// Bid представляет отклик фрилансера на задание. Адрес выплаты
// фрилансер объявляет при отклике; при принятии он копируется в задание.
type Bid struct {
	ID            uuid.UUID             `db:"id" json:"id"`
	JobID         uuid.UUID             `db:"job_id" json:"job_id"`
	FreelancerID  uuid.UUID             `db:"freelancer_id" json:"freelancer_id"`
	AmountCents   valueobject.Money     `db:"amount_cents" json:"amount_cents"`
	Proposal      string                `db:"proposal" json:"proposal"`
	PayoutAddress string                `db:"payout_address" json:"payout_address"`
	Status        valueobject.BidStatus `db:"status" json:"status"`
	CreatedAt     time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time             `db:"updated_at" json:"updated_at"`
}
