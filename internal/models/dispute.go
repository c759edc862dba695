package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
)

// Dispute представляет спор по заданию. На задание допускается не более
// одного открытого спора.
type Dispute struct {
	ID           uuid.UUID                 `db:"id" json:"id"`
	JobID        uuid.UUID                 `db:"job_id" json:"job_id"`
	RaisedBy     uuid.UUID                 `db:"raised_by" json:"raised_by"`
	DepositCents valueobject.Money         `db:"deposit_cents" json:"deposit_cents"`
	Status       valueobject.DisputeStatus `db:"status" json:"status"`
	Evidence     json.RawMessage           `db:"evidence" json:"evidence,omitempty"`

	ClientAmountCents     *int64     `db:"client_amount_cents" json:"client_amount_cents,omitempty"`
	FreelancerAmountCents *int64     `db:"freelancer_amount_cents" json:"freelancer_amount_cents,omitempty"`
	ResolutionNotes       *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ResolvedBy            *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	ClientPenalized       bool       `db:"client_penalized" json:"client_penalized"`
	StakeSlashed          bool       `db:"stake_slashed" json:"stake_slashed"`

	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// EvidenceBundle — снимок задания и всех правок на момент открытия спора.
// Снимок не меняется, даже если задание позже будет изменено: арбитр
// всегда видит состояние на момент обращения.
type EvidenceBundle struct {
	Job        Job        `json:"job"`
	Revisions  []Revision `json:"revisions"`
	CapturedAt time.Time  `json:"captured_at"`
}
