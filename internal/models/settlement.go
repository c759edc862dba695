package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/domain/valueobject"
)

// SettlementRecord фиксирует исполненную выплату по заданию.
// Уникальный индекс по job_id гарантирует не более одной успешной
// выплаты на задание; запись хранит фактически применённую ставку
// комиссии, поэтому смена платформенного параметра задним числом
// не влияет на уже рассчитанные задания.
type SettlementRecord struct {
	ID                    uuid.UUID                    `db:"id" json:"id"`
	JobID                 uuid.UUID                    `db:"job_id" json:"job_id"`
	Trigger               valueobject.ReleaseTrigger   `db:"trigger" json:"trigger"`
	TotalCents            valueobject.Money            `db:"total_cents" json:"total_cents"`
	FreelancerAmountCents valueobject.Money            `db:"freelancer_amount_cents" json:"freelancer_amount_cents"`
	ClientAmountCents     valueobject.Money            `db:"client_amount_cents" json:"client_amount_cents"`
	PlatformFeeCents      valueobject.Money            `db:"platform_fee_cents" json:"platform_fee_cents"`
	AppliedFeeBPS         int64                        `db:"applied_fee_bps" json:"applied_fee_bps"`
	FreelancerTxRef       *string                      `db:"freelancer_tx_ref" json:"freelancer_tx_ref,omitempty"`
	ClientTxRef           *string                      `db:"client_tx_ref" json:"client_tx_ref,omitempty"`
	Status                valueobject.SettlementStatus `db:"status" json:"status"`
	ProcessedAt           time.Time                    `db:"processed_at" json:"processed_at"`
}

// ChainJob — явное инъективное соответствие задания его числовой
// ссылке в кошельковом сервисе (вместо усечённого UUID).
type ChainJob struct {
	JobID    uuid.UUID `db:"job_id" json:"job_id"`
	ChainRef int64     `db:"chain_ref" json:"chain_ref"`
}
