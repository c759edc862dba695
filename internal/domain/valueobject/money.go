package valueobject

import (
	"fmt"

	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// Money хранит сумму в минимальных единицах (центах) USDC-эквивалента.
// Денежная арифметика внутри протокола всегда целочисленная, чтобы
// инвариант payout + fee == total выполнялся точно.
type Money int64

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	return Money(cents), nil
}

func (m Money) Cents() int64 { return int64(m) }

func (m Money) Add(other Money) Money { return m + other }

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m/100, m%100)
}

// SplitFee делит сумму на комиссию платформы и долю получателя по ставке
// в базисных пунктах (100 bps = 1%). Округление — к ближайшему центу,
// остаток округления достаётся платформе, так что fee + payout == m всегда.
func (m Money) SplitFee(feeBPS int64) (fee Money, payout Money) {
	fee = Money((int64(m)*feeBPS + 5000) / 10000)
	payout = m - fee
	return fee, payout
}
