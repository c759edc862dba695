package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMoney_Negative(t *testing.T) {
	_, err := NewMoney(-1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "отрицательной")
}

func TestMoney_SplitFee(t *testing.T) {
	cases := []struct {
		name   string
		amount Money
		bps    int64
		fee    Money
		payout Money
	}{
		{"восемь процентов без остатка", 100000, 800, 8000, 92000},
		{"ноль", 0, 800, 0, 0},
		{"нулевая ставка", 100000, 0, 0, 100000},
		{"округление вверх", 101, 800, 8, 93},   // 8.08 -> 8
		{"округление половины", 625, 800, 50, 575}, // ровно 50.00
		{"один цент", 1, 800, 0, 1},
		{"сто процентов", 55500, 10000, 55500, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, payout := tc.amount.SplitFee(tc.bps)
			assert.Equal(t, tc.fee, fee)
			assert.Equal(t, tc.payout, payout)
			// Деньги не теряются и не появляются.
			assert.Equal(t, tc.amount, fee+payout)
		})
	}
}

func TestMoney_SplitFee_RoundsHalfUp(t *testing.T) {
	// 1250 * 800 / 10000 = 100 ровно; 1256 * 800 = 100.48 -> 100;
	// 1257 * 800 = 100.56 -> 101.
	fee, _ := Money(1256).SplitFee(800)
	assert.Equal(t, Money(100), fee)
	fee, _ = Money(1257).SplitFee(800)
	assert.Equal(t, Money(101), fee)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "1000.00", Money(100000).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "12.34", Money(1234).String())
}
