package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveEscrowAddress_Deterministic(t *testing.T) {
	a := DeriveEscrowAddress("owner-1")
	b := DeriveEscrowAddress("owner-1")
	c := DeriveEscrowAddress("owner-2")

	assert.Equal(t, a, b, "same owner must derive the same address")
	assert.NotEqual(t, a, c, "different owners must derive different addresses")
	assert.Len(t, a, 64)
}

func TestDeriveGameAddress_DependsOnAllInputs(t *testing.T) {
	escrow := DeriveEscrowAddress("owner-1")

	base := DeriveGameAddress("owner-1", escrow, "seed")

	assert.Equal(t, base, DeriveGameAddress("owner-1", escrow, "seed"))
	assert.NotEqual(t, base, DeriveGameAddress("owner-2", escrow, "seed"))
	assert.NotEqual(t, base, DeriveGameAddress("owner-1", escrow, "other-seed"))
	assert.NotEqual(t, base, DeriveEscrowAddress("owner-1"), "game and escrow addresses must not collide")
}

func TestNewEscrow_RejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []int64{0, -1, -100} {
		_, err := NewEscrow("owner-1", amount, decimal.NewFromInt(100))
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidAmount))
	}
}

func TestEscrow_ReleasableAtPrice_StrictComparison(t *testing.T) {
	escrow, err := NewEscrow("owner-1", 500, decimal.RequireFromString("21.53"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		value      string
		releasable bool
	}{
		{"below threshold", "21.52", false},
		{"exactly at threshold", "21.53", false},
		{"equal with trailing zeros", "21.5300", false},
		{"just above threshold", "21.530000001", true},
		{"well above threshold", "100", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.releasable, escrow.ReleasableAtPrice(decimal.RequireFromString(tt.value)))
		})
	}
}

func TestCheckedAdd_Overflow(t *testing.T) {
	sum, err := CheckedAdd(10, 32)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sum)

	_, err = CheckedAdd(int64(1)<<62, int64(1)<<62)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeArithmeticOverflow))

	_, err = CheckedAdd(-(int64(1) << 62), -(int64(1)<<62)-1)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeArithmeticOverflow))
}

func TestCheckedSub_Overflow(t *testing.T) {
	diff, err := CheckedSub(10, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(-32), diff)

	_, err = CheckedSub(0, int64(-1)<<63)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeArithmeticOverflow))
}
