package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConservativeStrategy(t *testing.T) {
	s := Conservative(3)

	spend, ok := s.Spend(7)
	assert.True(t, ok)
	assert.Equal(t, 3, spend, "conservative spends exactly the threshold")

	_, ok = s.Spend(2)
	assert.False(t, ok, "balance below threshold is insufficient")
}

func TestMaxStrategy(t *testing.T) {
	s := Max(1)

	spend, ok := s.Spend(5)
	assert.True(t, ok)
	assert.Equal(t, 5, spend)

	_, ok = s.Spend(0)
	assert.False(t, ok)

	s = Max(3)
	_, ok = s.Spend(2)
	assert.False(t, ok, "balance below floor is insufficient")
}

func TestCustomStrategy(t *testing.T) {
	s := Custom(4, 1)

	spend, ok := s.Spend(10)
	assert.True(t, ok)
	assert.Equal(t, 4, spend)

	spend, ok = s.Spend(2)
	assert.True(t, ok)
	assert.Equal(t, 2, spend, "custom is capped by the balance")
}

func TestSpendNeverExceedsBalance(t *testing.T) {
	strategies := []FuelStrategy{
		Conservative(1), Conservative(3), Conservative(10),
		Max(1), Max(5),
		Custom(1, 1), Custom(7, 2), Custom(100, 1),
		{Kind: StrategyCustom}, // degenerate zero-value amounts
	}

	for _, s := range strategies {
		for balance := 0; balance <= 25; balance++ {
			spend, ok := s.Spend(balance)
			if !ok {
				assert.Zero(t, spend, "%v balance=%d", s, balance)
				continue
			}
			assert.GreaterOrEqual(t, spend, 1, "%v balance=%d", s, balance)
			assert.LessOrEqual(t, spend, balance, "%v balance=%d", s, balance)
		}
	}
}
