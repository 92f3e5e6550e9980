package vote

import (
	"fmt"
)

// StrategyKind selects how much fuel a vote commits.
type StrategyKind int

const (
	// StrategyConservative spends exactly Amount fuel, and only when the
	// balance covers it.
	StrategyConservative StrategyKind = iota
	// StrategyMax spends the whole balance, provided it meets Floor.
	StrategyMax
	// StrategyCustom spends min(Amount, balance), provided the balance
	// meets Floor.
	StrategyCustom
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyConservative:
		return "conservative"
	case StrategyMax:
		return "max"
	case StrategyCustom:
		return "custom"
	default:
		return fmt.Sprintf("StrategyKind(%d)", int(k))
	}
}

// FuelStrategy decides the fuel committed per vote. It is configuration,
// not behavior: Spend is a pure function of (strategy, balance).
type FuelStrategy struct {
	Kind   StrategyKind
	Amount int // conservative threshold or custom amount
	Floor  int // minimum balance required to vote at all
}

// Conservative returns a strategy spending exactly min fuel per vote.
func Conservative(min int) FuelStrategy {
	return FuelStrategy{Kind: StrategyConservative, Amount: min, Floor: min}
}

// Max returns a strategy spending the entire balance each vote.
func Max(floor int) FuelStrategy {
	return FuelStrategy{Kind: StrategyMax, Floor: floor}
}

// Custom returns a strategy spending up to amount fuel per vote.
func Custom(amount, floor int) FuelStrategy {
	return FuelStrategy{Kind: StrategyCustom, Amount: amount, Floor: floor}
}

// Spend returns the fuel to commit for the given balance. The second return
// is false when the balance is insufficient for this strategy; that is an
// expected, recoverable condition, not an error. The returned spend never
// exceeds the balance and is never below 1 when ok.
func (s FuelStrategy) Spend(balance int) (int, bool) {
	if balance < 1 {
		return 0, false
	}

	floor := s.Floor
	if floor < 1 {
		floor = 1
	}

	switch s.Kind {
	case StrategyConservative:
		min := s.Amount
		if min < 1 {
			min = 1
		}
		if balance < min {
			return 0, false
		}
		return min, true
	case StrategyMax:
		if balance < floor {
			return 0, false
		}
		return balance, true
	case StrategyCustom:
		if balance < floor {
			return 0, false
		}
		amount := s.Amount
		if amount < 1 {
			amount = 1
		}
		if amount > balance {
			amount = balance
		}
		return amount, true
	default:
		return 0, false
	}
}
