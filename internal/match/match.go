package match

import (
	"time"
)

// Match is a read-only projection of one remote voting round. It is fetched
// fresh on every poll and never cached across a scheduling decision; the
// remote match can change underneath the scheduler, so every read must
// re-validate identity via ID.
type Match struct {
	ID          string
	VotingStart *time.Time
	VotingEnd   *time.Time
	Sides       []Side
	Voted       bool
}

// Side is one competitor ("mech") in a match. The remote service does not
// label teams explicitly; Position is the index the service returned the
// side at and is the only stable handle a team preference can map onto.
type Side struct {
	ID             string
	Position       int
	WinProbability float64
	VoteCount      int
	FuelPoints     int
	OwnerName      string
}

// SameRound reports whether the match still identifies the round we last
// processed.
func (m Match) SameRound(lastID string) bool {
	return m.ID != "" && m.ID == lastID
}
