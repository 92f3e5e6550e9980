package match

// Preference names which side of a match an account wants to back.
// The remote payload does not label teams, so "first"/"second" refer to the
// position sides arrive in. The position-to-team mapping is a convention
// inferred from observed payloads and is deliberately confined to this file.
type Preference int

const (
	PreferenceAuto Preference = iota
	PreferenceFirst
	PreferenceSecond
)

func (p Preference) String() string {
	switch p {
	case PreferenceFirst:
		return "first"
	case PreferenceSecond:
		return "second"
	default:
		return "auto"
	}
}

// position returns the side index a preference maps to, or -1 for auto.
func (p Preference) position() int {
	switch p {
	case PreferenceFirst:
		return 0
	case PreferenceSecond:
		return 1
	default:
		return -1
	}
}

// ChooseSide picks the side to vote for. An explicit positional preference
// always wins when a side exists at that position, regardless of its
// metrics. Otherwise the sides are ranked by (WinProbability, VoteCount,
// FuelPoints) descending and the top side is returned. The second return is
// false when there are no sides to choose from.
func ChooseSide(sides []Side, pref Preference) (Side, bool) {
	if len(sides) == 0 {
		return Side{}, false
	}

	if pos := pref.position(); pos >= 0 && pos < len(sides) {
		return sides[pos], true
	}

	best := sides[0]
	for _, s := range sides[1:] {
		if ranksAbove(s, best) {
			best = s
		}
	}
	return best, true
}

func ranksAbove(a, b Side) bool {
	if a.WinProbability != b.WinProbability {
		return a.WinProbability > b.WinProbability
	}
	if a.VoteCount != b.VoteCount {
		return a.VoteCount > b.VoteCount
	}
	return a.FuelPoints > b.FuelPoints
}
