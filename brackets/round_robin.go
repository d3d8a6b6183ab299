package brackets

import "errors"

var ErrNotEnoughGroupParticipants = errors.New("not enough participants for a round robin group (minimum 2)")

// RoundRobinPairing is one match of a group stage: round is 1-based, sides
// are registration refs in pairing order (A first).
type RoundRobinPairing struct {
	Round int
	SideA int64
	SideB int64
}

// PlanRoundRobin generates the circle-method schedule: position 0 stays
// fixed, the rest rotate one step after every round, and round r pairs
// position i with position n-1-i. Odd participant counts get a synthetic bye
// slot whose pairings are skipped, so every real participant sits out exactly
// one round. All pairs meet exactly once across n-1 rounds.
func PlanRoundRobin(refs []int64) ([]RoundRobinPairing, error) {
	if len(refs) < 2 {
		return nil, ErrNotEnoughGroupParticipants
	}

	const byeSlot = int64(-1)
	positions := make([]int64, len(refs))
	copy(positions, refs)
	if len(positions)%2 != 0 {
		positions = append(positions, byeSlot)
	}

	n := len(positions)
	numRounds := n - 1
	matchesPerRound := n / 2

	pairings := make([]RoundRobinPairing, 0, numRounds*matchesPerRound)
	for round := 1; round <= numRounds; round++ {
		for i := 0; i < matchesPerRound; i++ {
			a := positions[i]
			b := positions[n-1-i]
			if a == byeSlot || b == byeSlot {
				continue
			}
			pairings = append(pairings, RoundRobinPairing{Round: round, SideA: a, SideB: b})
		}

		// Rotate everything except position 0 one step clockwise.
		last := positions[n-1]
		copy(positions[2:], positions[1:n-1])
		positions[1] = last
	}

	return pairings, nil
}

// NumRoundRobinRounds reports how many rounds the schedule for n real
// participants spans (n-1 for even n, n for odd n after the bye slot).
func NumRoundRobinRounds(n int) int {
	if n%2 != 0 {
		return n
	}
	return n - 1
}
