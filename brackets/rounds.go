package brackets

import "fmt"

// Symbolic round names for single elimination. The third-place match runs in
// parallel to the final and is only ever fed by semifinal losers.
const (
	RoundFinal           = "final"
	RoundSemifinal       = "semifinal"
	RoundQuarterfinal    = "cuartos"
	RoundRoundOf16       = "octavos"
	RoundRoundOf32       = "dieciseisavos"
	RoundRoundOf64       = "treintaidosavos"
	RoundThirdPlace      = "tercer_lugar"
	syntheticRoundFormat = "ronda_%d"
)

// eliminationOrder is the strict total order of elimination rounds, earliest
// first. tercer_lugar is deliberately absent: it has no successor and is
// never a successor.
var eliminationOrder = []string{
	RoundRoundOf64,
	RoundRoundOf32,
	RoundRoundOf16,
	RoundQuarterfinal,
	RoundSemifinal,
	RoundFinal,
}

var roundNameByMatchCount = map[int]string{
	1:  RoundFinal,
	2:  RoundSemifinal,
	4:  RoundQuarterfinal,
	8:  RoundRoundOf16,
	16: RoundRoundOf32,
	32: RoundRoundOf64,
}

// RoundNameForMatchCount returns the symbolic name of the round holding the
// given number of matches. Sizes beyond the named ones get a synthetic name.
func RoundNameForMatchCount(matchCount int) string {
	if name, ok := roundNameByMatchCount[matchCount]; ok {
		return name
	}
	return fmt.Sprintf(syntheticRoundFormat, matchCount)
}

// NextRound returns the successor round name, or "" when the given round is
// the final, the third-place match, or unknown. Synthetic rounds larger than
// treintaidosavos feed into the next synthetic (or named) size down.
func NextRound(round string) string {
	for i, r := range eliminationOrder {
		if r == round {
			if i == len(eliminationOrder)-1 {
				return ""
			}
			return eliminationOrder[i+1]
		}
	}
	var count int
	if _, err := fmt.Sscanf(round, syntheticRoundFormat, &count); err == nil && count > 1 {
		return RoundNameForMatchCount(count / 2)
	}
	return ""
}

// RoundOrderIndex reports the position of a round in the elimination order,
// used for sorting grouped bracket output. Synthetic rounds sort before all
// named ones by size descending; unknown rounds sort last.
func RoundOrderIndex(round string) int {
	var count int
	if _, err := fmt.Sscanf(round, syntheticRoundFormat, &count); err == nil {
		return -count
	}
	for i, r := range eliminationOrder {
		if r == round {
			return i
		}
	}
	return len(eliminationOrder) + 1
}
