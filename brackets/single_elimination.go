package brackets

import (
	"errors"
	"math"

	"github.com/fedeportes/torneo-engine/models"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to generate a single elimination bracket (minimum 2)")

// PlannedParticipant is a first-round (or cascaded) slot assignment.
type PlannedParticipant struct {
	Ref    int64
	Corner models.Corner
}

// PlannedMatch is one match of the computed bracket, before persistence.
// Matches carry a dense round-major number starting at 1. A match resolved at
// build time (bye) has Winner set and Status finished.
type PlannedMatch struct {
	MatchNumber  int
	Round        string
	Participants []PlannedParticipant
	Winner       *int64
	Status       models.MatchStatus
	Walkover     bool
}

// Plan is the full output of the single-elimination builder.
type Plan struct {
	Matches []PlannedMatch
	Info    models.BracketInfo
}

// BracketSize returns the number of first-round slots for n participants:
// the next power of two, rounding up.
func BracketSize(n int) int {
	if n <= 1 {
		return n
	}
	return 1 << uint(math.Ceil(math.Log2(float64(n))))
}

// ComputeBracketInfo derives the slot/round/bye counts for n participants.
func ComputeBracketInfo(n int, hasThirdPlace bool) models.BracketInfo {
	slots := BracketSize(n)
	rounds := 0
	if slots > 1 {
		rounds = int(math.Log2(float64(slots)))
	}
	return models.BracketInfo{
		TotalParticipants: n,
		TotalSlots:        slots,
		TotalRounds:       rounds,
		ByeCount:          slots - n,
		HasThirdPlace:     hasThirdPlace,
	}
}

// outcome is what a bracket position produces for the next round: a concrete
// participant (decided at build time), a winner still to be played out, or
// nothing at all (both feeders were byes).
type outcome struct {
	ref     *int64
	pending bool
}

func (o outcome) void() bool { return o.ref == nil && !o.pending }

// PlanSingleElimination computes the whole bracket for an ordered participant
// list. Participants at indexes 2k and 2k+1 meet in first-round match k
// (corners BLUE/WHITE). Empty slots are byes: a match fed by one participant
// and one bye resolves immediately and its winner cascades into the next
// round, repeatedly if that match is also forced. A match fed by two byes is
// left scheduled with zero participants and feeds nothing downstream.
func PlanSingleElimination(refs []int64) (*Plan, error) {
	n := len(refs)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	info := ComputeBracketInfo(n, false)
	slots := info.TotalSlots

	current := make([]outcome, slots)
	for i := 0; i < slots; i++ {
		if i < n {
			ref := refs[i]
			current[i] = outcome{ref: &ref}
		} else {
			current[i] = outcome{}
		}
	}

	plan := &Plan{Info: info}
	matchNumber := 0

	for matchCount := slots / 2; matchCount >= 1; matchCount /= 2 {
		roundName := RoundNameForMatchCount(matchCount)
		next := make([]outcome, 0, matchCount)

		for k := 0; k < matchCount; k++ {
			a := current[2*k]
			b := current[2*k+1]

			matchNumber++
			pm := PlannedMatch{
				MatchNumber: matchNumber,
				Round:       roundName,
				Status:      models.StatusScheduled,
			}

			if a.ref != nil {
				pm.Participants = append(pm.Participants, PlannedParticipant{Ref: *a.ref, Corner: models.CornerBlue})
			}
			if b.ref != nil {
				corner := models.CornerWhite
				if len(pm.Participants) == 0 {
					corner = models.CornerBlue
				}
				pm.Participants = append(pm.Participants, PlannedParticipant{Ref: *b.ref, Corner: corner})
			}

			switch {
			case len(pm.Participants) == 1 && (a.void() || b.void()):
				// Forced single participant: resolve as a bye and cascade.
				winner := pm.Participants[0].Ref
				pm.Winner = &winner
				pm.Status = models.StatusFinished
				pm.Walkover = true
				next = append(next, outcome{ref: &winner})
			case a.void() && b.void():
				// Both feeders were byes. Left scheduled with zero
				// participants; nothing can ever arrive here.
				next = append(next, outcome{})
			default:
				// At least one side is still to be decided.
				next = append(next, outcome{pending: true})
			}

			plan.Matches = append(plan.Matches, pm)
		}
		current = next
	}

	return plan, nil
}
