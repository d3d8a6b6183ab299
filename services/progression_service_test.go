package services

import (
	"context"
	"testing"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refsOf(participations []models.Participation) []int64 {
	out := make([]int64, 0, len(participations))
	for _, p := range participations {
		out = append(out, p.RegistrationRef)
	}
	return out
}

func TestAdvanceWinnerFullBracket(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	ctx := context.Background()

	built, err := env.bracket.BuildBracket(ctx, 1, []int64{10, 20, 30, 40}, true)
	require.NoError(t, err)
	semi1, semi2, final := built.Matches[0], built.Matches[1], built.Matches[2]

	// First semifinal: 10 beats 20.
	s1, s2 := 21, 15
	res, err := env.progression.AdvanceWinner(ctx, semi1.ID, 10, &s1, &s2)
	require.NoError(t, err)
	assert.Equal(t, "winner advanced to final", res.Message)
	require.NotNil(t, res.NextMatch)
	assert.Equal(t, final.ID, res.NextMatch.ID)

	// Winner takes the blue corner of the empty final, loser goes to the
	// third-place match.
	require.Len(t, res.NextMatch.Participations, 1)
	assert.Equal(t, int64(10), res.NextMatch.Participations[0].RegistrationRef)
	assert.Equal(t, models.CornerBlue, res.NextMatch.Participations[0].Corner)
	require.NotNil(t, res.ThirdPlaceMatch)
	assert.Equal(t, []int64{20}, refsOf(res.ThirdPlaceMatch.Participations))

	// Second semifinal: 30 beats 40.
	res, err = env.progression.AdvanceWinner(ctx, semi2.ID, 30, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, res.NextMatch)
	assert.ElementsMatch(t, []int64{10, 30}, refsOf(res.NextMatch.Participations))
	require.NotNil(t, res.ThirdPlaceMatch)
	assert.ElementsMatch(t, []int64{20, 40}, refsOf(res.ThirdPlaceMatch.Participations))

	// Final: 30 wins the title.
	res, err = env.progression.AdvanceWinner(ctx, final.ID, 30, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "champion determined", res.Message)
	assert.Nil(t, res.NextMatch)

	champion, err := env.bracket.GetChampion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), champion)

	complete, err := env.bracket.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, complete)

	// Third place is its own result, decided independently of the final.
	res, err = env.progression.AdvanceWinner(ctx, built.ThirdPlaceMatch.ID, 40, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "third place determined", res.Message)

	third, err := env.bracket.GetThirdPlace(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), third)
}

func TestAdvanceWinnerIdempotent(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	ctx := context.Background()

	built, err := env.bracket.BuildBracket(ctx, 1, []int64{10, 20, 30, 40}, false)
	require.NoError(t, err)
	semi1 := built.Matches[0]

	first, err := env.progression.AdvanceWinner(ctx, semi1.ID, 10, nil, nil)
	require.NoError(t, err)
	second, err := env.progression.AdvanceWinner(ctx, semi1.ID, 10, nil, nil)
	require.NoError(t, err)

	// Re-reporting the same winner changes nothing downstream: the final
	// still holds exactly one slot for registration 10.
	assert.Equal(t, refsOf(first.NextMatch.Participations), refsOf(second.NextMatch.Participations))
	require.Len(t, second.NextMatch.Participations, 1)
	assert.Equal(t, int64(10), second.NextMatch.Participations[0].RegistrationRef)
}

func TestAdvanceWinnerCorrectedAfterReopen(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	ctx := context.Background()

	built, err := env.bracket.BuildBracket(ctx, 1, []int64{10, 20, 30, 40}, true)
	require.NoError(t, err)
	semi1, semi2, final := built.Matches[0], built.Matches[1], built.Matches[2]

	_, err = env.progression.AdvanceWinner(ctx, semi1.ID, 10, nil, nil)
	require.NoError(t, err)
	_, err = env.progression.AdvanceWinner(ctx, semi2.ID, 30, nil, nil)
	require.NoError(t, err)

	// A score-entry collaborator reopens the first semifinal and the
	// corrected winner is reported.
	reopened := env.store.matchByID(semi1.ID)
	reopened.Status = models.StatusScheduled
	reopened.WinnerRegistrationRef = nil

	res, err := env.progression.AdvanceWinner(ctx, semi1.ID, 20, nil, nil)
	require.NoError(t, err)

	// The stale winner is evicted from the final, which never exceeds two
	// slots, and the replacement inherits the freed corner.
	finalParts := env.store.matchParticipations(final.ID)
	require.Len(t, finalParts, 2)
	assert.ElementsMatch(t, []int64{20, 30}, refsOf(finalParts))
	for _, p := range finalParts {
		if p.RegistrationRef == 20 {
			assert.Equal(t, models.CornerBlue, p.Corner)
		}
	}
	require.NotNil(t, res.NextMatch)
	assert.ElementsMatch(t, []int64{20, 30}, refsOf(res.NextMatch.Participations))

	// The third-place match swaps losers the same way.
	thirdParts := env.store.matchParticipations(built.ThirdPlaceMatch.ID)
	require.Len(t, thirdParts, 2)
	assert.ElementsMatch(t, []int64{10, 40}, refsOf(thirdParts))
}

func TestAdvanceWinnerErrors(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	ctx := context.Background()

	built, err := env.bracket.BuildBracket(ctx, 1, []int64{1, 2, 3}, false)
	require.NoError(t, err)

	_, err = env.progression.AdvanceWinner(ctx, 12345, 1, nil, nil)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	// Registration 3 plays the second semifinal, not the first.
	_, err = env.progression.AdvanceWinner(ctx, built.Matches[0].ID, 3, nil, nil)
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)

	// The second semifinal was already resolved as a bye during the build.
	_, err = env.progression.AdvanceWinner(ctx, built.Matches[1].ID, 3, nil, nil)
	assert.ErrorIs(t, err, ErrMatchAlreadyResolved)
}

func TestProcessPhaseByesCascades(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	ctx := context.Background()

	// A bracket persisted without bye resolution: two regular quarterfinals,
	// two single-occupant ones, empty semifinals and final.
	m1 := env.store.addMatch(1, 1, brackets.RoundQuarterfinal, models.StatusScheduled)
	env.store.addParticipation(m1.ID, 1, models.CornerBlue)
	env.store.addParticipation(m1.ID, 2, models.CornerWhite)
	m2 := env.store.addMatch(1, 2, brackets.RoundQuarterfinal, models.StatusScheduled)
	env.store.addParticipation(m2.ID, 3, models.CornerBlue)
	env.store.addParticipation(m2.ID, 4, models.CornerWhite)
	m3 := env.store.addMatch(1, 3, brackets.RoundQuarterfinal, models.StatusScheduled)
	env.store.addParticipation(m3.ID, 5, models.CornerBlue)
	m4 := env.store.addMatch(1, 4, brackets.RoundQuarterfinal, models.StatusScheduled)
	env.store.addParticipation(m4.ID, 6, models.CornerBlue)
	env.store.addMatch(1, 5, brackets.RoundSemifinal, models.StatusScheduled)
	semi2 := env.store.addMatch(1, 6, brackets.RoundSemifinal, models.StatusScheduled)
	env.store.addMatch(1, 7, brackets.RoundFinal, models.StatusScheduled)

	processed, err := env.progression.ProcessPhaseByes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	// Both bye winners landed in the second semifinal.
	assert.ElementsMatch(t, []int64{5, 6}, refsOf(env.store.matchParticipations(semi2.ID)))

	resolved := env.store.matchByID(m3.ID)
	assert.Equal(t, models.StatusFinished, resolved.Status)
	assert.True(t, resolved.Walkover)
	require.NotNil(t, resolved.WalkoverReason)
	assert.Equal(t, "bye", *resolved.WalkoverReason)
	require.NotNil(t, resolved.WinnerRegistrationRef)
	assert.Equal(t, int64(5), *resolved.WinnerRegistrationRef)

	// Matches with two (or zero) participants are untouched.
	assert.Equal(t, models.StatusScheduled, env.store.matchByID(m1.ID).Status)
	assert.Equal(t, models.StatusScheduled, env.store.matchByID(m2.ID).Status)
	assert.Equal(t, models.StatusScheduled, env.store.matchByID(semi2.ID).Status)

	// The sweep converged: a second pass finds nothing.
	processed, err = env.progression.ProcessPhaseByes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}
