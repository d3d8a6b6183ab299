package services

import (
	"context"
	"testing"

	"github.com/fedeportes/torneo-engine/brackets"
	"github.com/fedeportes/torneo-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBracketFiveParticipants(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)

	result, err := env.bracket.BuildBracket(context.Background(), 1, []int64{1, 2, 3, 4, 5}, true)
	require.NoError(t, err)

	require.Len(t, result.Matches, 7)
	assert.Equal(t, 8, result.Info.TotalSlots)
	assert.Equal(t, 3, result.Info.ByeCount)
	assert.True(t, result.Info.HasThirdPlace)

	require.NotNil(t, result.ThirdPlaceMatch)
	assert.Equal(t, models.ThirdPlaceMatchNumber, result.ThirdPlaceMatch.MatchNumber)
	assert.Equal(t, brackets.RoundThirdPlace, result.ThirdPlaceMatch.Round)

	// Bye winners were resolved and cascaded during the build.
	byNumber := make(map[int]*models.Match)
	for _, m := range result.Matches {
		byNumber[m.MatchNumber] = m
	}
	bye := byNumber[3]
	assert.Equal(t, models.StatusFinished, bye.Status)
	assert.True(t, bye.Walkover)
	require.NotNil(t, bye.WalkoverReason)
	assert.Equal(t, "bye", *bye.WalkoverReason)
	require.NotNil(t, bye.WinnerRegistrationRef)
	assert.Equal(t, int64(5), *bye.WinnerRegistrationRef)

	structure, err := env.bracket.GetBracketStructure(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, structure.Stats.TotalMatches)
	assert.Equal(t, 2, structure.Stats.FinishedMatches)
	assert.Equal(t, 5, structure.Stats.PendingMatches)
	assert.False(t, structure.Stats.Complete)
	require.NotNil(t, structure.ThirdPlaceMatch)

	// Rounds come back earliest first.
	require.Len(t, structure.ByRound, 3)
	assert.Equal(t, brackets.RoundQuarterfinal, structure.ByRound[0].Round)
	assert.Equal(t, brackets.RoundSemifinal, structure.ByRound[1].Round)
	assert.Equal(t, brackets.RoundFinal, structure.ByRound[2].Round)
	assert.Len(t, structure.ByRound[0].Matches, 4)

	assert.Equal(t, 5, structure.Info.TotalParticipants)
	assert.Equal(t, 8, structure.Info.TotalSlots)
	assert.True(t, structure.Info.HasThirdPlace)
}

func TestBuildBracketValidation(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	env.store.addPhase(2, models.PhaseGroup)
	ctx := context.Background()

	_, err := env.bracket.BuildBracket(ctx, 1, []int64{7}, false)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)

	_, err = env.bracket.BuildBracket(ctx, 1, []int64{7, 8, 7}, false)
	assert.ErrorIs(t, err, ErrDuplicateRegistration)

	_, err = env.bracket.BuildBracket(ctx, 2, []int64{7, 8}, false)
	assert.ErrorIs(t, err, ErrWrongPhaseType)

	_, err = env.bracket.BuildBracket(ctx, 99, []int64{7, 8}, false)
	assert.ErrorIs(t, err, ErrPhaseNotFound)

	_, err = env.bracket.BuildBracket(ctx, 1, []int64{7, 8}, false)
	require.NoError(t, err)
	_, err = env.bracket.BuildBracket(ctx, 1, []int64{9, 10}, false)
	assert.ErrorIs(t, err, ErrPhaseAlreadyPopulated)
}

func TestChampionRequiresFinishedFinal(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)
	ctx := context.Background()

	// No matches at all: there is no final to consult.
	_, err := env.bracket.GetChampion(ctx, 1)
	assert.ErrorIs(t, err, ErrNoFinalMatch)

	_, err = env.bracket.BuildBracket(ctx, 1, []int64{1, 2, 3, 4}, false)
	require.NoError(t, err)

	_, err = env.bracket.GetChampion(ctx, 1)
	assert.ErrorIs(t, err, ErrBracketNotComplete)

	complete, err := env.bracket.IsBracketComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestGetBracketStructureWrongPhaseType(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(3, models.PhaseBestOfThree)

	_, err := env.bracket.GetBracketStructure(context.Background(), 3)
	assert.ErrorIs(t, err, ErrWrongPhaseType)

	_, err = env.bracket.GetBracketStructure(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPhaseNotFound)
}

func TestBuildBracketBroadcasts(t *testing.T) {
	env := newTestEnv()
	env.store.addPhase(1, models.PhaseElimination)

	_, err := env.bracket.BuildBracket(context.Background(), 1, []int64{1, 2}, false)
	require.NoError(t, err)

	require.Len(t, env.notifier.events, 1)
	assert.Equal(t, brackets.EventBracketUpdated, env.notifier.events[0].Type)
}
