package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundNameForMatchCount(t *testing.T) {
	assert.Equal(t, RoundFinal, RoundNameForMatchCount(1))
	assert.Equal(t, RoundSemifinal, RoundNameForMatchCount(2))
	assert.Equal(t, RoundQuarterfinal, RoundNameForMatchCount(4))
	assert.Equal(t, RoundRoundOf16, RoundNameForMatchCount(8))
	assert.Equal(t, RoundRoundOf32, RoundNameForMatchCount(16))
	assert.Equal(t, RoundRoundOf64, RoundNameForMatchCount(32))
	assert.Equal(t, "ronda_64", RoundNameForMatchCount(64))
}

func TestNextRound(t *testing.T) {
	assert.Equal(t, RoundSemifinal, NextRound(RoundQuarterfinal))
	assert.Equal(t, RoundFinal, NextRound(RoundSemifinal))
	assert.Equal(t, "", NextRound(RoundFinal))
	assert.Equal(t, "", NextRound(RoundThirdPlace))
	assert.Equal(t, "", NextRound("3")) // group-stage rounds have no successor
	assert.Equal(t, RoundRoundOf64, NextRound("ronda_64"))
	assert.Equal(t, "ronda_64", NextRound("ronda_128"))
}

func TestRoundOrderIndex(t *testing.T) {
	// Earlier rounds sort strictly before later ones.
	assert.Less(t, RoundOrderIndex("ronda_64"), RoundOrderIndex(RoundRoundOf64))
	assert.Less(t, RoundOrderIndex(RoundRoundOf64), RoundOrderIndex(RoundQuarterfinal))
	assert.Less(t, RoundOrderIndex(RoundQuarterfinal), RoundOrderIndex(RoundSemifinal))
	assert.Less(t, RoundOrderIndex(RoundSemifinal), RoundOrderIndex(RoundFinal))
	assert.Less(t, RoundOrderIndex(RoundFinal), RoundOrderIndex(RoundThirdPlace))
	assert.Less(t, RoundOrderIndex("ronda_128"), RoundOrderIndex("ronda_64"))
}
