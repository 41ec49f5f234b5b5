package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldierill/board/internal/models"
)

func TestToggleFirstVote(t *testing.T) {
	ledger := models.VoteLedger{}

	delta, effective := toggle(ledger, "u1", 1)
	assert.Equal(t, 1, delta)
	assert.Equal(t, 1, effective)
	assert.Equal(t, 1, ledger["u1"])
}

func TestToggleRetraction(t *testing.T) {
	// Same vote twice returns the score to where it started.
	ledger := models.VoteLedger{}
	score := 0

	delta, effective := toggle(ledger, "u1", 1)
	score += delta
	assert.Equal(t, 1, score)
	assert.Equal(t, 1, effective)

	delta, effective = toggle(ledger, "u1", 1)
	score += delta
	assert.Equal(t, 0, score)
	assert.Equal(t, 0, effective)
	assert.NotContains(t, ledger, "u1")
}

func TestToggleFlip(t *testing.T) {
	ledger := models.VoteLedger{"u1": 1}
	score := 1

	delta, effective := toggle(ledger, "u1", -1)
	score += delta
	assert.Equal(t, -2, delta)
	assert.Equal(t, -1, effective)
	assert.Equal(t, -1, score)
	assert.Equal(t, -1, ledger["u1"])
}

func TestToggleTwoVotersThenFlip(t *testing.T) {
	ledger := models.VoteLedger{}
	score := 0

	delta, _ := toggle(ledger, "u1", 1)
	score += delta
	assert.Equal(t, 1, score)

	delta, _ = toggle(ledger, "u2", -1)
	score += delta
	assert.Equal(t, 0, score)

	delta, effective := toggle(ledger, "u1", -1)
	score += delta
	assert.Equal(t, -2, score)
	assert.Equal(t, -1, effective)
}

func TestToggleScoreAlwaysMatchesLedgerSum(t *testing.T) {
	ledger := models.VoteLedger{}
	score := 0

	steps := []struct {
		voter     string
		direction int
	}{
		{"u1", 1}, {"u2", 1}, {"u3", -1},
		{"u1", 1},  // retract
		{"u2", -1}, // flip
		{"u1", -1}, // fresh downvote
		{"u3", -1}, // retract
		{"u2", -1}, // retract
	}

	for _, step := range steps {
		delta, _ := toggle(ledger, step.voter, step.direction)
		score += delta
		require.Equal(t, ledger.Sum(), score,
			"score diverged from ledger after %s voted %d", step.voter, step.direction)
	}
}

func TestApplyVoteRejectsInvalidDirection(t *testing.T) {
	svc := NewService(nil)

	for _, dir := range []int{0, 2, -2, 100} {
		result, err := svc.ApplyVote(1, "u1", dir)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errInvalidVote)
	}
}
