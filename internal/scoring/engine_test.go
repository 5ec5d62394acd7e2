package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_EmptyClaimSet(t *testing.T) {
	result := Score(nil)

	assert.Nil(t, result.Tier, "a source without claims is unrated")
	assert.Equal(t, 0, result.ClaimCount)
	assert.Equal(t, 0.0, result.RawScore)
	assert.Equal(t, 0.0, result.NormalizedScore)
}

func TestScore_SingleClaimNoVotes(t *testing.T) {
	// impact 2 * confidence 3 with no votes => weight 6, tier 1
	result := Score([]ClaimInput{{Impact: 2, Confidence: 3, HelpfulVotes: 0}})

	require.NotNil(t, result.Tier)
	assert.Equal(t, 1, *result.Tier)
	assert.Equal(t, 1, result.ClaimCount)
	assert.InDelta(t, 6.0, result.RawScore, 1e-9)
	assert.InDelta(t, 6.0, result.NormalizedScore, 1e-9)
}

func TestScore_TwoMaxClaims(t *testing.T) {
	// Two 5x5 claims: raw 50, normalized 50/sqrt(2) ~ 35.36 => tier 3
	claims := []ClaimInput{
		{Impact: 5, Confidence: 5},
		{Impact: 5, Confidence: 5},
	}
	result := Score(claims)

	require.NotNil(t, result.Tier)
	assert.Equal(t, 3, *result.Tier)
	assert.InDelta(t, 50.0, result.RawScore, 1e-9)
	assert.InDelta(t, 50.0/math.Sqrt(2), result.NormalizedScore, 1e-9)
}

func TestScore_HelpfulVotesIncreaseWeight(t *testing.T) {
	base := Score([]ClaimInput{{Impact: 1, Confidence: 1, HelpfulVotes: 0}})
	voted := Score([]ClaimInput{{Impact: 1, Confidence: 1, HelpfulVotes: 9}})

	assert.Greater(t, voted.RawScore, base.RawScore)
	// ln(10) boost on a weight-1 claim
	assert.InDelta(t, 1+math.Log(10), voted.RawScore, 1e-9)
}

func TestScore_ClaimCountAlwaysMatchesInput(t *testing.T) {
	for n := 0; n < 20; n++ {
		claims := make([]ClaimInput, n)
		for i := range claims {
			claims[i] = ClaimInput{Impact: 3, Confidence: 3, HelpfulVotes: i}
		}
		assert.Equal(t, n, Score(claims).ClaimCount)
	}
}

func TestScore_MonotonicInEveryInput(t *testing.T) {
	base := []ClaimInput{
		{Impact: 2, Confidence: 2, HelpfulVotes: 1},
		{Impact: 4, Confidence: 1, HelpfulVotes: 0},
	}
	baseScore := Score(base).NormalizedScore

	bump := func(mutate func(c *ClaimInput)) float64 {
		claims := make([]ClaimInput, len(base))
		copy(claims, base)
		mutate(&claims[0])
		return Score(claims).NormalizedScore
	}

	assert.GreaterOrEqual(t, bump(func(c *ClaimInput) { c.Impact++ }), baseScore)
	assert.GreaterOrEqual(t, bump(func(c *ClaimInput) { c.Confidence++ }), baseScore)
	assert.GreaterOrEqual(t, bump(func(c *ClaimInput) { c.HelpfulVotes++ }), baseScore)
}

func TestTierForScore_Bands(t *testing.T) {
	tests := []struct {
		name       string
		normalized float64
		expected   int
	}{
		{"zero", 0, 0},
		{"just below tier 1", 4.999, 0},
		{"tier 1 lower edge", 5, 1},
		{"mid tier 1", 10, 1},
		{"tier 2 lower edge", 15, 2},
		{"mid tier 2", 34.9, 2},
		{"tier 3 lower edge", 35, 3},
		{"mid tier 3", 59.99, 3},
		{"tier 4 lower edge", 60, 4},
		{"far past tier 4", 500, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TierForScore(tt.normalized))
		})
	}
}

func TestTierForScore_Monotonic(t *testing.T) {
	previous := 0
	for s := 0.0; s <= 100; s += 0.25 {
		tier := TierForScore(s)
		assert.GreaterOrEqual(t, tier, previous, "tier must never decrease as score grows (score=%f)", s)
		previous = tier
	}
}

func TestDisputeScore(t *testing.T) {
	// Perfectly split votes beat a one-sided landslide of the same volume.
	split := DisputeScore(10, 10)
	landslide := DisputeScore(20, 0)
	assert.Greater(t, split, landslide)

	// Volume still matters between equally balanced claims.
	assert.Greater(t, DisputeScore(10, 10), DisputeScore(2, 2))
	assert.Equal(t, 0, DisputeScore(0, 0))
}
