// Package scoring implements the pure consensus scoring engine: it turns a
// set of claims into a credibility tier without touching the database.
package scoring

import (
	"math"
)

// Tier bands over the normalized score. The mapping is a monotonic step
// function; boundaries are inclusive on the lower edge.
const (
	tier1Threshold = 5.0
	tier2Threshold = 15.0
	tier3Threshold = 35.0
	tier4Threshold = 60.0
)

// ClaimInput is the slice of a claim the engine cares about.
type ClaimInput struct {
	Impact       int
	Confidence   int
	HelpfulVotes int
}

// Result is the aggregate consensus score for one source.
// Tier is nil for an empty claim set: a source without claims is unrated,
// not tier 0.
type Result struct {
	Tier            *int
	RawScore        float64
	NormalizedScore float64
	ClaimCount      int
}

// Score aggregates claims into a consensus result.
//
// Each claim contributes weight (1 + ln(helpfulVotes+1)) * impact *
// confidence, so community votes help sub-linearly and a single
// heavily-upvoted claim cannot dominate. The raw sum is divided by
// sqrt(claimCount) to dampen, without eliminating, the advantage of claim
// volume.
func Score(claims []ClaimInput) Result {
	result := Result{ClaimCount: len(claims)}
	if len(claims) == 0 {
		return result
	}

	for _, claim := range claims {
		result.RawScore += ClaimWeight(claim)
	}
	result.NormalizedScore = result.RawScore / math.Sqrt(float64(result.ClaimCount))

	tier := TierForScore(result.NormalizedScore)
	result.Tier = &tier
	return result
}

// ClaimWeight returns the weight a single claim contributes to the raw score.
func ClaimWeight(claim ClaimInput) float64 {
	voteBoost := 1 + math.Log(float64(claim.HelpfulVotes)+1)
	return voteBoost * float64(claim.Impact) * float64(claim.Confidence)
}

// TierForScore maps a normalized score onto the 0-4 credibility tiers.
func TierForScore(normalized float64) int {
	switch {
	case normalized >= tier4Threshold:
		return 4
	case normalized >= tier3Threshold:
		return 3
	case normalized >= tier2Threshold:
		return 2
	case normalized >= tier1Threshold:
		return 1
	default:
		return 0
	}
}

// DisputeScore ranks how contested a claim is: balanced votes weigh double,
// raw volume keeps heavily-voted claims ahead of barely-voted ones.
func DisputeScore(helpful, notHelpful int) int {
	balance := helpful
	if notHelpful < helpful {
		balance = notHelpful
	}
	return balance*2 + helpful + notHelpful
}
