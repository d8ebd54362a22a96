package debate

import (
	"strings"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/textutil"
)

// ConvergenceVocabulary is the fixed thematic-agreement vocabulary hits are
// counted against when recomputing the convergence score.
var ConvergenceVocabulary = []string{
	"agree", "agreement", "align", "aligned", "shared", "common",
	"consensus", "synthesis", "integrate", "accept", "support",
	"together", "converges", "harmonize",
}

// DivergenceVocabulary is the fixed contradiction-signal vocabulary.
var DivergenceVocabulary = []string{
	"contradiction", "disagree", "oppose", "reject", "flawed",
	"dispute", "object",
}

// divergencePenalty is the convergence deduction per distinct divergence
// keyword present in the scoring window.
const divergencePenalty = 0.2

// divergenceStep / divergenceDecay drive the divergence-intensity
// accumulator: +0.4 per distinct keyword detected in the newest turns,
// -0.1 decay on a quiet round, floored at zero.
const (
	divergenceStep  = 0.4
	divergenceDecay = 0.1
)

// convergenceScore normalizes thematic keyword hits across the window to
// [0,1] (two hits per turn saturates) and deducts for distinct divergence
// signals, clamping the result.
func convergenceScore(window []core.Turn) float64 {
	if len(window) == 0 {
		return 0
	}
	text := joinTurns(window)
	hits := textutil.CountHits(text, ConvergenceVocabulary)
	normalized := float64(hits) / float64(2*len(window))
	distinct := len(textutil.DistinctHits(text, DivergenceVocabulary))
	return core.Clamp01(normalized - divergencePenalty*float64(distinct))
}

// updateDivergence applies one round's worth of accumulation or decay to the
// running divergence intensity, returning the new value plus the distinct
// keywords detected in the fresh turns.
func updateDivergence(current float64, freshTurns []core.Turn) (float64, []string) {
	detected := textutil.DistinctHits(joinTurns(freshTurns), DivergenceVocabulary)
	if len(detected) == 0 {
		current -= divergenceDecay
		if current < 0 {
			current = 0
		}
		return current, nil
	}
	return current + divergenceStep*float64(len(detected)), detected
}

func joinTurns(turns []core.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Content)
		sb.WriteByte(' ')
	}
	return sb.String()
}
