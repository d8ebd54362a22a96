// Package lineage synthesizes new persistent entities: offspring generated
// from the contributors of a validated consensus, and merged entities
// consolidating part of the population. Both paths share the syllable-fusion
// naming scheme and the genealogy bookkeeping.
package lineage

import (
	"fmt"
	"strings"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/internal/textutil"
)

// thematicAffixes are short connective fragments occasionally woven into a
// fused name.
var thematicAffixes = []string{"syn", "lum", "vex", "ora", "nis"}

const (
	minNameSyllables = 2
	maxNameSyllables = 5
	affixChance      = 0.3
)

// FuseName builds a name from the parents' vowel-bounded syllables:
// deduplicate, pick two to five in random order, optionally weave in a
// thematic affix, capitalize, and append a numeric suffix for uniqueness.
// Every random choice goes through rnd, so a seeded source yields a stable
// name.
func FuseName(rnd core.Rand, parentNames ...string) string {
	var pool []string
	seen := map[string]struct{}{}
	for _, name := range parentNames {
		for _, syl := range textutil.Syllables(name) {
			if _, ok := seen[syl]; ok {
				continue
			}
			seen[syl] = struct{}{}
			pool = append(pool, syl)
		}
	}

	suffix := fmt.Sprintf("-%03d", rnd.Intn(1000))
	if len(pool) == 0 {
		return "Entity" + suffix
	}

	n := minNameSyllables + rnd.Intn(maxNameSyllables-minNameSyllables+1)
	if n > len(pool) {
		n = len(pool)
	}
	order := rnd.Perm(len(pool))
	parts := make([]string, 0, n+1)
	for _, idx := range order[:n] {
		parts = append(parts, pool[idx])
	}
	if rnd.Float64() < affixChance {
		affix := thematicAffixes[rnd.Intn(len(thematicAffixes))]
		at := rnd.Intn(len(parts) + 1)
		parts = append(parts[:at], append([]string{affix}, parts[at:]...)...)
	}
	return textutil.Capitalize(strings.Join(parts, "")) + suffix
}
