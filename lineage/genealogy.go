package lineage

import (
	"sort"

	"github.com/dr3armsed/AiAlive-sub000/core"
)

// Influence weights on ancestral contribution scoring.
const (
	influenceEmotionWeight = 0.7
	influenceTraitWeight   = 0.3
)

// AncestralInfluence computes each parent's contribution percentage to an
// offspring: (0.7 * emotion sum + 0.3 * trait count), normalized across
// parents to sum to 100. Parents with a zero raw score keep a zero share.
func AncestralInfluence(parents []*core.Entity) map[string]float64 {
	raw := make(map[string]float64, len(parents))
	var total float64
	for _, p := range parents {
		score := influenceEmotionWeight*p.EmotionSum() + influenceTraitWeight*float64(len(p.Traits))
		raw[p.ID] = score
		total += score
	}
	if total == 0 {
		// degenerate parents: split evenly so percentages still sum to 100
		share := 100.0 / float64(len(parents))
		for id := range raw {
			raw[id] = share
		}
		return raw
	}
	for id, score := range raw {
		raw[id] = score / total * 100
	}
	return raw
}

// ParentRecord is one parent's entry in a family tree.
type ParentRecord struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Generation int     `json:"generation"`
	Influence  float64 `json:"influence_pct"`
}

// FamilyTree is the mini genealogy recorded for a synthesized entity:
// direct parents with their influence shares, sibling entities sharing at
// least one parent, and one hop of cross-lineage (grandparent ids).
type FamilyTree struct {
	EntityID     string         `json:"entity_id"`
	Parents      []ParentRecord `json:"parents"`
	Siblings     []string       `json:"siblings,omitempty"`
	Grandparents []string       `json:"grandparents,omitempty"`
}

// BuildFamilyTree assembles the tree for entity given its resolved parents
// and the directory to scan for siblings. A nil directory yields a tree
// without sibling links.
func BuildFamilyTree(entityID string, parents []*core.Entity, influence map[string]float64, dir core.Directory) *FamilyTree {
	tree := &FamilyTree{EntityID: entityID}

	parentIDs := map[string]struct{}{}
	grandparents := map[string]struct{}{}
	for _, p := range parents {
		parentIDs[p.ID] = struct{}{}
		tree.Parents = append(tree.Parents, ParentRecord{
			ID:         p.ID,
			Name:       p.Name,
			Generation: p.Generation,
			Influence:  influence[p.ID],
		})
		for _, gp := range p.ParentIDs {
			grandparents[gp] = struct{}{}
		}
	}
	sort.Slice(tree.Parents, func(i, j int) bool { return tree.Parents[i].ID < tree.Parents[j].ID })
	tree.Grandparents = sortedSet(grandparents)

	if dir == nil {
		return tree
	}
	siblings := map[string]struct{}{}
	for _, e := range dir.List("") {
		if e.ID == entityID {
			continue
		}
		// Replicas of a contributing base registered during a live debate
		// share a parent id but are not family.
		if e.Status == core.StatusReplica {
			continue
		}
		for _, pid := range e.ParentIDs {
			if _, ok := parentIDs[pid]; ok {
				siblings[e.ID] = struct{}{}
				break
			}
		}
	}
	tree.Siblings = sortedSet(siblings)
	return tree
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
