// Package selection picks the next prompt to display under a two-tier
// fairness policy: never-used prompts take priority, then recency-weighted
// random choice.
package selection

import (
	"math/rand/v2"

	"github.com/promptdeck/promptdeck/pkg/models"
)

// Picker selects prompts. A Picker is not safe for concurrent use; the
// session controller serializes calls.
type Picker struct {
	rng *rand.Rand
}

// New creates a Picker. A nil rng uses a time-seeded source.
func New(rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Picker{rng: rng}
}

// Pick returns the text of the next prompt to display.
//
// Tier 1: if any prompt has never been used, pick uniformly among those.
// Tier 2: pick with probability proportional to 1/(usedCount+1), so
// rarely-used prompts reappear more often but none is ever excluded.
//
// Pick requires a non-empty input; calling it on an empty collection is a
// programmer error and panics.
func (p *Picker) Pick(records models.PromptRecords) string {
	if len(records) == 0 {
		panic("selection: Pick called on empty prompt set")
	}

	var unused []int
	for i, rec := range records {
		if !rec.Used() {
			unused = append(unused, i)
		}
	}
	if len(unused) > 0 {
		return records[unused[p.rng.IntN(len(unused))]].Text
	}

	var total float64
	for _, rec := range records {
		total += weight(rec)
	}

	draw := p.rng.Float64() * total
	var cumulative float64
	for _, rec := range records {
		cumulative += weight(rec)
		if draw < cumulative {
			return rec.Text
		}
	}
	// Floating-point error exhausted the weights without a hit.
	return records[len(records)-1].Text
}

func weight(rec models.PromptRecord) float64 {
	return 1.0 / float64(rec.UsedCount+1)
}
