package selection

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/promptdeck/promptdeck/pkg/models"
)

func testPicker(seed uint64) *Picker {
	return New(rand.New(rand.NewPCG(seed, seed)))
}

func used(text string, count int) models.PromptRecord {
	t := time.Now()
	return models.PromptRecord{Text: text, LastUsed: &t, UsedCount: count}
}

func TestPick_PrefersUnused(t *testing.T) {
	picker := testPicker(1)
	records := models.PromptRecords{
		used("seen-a", 1),
		{Text: "fresh-1"},
		used("seen-b", 4),
		{Text: "fresh-2"},
	}

	// Only the unused tier is ever selected while it is non-empty.
	for i := 0; i < 200; i++ {
		got := picker.Pick(records)
		assert.Contains(t, []string{"fresh-1", "fresh-2"}, got)
	}
}

func TestPick_UnusedTierIsUniform(t *testing.T) {
	picker := testPicker(7)
	records := models.PromptRecords{{Text: "a"}, {Text: "b"}}

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		counts[picker.Pick(records)]++
	}
	assert.Greater(t, counts["a"], 700)
	assert.Greater(t, counts["b"], 700)
}

func TestPick_WeightedTierNeverStarves(t *testing.T) {
	picker := testPicker(42)
	records := models.PromptRecords{
		used("rare", 1),
		used("common", 9),
	}

	counts := map[string]int{}
	for i := 0; i < 5000; i++ {
		counts[picker.Pick(records)]++
	}

	// Every prompt keeps a strictly positive selection probability.
	assert.Greater(t, counts["rare"], 0)
	assert.Greater(t, counts["common"], 0)
	// Weight 1/2 vs 1/10: the rarely-used prompt dominates.
	assert.Greater(t, counts["rare"], counts["common"]*2)
}

func TestPick_SingleRecord(t *testing.T) {
	picker := testPicker(3)
	assert.Equal(t, "only", picker.Pick(models.PromptRecords{used("only", 5)}))
	assert.Equal(t, "only", picker.Pick(models.PromptRecords{{Text: "only"}}))
}

func TestPick_EmptyPanics(t *testing.T) {
	picker := testPicker(1)
	assert.Panics(t, func() { picker.Pick(nil) })
}

func TestNew_NilRand(t *testing.T) {
	picker := New(nil)
	assert.NotEmpty(t, picker.Pick(models.PromptRecords{{Text: "x"}}))
}
