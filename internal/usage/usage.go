// Package usage tracks per-prompt recency data and reconciles it with
// freshly parsed prompt text.
package usage

import (
	"sort"
	"time"

	"github.com/promptdeck/promptdeck/pkg/models"
)

// MergedView joins freshly parsed texts with stored usage records by exact
// text equality. Texts without a stored record get empty usage; stored
// records whose text no longer appears in parsedTexts are dropped from the
// view (they stay in storage until the next full save overwrites them).
func MergedView(parsedTexts []string, stored models.PromptRecords) models.PromptRecords {
	byText := make(map[string]models.PromptRecord, len(stored))
	for _, rec := range stored {
		// First occurrence wins for duplicate stored texts.
		if _, ok := byText[rec.Text]; !ok {
			byText[rec.Text] = rec
		}
	}

	merged := make(models.PromptRecords, 0, len(parsedTexts))
	for _, text := range parsedTexts {
		if rec, ok := byText[text]; ok {
			merged = append(merged, rec)
		} else {
			merged = append(merged, models.PromptRecord{Text: text})
		}
	}
	return merged
}

// MarkUsed returns a copy of records with LastUsed set to now (and UsedCount
// incremented) on every record whose text matches. All other records are
// preserved unchanged.
func MarkUsed(records models.PromptRecords, text string, now time.Time) models.PromptRecords {
	updated := make(models.PromptRecords, len(records))
	copy(updated, records)
	for i := range updated {
		if updated[i].Text == text {
			ts := now
			updated[i].LastUsed = &ts
			updated[i].UsedCount++
		}
	}
	return updated
}

// SortForDisplay orders records for "show all" views: never-used prompts
// first in their original parse order, then used prompts ascending by
// LastUsed so the longest-unused surface first.
func SortForDisplay(records models.PromptRecords) models.PromptRecords {
	sorted := make(models.PromptRecords, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.LastUsed == nil && b.LastUsed == nil:
			return false // keep parse order
		case a.LastUsed == nil:
			return true
		case b.LastUsed == nil:
			return false
		default:
			return a.LastUsed.Before(*b.LastUsed)
		}
	})
	return sorted
}
