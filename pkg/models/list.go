// Package models contains domain models for promptdeck.
package models

import "time"

// PromptList is a named, user-owned prompt collection persisted in the
// document store. The ID is assigned by the store on creation and is stable
// for the list's lifetime; OwnerID is set at creation and never changes.
type PromptList struct {
	ID             string        `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	Prompts        PromptRecords `db:"prompts" json:"prompts"`
	OwnerID        string        `db:"owner_id" json:"userId"`
	CreatedAt      string        `db:"created_at" json:"createdAt"`
	CreatedAtEpoch int64         `db:"created_at_epoch" json:"createdAtEpoch"`
}

// NewPromptList builds an unsaved list from plain prompt texts. Freshly
// created lists carry no usage data.
func NewPromptList(id, ownerID, name string, texts []string) *PromptList {
	now := time.Now()
	records := make(PromptRecords, len(texts))
	for i, t := range texts {
		records[i] = PromptRecord{Text: t}
	}
	return &PromptList{
		ID:             id,
		Name:           name,
		Prompts:        records,
		OwnerID:        ownerID,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
	}
}
