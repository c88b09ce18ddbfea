package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck/pkg/models"
)

// PromptListRow is the persisted shape of a prompt list. Prompts are stored
// as a JSON document in a single column, mirroring the wire shape
// [{text, lastUsed?}].
type PromptListRow struct {
	ID             string               `gorm:"primaryKey"`
	Name           string               `gorm:"not null"`
	OwnerID        string               `gorm:"index:idx_prompt_lists_owner;not null"`
	Prompts        models.PromptRecords `gorm:"type:text;not null"`
	CreatedAt      string               `gorm:"not null"`
	CreatedAtEpoch int64                `gorm:"index:idx_prompt_lists_created,sort:desc;not null"`
}

func (PromptListRow) TableName() string { return "prompt_lists" }

// BeforeCreate hook to ensure timestamps are set.
func (r *PromptListRow) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().Format(time.RFC3339)
	}
	return nil
}

func (r *PromptListRow) toModel() *models.PromptList {
	return &models.PromptList{
		ID:             r.ID,
		Name:           r.Name,
		Prompts:        r.Prompts,
		OwnerID:        r.OwnerID,
		CreatedAt:      r.CreatedAt,
		CreatedAtEpoch: r.CreatedAtEpoch,
	}
}
