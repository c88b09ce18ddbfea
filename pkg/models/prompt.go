// Package models contains domain models for promptdeck.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// PromptRecord is one prompt within a list, together with its usage data.
// Within a list a prompt is identified by its text value: text equality is
// the join key between stored usage data and freshly re-parsed text.
// Duplicate texts in one list share usage data indistinguishably.
type PromptRecord struct {
	Text      string     `json:"text"`
	LastUsed  *time.Time `json:"lastUsed,omitempty"`
	UsedCount int        `json:"usedCount,omitempty"`
}

// Used reports whether the prompt has ever been shown via mark-used.
func (r PromptRecord) Used() bool {
	return r.LastUsed != nil || r.UsedCount > 0
}

// PromptRecords is a slice of PromptRecord stored as JSON in a single text
// column.
type PromptRecords []PromptRecord

// Texts returns the prompt texts in order.
func (rs PromptRecords) Texts() []string {
	texts := make([]string, len(rs))
	for i, r := range rs {
		texts[i] = r.Text
	}
	return texts
}

// Value implements driver.Valuer for database storage.
func (rs PromptRecords) Value() (driver.Value, error) {
	if rs == nil {
		return "[]", nil
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval.
func (rs *PromptRecords) Scan(value interface{}) error {
	if value == nil {
		*rs = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type for PromptRecords: %T", value)
	}
	if len(data) == 0 {
		*rs = nil
		return nil
	}
	return json.Unmarshal(data, rs)
}
