package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck/pkg/models"
)

// ErrNotFound is returned when no list exists for the given id.
var ErrNotFound = errors.New("prompt list not found")

// ListStore provides prompt-list CRUD scoped by owner id. An empty owner id
// means "not signed in": reads return empty results and writes are no-ops,
// without contacting the store.
type ListStore struct {
	store *Store
}

// NewListStore creates a new list store.
func NewListStore(store *Store) *ListStore {
	return &ListStore{store: store}
}

// ListByOwner returns all lists owned by ownerID, most recently created
// first. Callers must not rely on the order being stable across saves.
func (s *ListStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.PromptList, error) {
	if ownerID == "" {
		return nil, nil
	}

	var rows []PromptListRow
	err := s.store.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at_epoch DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	lists := make([]*models.PromptList, len(rows))
	for i := range rows {
		lists[i] = rows[i].toModel()
	}
	return lists, nil
}

// GetByID returns the list with the given id, or ErrNotFound.
func (s *ListStore) GetByID(ctx context.Context, id string) (*models.PromptList, error) {
	var row PromptListRow
	err := s.store.DB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Create stores a new list of plain prompt texts (no usage data) and returns
// the assigned id. An empty ownerID is a no-op returning an empty id.
func (s *ListStore) Create(ctx context.Context, ownerID, name string, texts []string) (string, error) {
	if ownerID == "" {
		return "", nil
	}

	list := models.NewPromptList(uuid.NewString(), ownerID, name, texts)
	row := PromptListRow{
		ID:             list.ID,
		Name:           list.Name,
		OwnerID:        list.OwnerID,
		Prompts:        list.Prompts,
		CreatedAt:      list.CreatedAt,
		CreatedAtEpoch: list.CreatedAtEpoch,
	}
	if err := s.store.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// Rename updates the display name of the list with the given id.
func (s *ListStore) Rename(ctx context.Context, id, newName string) error {
	result := s.store.DB.WithContext(ctx).
		Model(&PromptListRow{}).
		Where("id = ?", id).
		Update("name", newName)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplacePrompts overwrites the full prompt set of the list with the given
// id. This is a full replace, not a merge; callers compute the merged record
// set first.
func (s *ListStore) ReplacePrompts(ctx context.Context, id string, records models.PromptRecords) error {
	result := s.store.DB.WithContext(ctx).
		Model(&PromptListRow{}).
		Where("id = ?", id).
		Update("prompts", records)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the list with the given id. Deletion is irreversible and
// not soft; the two-step confirmation lives in the session controller.
func (s *ListStore) Delete(ctx context.Context, id string) error {
	result := s.store.DB.WithContext(ctx).Delete(&PromptListRow{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
