package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"trakr/internal/model"
)

type EpicRepositoryInterface interface {
	Create(ctx context.Context, epic *model.Epic) error
	ListByProject(ctx context.Context, projectID int64) ([]model.Epic, error)
	Update(ctx context.Context, epic *model.Epic) error
	Delete(ctx context.Context, projectID, epicID int64) error
}

var _ EpicRepositoryInterface = (*EpicRepository)(nil)

type EpicRepository struct {
	db *gorm.DB
}

func NewEpicRepository(db *gorm.DB) *EpicRepository {
	return &EpicRepository{db: db}
}

func (r *EpicRepository) Create(ctx context.Context, epic *model.Epic) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, epic.ProjectID); err != nil {
			return err
		}
		if err := ensureEpicNameFree(tx, epic.ProjectID, epic.Name, 0); err != nil {
			return err
		}
		epic.ID = 0
		return tx.Create(epic).Error
	})
}

func (r *EpicRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Epic, error) {
	var epics []model.Epic
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&epics).Error
	return epics, err
}

// Update changes the name and color of an existing epic.
func (r *EpicRepository) Update(ctx context.Context, epic *model.Epic) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEpic(tx, epic.ProjectID, epic.ID); err != nil {
			return err
		}
		if err := ensureEpicNameFree(tx, epic.ProjectID, epic.Name, epic.ID); err != nil {
			return err
		}
		return tx.Model(&model.Epic{}).Where("id = ?", epic.ID).
			Updates(map[string]any{"name": epic.Name, "color": epic.Color}).Error
	})
}

// Delete removes the epic and detaches its tickets.
func (r *EpicRepository) Delete(ctx context.Context, projectID, epicID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findEpic(tx, projectID, epicID); err != nil {
			return err
		}
		if err := tx.Model(&model.Ticket{}).Where("epic_id = ?", epicID).
			Update("epic_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Epic{}, epicID).Error
	})
}

func findEpic(tx *gorm.DB, projectID, epicID int64) (*model.Epic, error) {
	var epic model.Epic
	err := tx.Where("id = ? AND project_id = ?", epicID, projectID).First(&epic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEpicNotFound
	}
	if err != nil {
		return nil, err
	}
	return &epic, nil
}

func ensureEpicNameFree(tx *gorm.DB, projectID int64, name string, exceptID int64) error {
	var count int64
	if err := tx.Model(&model.Epic{}).
		Where("project_id = ? AND name = ? AND id <> ?", projectID, name, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: epic %q", ErrNameConflict, name)
	}
	return nil
}
