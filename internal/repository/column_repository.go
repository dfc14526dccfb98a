package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"trakr/internal/chain"
	"trakr/internal/model"
)

type ColumnRepositoryInterface interface {
	ListByProject(ctx context.Context, projectID int64) ([]model.Column, error)
	ListOrdered(ctx context.Context, projectID int64) ([]model.Column, error)
	Append(ctx context.Context, column *model.Column) error
	AppendMany(ctx context.Context, projectID int64, columns []model.Column) ([]model.Column, error)
	Update(ctx context.Context, projectID, columnID int64, update ColumnUpdate) (*model.Column, error)
	Delete(ctx context.Context, projectID, columnID int64) error
	ReconcileSizes(ctx context.Context) (*SizeReconciliation, error)
}

var _ ColumnRepositoryInterface = (*ColumnRepository)(nil)

// ColumnUpdate carries the editable fields of a column. An empty Name or a
// nil Max or NextCol keeps the stored value. NextCol repositions the column
// right before the given column, or last for chain.Tail.
type ColumnUpdate struct {
	Name    string
	Max     *int
	NextCol *int64
}

type ColumnRepository struct {
	db *gorm.DB
}

func NewColumnRepository(db *gorm.DB) *ColumnRepository {
	return &ColumnRepository{db: db}
}

// ListByProject returns the project's columns in storage order.
func (r *ColumnRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Column, error) {
	var columns []model.Column
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&columns).Error
	return columns, err
}

// ListOrdered returns the project's columns in display order.
func (r *ColumnRepository) ListOrdered(ctx context.Context, projectID int64) ([]model.Column, error) {
	columns, err := r.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return chain.Order(columns)
}

// Append adds column as the new last column of its project.
func (r *ColumnRepository) Append(ctx context.Context, column *model.Column) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, column.ProjectID); err != nil {
			return err
		}
		if err := ensureColumnNameFree(tx, column.ProjectID, column.Name, 0); err != nil {
			return err
		}

		var tail model.Column
		err := tx.Where("project_id = ? AND next_col = ?", column.ProjectID, chain.Tail).First(&tail).Error
		hasTail := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		column.ID = 0
		column.Size = 0
		column.NextCol = chain.Tail
		if err := tx.Create(column).Error; err != nil {
			return err
		}

		if hasTail {
			if err := tx.Model(&model.Column{}).Where("id = ?", tail.ID).
				Update("next_col", column.ID).Error; err != nil {
				return err
			}
		}
		return validateChain(tx, column.ProjectID)
	})
}

// AppendMany appends columns in the given order after the project's current
// last column. Either every column is inserted or none is.
func (r *ColumnRepository) AppendMany(ctx context.Context, projectID int64, columns []model.Column) ([]model.Column, error) {
	var created []model.Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		var err error
		created, err = appendColumns(tx, projectID, columns)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update renames the column, changes its capacity and, when NextCol differs
// from the stored pointer, moves it. Tickets follow the column by id, so a
// rename needs no ticket rewrite.
func (r *ColumnRepository) Update(ctx context.Context, projectID, columnID int64, update ColumnUpdate) (*model.Column, error) {
	var column *model.Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		var err error
		column, err = findColumn(tx, projectID, columnID)
		if err != nil {
			return err
		}

		if update.Name != "" && update.Name != column.Name {
			if err := ensureColumnNameFree(tx, projectID, update.Name, column.ID); err != nil {
				return err
			}
			column.Name = update.Name
		}
		if update.Max != nil {
			column.Max = *update.Max
		}
		if err := tx.Model(&model.Column{}).Where("id = ?", column.ID).
			Updates(map[string]any{"name": column.Name, "max": column.Max}).Error; err != nil {
			return err
		}

		if update.NextCol != nil && *update.NextCol != column.NextCol {
			if err := moveColumn(tx, column, *update.NextCol); err != nil {
				return err
			}
			column.NextCol = *update.NextCol
		}
		return validateChain(tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return column, nil
}

// Delete moves the column's tickets to the fallback column, splices the column
// out of the chain and removes it.
func (r *ColumnRepository) Delete(ctx context.Context, projectID, columnID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		column, err := findColumn(tx, projectID, columnID)
		if err != nil {
			return err
		}
		if column.Name == model.FallbackColumnName {
			return fmt.Errorf("%w: %q cannot be deleted", ErrFallbackColumn, model.FallbackColumnName)
		}

		var tickets int64
		if err := tx.Model(&model.Ticket{}).Where("column_id = ?", column.ID).Count(&tickets).Error; err != nil {
			return err
		}
		if tickets > 0 {
			fallback, err := findColumnByName(tx, projectID, model.FallbackColumnName)
			if errors.Is(err, ErrColumnNotFound) {
				return fmt.Errorf("%w: project has no %q column", ErrFallbackColumn, model.FallbackColumnName)
			}
			if err != nil {
				return err
			}

			moved := tx.Model(&model.Ticket{}).Where("column_id = ?", column.ID).Update("column_id", fallback.ID)
			if moved.Error != nil {
				return moved.Error
			}
			if err := adjustColumnSize(tx, fallback.ID, int(moved.RowsAffected)); err != nil {
				return err
			}
		}

		if err := tx.Model(&model.Column{}).
			Where("project_id = ? AND next_col = ?", projectID, column.ID).
			Update("next_col", column.NextCol).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Column{}, column.ID).Error; err != nil {
			return err
		}
		return validateChain(tx, projectID)
	})
}

// SizeReconciliation reports which counters ReconcileSizes corrected.
type SizeReconciliation struct {
	Columns  int64
	Projects []int64
}

// ReconcileSizes recomputes every drifted size counter from ticket rows.
func (r *ColumnRepository) ReconcileSizes(ctx context.Context) (*SizeReconciliation, error) {
	result := &SizeReconciliation{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Column{}).
			Where("size <> (SELECT COUNT(*) FROM tickets WHERE tickets.column_id = columns.id)").
			Distinct().Order("project_id").Pluck("project_id", &result.Projects).Error; err != nil {
			return err
		}
		if len(result.Projects) == 0 {
			return nil
		}
		updated := tx.Exec(`UPDATE columns
			SET size = (SELECT COUNT(*) FROM tickets WHERE tickets.column_id = columns.id)
			WHERE size <> (SELECT COUNT(*) FROM tickets WHERE tickets.column_id = columns.id)`)
		result.Columns = updated.RowsAffected
		return updated.Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// appendColumns inserts columns back to front so every column can point at
// the one inserted before it, then hangs the batch off the current tail.
func appendColumns(tx *gorm.DB, projectID int64, columns []model.Column) ([]model.Column, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: %q appears twice", ErrNameConflict, c.Name)
		}
		seen[c.Name] = true
		if err := ensureColumnNameFree(tx, projectID, c.Name, 0); err != nil {
			return nil, err
		}
	}
	if len(columns) == 0 {
		return []model.Column{}, nil
	}

	var oldTail model.Column
	err := tx.Where("project_id = ? AND next_col = ?", projectID, chain.Tail).First(&oldTail).Error
	hasTail := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := make([]model.Column, len(columns))
	next := chain.Tail
	for i := len(columns) - 1; i >= 0; i-- {
		c := model.Column{
			ProjectID: projectID,
			Name:      columns[i].Name,
			Max:       columns[i].Max,
			NextCol:   next,
		}
		if err := tx.Create(&c).Error; err != nil {
			return nil, err
		}
		created[i] = c
		next = c.ID
	}

	if hasTail {
		if err := tx.Model(&model.Column{}).Where("id = ?", oldTail.ID).
			Update("next_col", created[0].ID).Error; err != nil {
			return nil, err
		}
	}
	if err := validateChain(tx, projectID); err != nil {
		return nil, err
	}
	return created, nil
}

// moveColumn re-links column so that it is displayed right before target.
func moveColumn(tx *gorm.DB, column *model.Column, target int64) error {
	if target == column.ID {
		return ErrInvalidMove
	}
	if target != chain.Tail {
		if _, err := findColumn(tx, column.ProjectID, target); err != nil {
			return err
		}
	}

	// Splice out.
	if err := tx.Model(&model.Column{}).
		Where("project_id = ? AND next_col = ?", column.ProjectID, column.ID).
		Update("next_col", column.NextCol).Error; err != nil {
		return err
	}
	// Whatever preceded target now precedes column.
	if err := tx.Model(&model.Column{}).
		Where("project_id = ? AND next_col = ? AND id <> ?", column.ProjectID, target, column.ID).
		Update("next_col", column.ID).Error; err != nil {
		return err
	}
	return tx.Model(&model.Column{}).Where("id = ?", column.ID).Update("next_col", target).Error
}

func validateChain(tx *gorm.DB, projectID int64) error {
	var columns []model.Column
	if err := tx.Where("project_id = ?", projectID).Find(&columns).Error; err != nil {
		return err
	}
	return chain.Validate(columns)
}

func ensureColumnNameFree(tx *gorm.DB, projectID int64, name string, exceptID int64) error {
	var count int64
	if err := tx.Model(&model.Column{}).
		Where("project_id = ? AND name = ? AND id <> ?", projectID, name, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: column %q", ErrNameConflict, name)
	}
	return nil
}

func findColumn(tx *gorm.DB, projectID, columnID int64) (*model.Column, error) {
	var column model.Column
	err := tx.Where("id = ? AND project_id = ?", columnID, projectID).First(&column).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrColumnNotFound
	}
	if err != nil {
		return nil, err
	}
	return &column, nil
}

func findColumnByName(tx *gorm.DB, projectID int64, name string) (*model.Column, error) {
	var column model.Column
	err := tx.Where("project_id = ? AND name = ?", projectID, name).First(&column).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrColumnNotFound
	}
	if err != nil {
		return nil, err
	}
	return &column, nil
}

func adjustColumnSize(tx *gorm.DB, columnID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	return tx.Model(&model.Column{}).Where("id = ?", columnID).
		Update("size", gorm.Expr("size + ?", delta)).Error
}
