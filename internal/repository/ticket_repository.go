package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trakr/internal/model"
)

type TicketRepositoryInterface interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	GetByID(ctx context.Context, id int64) (*model.Ticket, error)
	ListByProject(ctx context.Context, projectID int64, sprint *int) ([]model.Ticket, error)
	Replace(ctx context.Context, ticket *model.Ticket) error
	Delete(ctx context.Context, projectID, ticketID int64) error
	Count(ctx context.Context, projectID int64) (int64, error)
}

var _ TicketRepositoryInterface = (*TicketRepository)(nil)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create stores ticket and counts it into its column.
func (r *TicketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, ticket.ProjectID); err != nil {
			return err
		}
		column, err := findColumn(tx, ticket.ProjectID, ticket.ColumnID)
		if err != nil {
			return err
		}
		if err := checkEpic(tx, ticket.ProjectID, ticket.EpicID); err != nil {
			return err
		}
		normalizeLinks(ticket)

		ticket.ID = 0
		if err := tx.Omit(clause.Associations).Create(ticket).Error; err != nil {
			return err
		}
		if err := adjustColumnSize(tx, column.ID, 1); err != nil {
			return err
		}
		column.Size++
		ticket.Column = *column
		return nil
	})
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).Preload("Column").First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListByProject returns the project's tickets, optionally limited to one sprint.
func (r *TicketRepository) ListByProject(ctx context.Context, projectID int64, sprint *int) ([]model.Ticket, error) {
	var tickets []model.Ticket
	query := r.db.WithContext(ctx).Preload("Column").Where("project_id = ?", projectID)
	if sprint != nil {
		query = query.Where("sprint = ?", *sprint)
	}
	err := query.Order("id").Find(&tickets).Error
	return tickets, err
}

// Replace overwrites every editable field of an existing ticket. Moving the
// ticket to another column updates both columns' sizes.
func (r *TicketRepository) Replace(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, ticket.ProjectID); err != nil {
			return err
		}
		var current model.Ticket
		err := tx.Where("id = ? AND project_id = ?", ticket.ID, ticket.ProjectID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		if err != nil {
			return err
		}

		column, err := findColumn(tx, ticket.ProjectID, ticket.ColumnID)
		if err != nil {
			return err
		}
		if err := checkEpic(tx, ticket.ProjectID, ticket.EpicID); err != nil {
			return err
		}
		normalizeLinks(ticket)

		ticket.Creator = current.Creator
		ticket.CreatedAt = current.CreatedAt
		if err := tx.Omit(clause.Associations).Save(ticket).Error; err != nil {
			return err
		}

		if current.ColumnID != ticket.ColumnID {
			if err := adjustColumnSize(tx, current.ColumnID, -1); err != nil {
				return err
			}
			if err := adjustColumnSize(tx, column.ID, 1); err != nil {
				return err
			}
			column.Size++
		}
		ticket.Column = *column
		return nil
	})
}

// Delete removes the ticket and uncounts it from its column.
func (r *TicketRepository) Delete(ctx context.Context, projectID, ticketID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		var ticket model.Ticket
		err := tx.Where("id = ? AND project_id = ?", ticketID, projectID).First(&ticket).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.Ticket{}, ticket.ID).Error; err != nil {
			return err
		}
		return adjustColumnSize(tx, ticket.ColumnID, -1)
	})
}

// Count counts the tickets of a project; projectID 0 counts all of them.
func (r *TicketRepository) Count(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Ticket{})
	if projectID != 0 {
		query = query.Where("project_id = ?", projectID)
	}
	err := query.Count(&count).Error
	return count, err
}

func checkEpic(tx *gorm.DB, projectID int64, epicID *int64) error {
	if epicID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&model.Epic{}).Where("id = ? AND project_id = ?", *epicID, projectID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrEpicNotFound
	}
	return nil
}

func normalizeLinks(ticket *model.Ticket) {
	if ticket.Blocks == nil {
		ticket.Blocks = datatypes.JSONSlice[int64]{}
	}
	if ticket.BlockedBy == nil {
		ticket.BlockedBy = datatypes.JSONSlice[int64]{}
	}
}
