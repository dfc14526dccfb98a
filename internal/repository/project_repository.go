package repository

import (
	"context"
	"errors"
	"slices"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trakr/internal/model"
)

type ProjectRepositoryInterface interface {
	Create(ctx context.Context, name, creator string, columns []model.Column) (*model.Project, error)
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	ListForMember(ctx context.Context, email string) ([]model.Project, error)
	Rename(ctx context.Context, id int64, name string) (*model.Project, error)
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, id int64, email string) (*model.Project, error)
	RemoveMember(ctx context.Context, id int64, email string) (*model.Project, error)
	Authorize(ctx context.Context, id int64, email string, perms ...model.Permission) (*model.Project, error)
	AdvanceSprint(ctx context.Context, id int64) (*RolloverResult, error)
	Count(ctx context.Context) (int64, error)
}

var _ ProjectRepositoryInterface = (*ProjectRepository)(nil)

// RolloverResult describes one sprint advance.
type RolloverResult struct {
	Project    model.Project
	FromSprint int
	Purged     int64
	Carried    int64
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create stores a new project owned by creator, seeds its column chain and
// gives it the Default and Admin roles.
func (r *ProjectRepository) Create(ctx context.Context, name, creator string, columns []model.Column) (*model.Project, error) {
	project := &model.Project{
		Name:       name,
		Members:    datatypes.JSONSlice[string]{creator},
		CurrSprint: 1,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if _, err := appendColumns(tx, project.ID, columns); err != nil {
			return err
		}
		roles := []model.Role{
			{
				ProjectID:   project.ID,
				Name:        model.DefaultRoleName,
				Permissions: model.DefaultPermissions(),
				Members:     datatypes.JSONSlice[string]{},
			},
			{
				ProjectID:   project.ID,
				Name:        model.AdminRoleName,
				Permissions: model.AllPermissions(),
				Members:     datatypes.JSONSlice[string]{creator},
			},
		}
		return tx.Create(&roles).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForMember returns every project whose member list contains email.
func (r *ProjectRepository) ListForMember(ctx context.Context, email string) ([]model.Project, error) {
	var projects []model.Project
	query, arg := jsonArrayContains(r.db, "projects.members", email)
	err := r.db.WithContext(ctx).Where(query, arg).Order("id").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) Rename(ctx context.Context, id int64, name string) (*model.Project, error) {
	var project *model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if project, err = lockProject(tx, id); err != nil {
			return err
		}
		project.Name = name
		return tx.Model(&model.Project{}).Where("id = ?", id).Update("name", name).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and everything it owns in one transaction:
// tickets, epics, columns, roles, then the project row itself.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, id); err != nil {
			return err
		}
		for _, owned := range []any{&model.Ticket{}, &model.Epic{}, &model.Column{}, &model.Role{}} {
			if err := tx.Where("project_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&model.User{}).Where("open_project = ?", id).
			Update("open_project", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, id).Error
	})
}

// AddMember appends email to the member list.
func (r *ProjectRepository) AddMember(ctx context.Context, id int64, email string) (*model.Project, error) {
	var project *model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if project, err = lockProject(tx, id); err != nil {
			return err
		}
		if project.HasMember(email) {
			return ErrAlreadyMember
		}
		project.Members = append(project.Members, email)
		return tx.Model(&model.Project{}).Where("id = ?", id).Update("members", project.Members).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// RemoveMember drops email from the project, from all of its roles, and
// clears the user's open project if it pointed here.
func (r *ProjectRepository) RemoveMember(ctx context.Context, id int64, email string) (*model.Project, error) {
	var project *model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if project, err = lockProject(tx, id); err != nil {
			return err
		}
		if !project.HasMember(email) {
			return ErrMemberNotFound
		}
		if len(project.Members) == 1 {
			return ErrLastMember
		}
		project.Members = slices.DeleteFunc(project.Members, func(m string) bool { return m == email })
		if err := tx.Model(&model.Project{}).Where("id = ?", id).Update("members", project.Members).Error; err != nil {
			return err
		}

		var roles []model.Role
		if err := tx.Where("project_id = ?", id).Find(&roles).Error; err != nil {
			return err
		}
		for _, role := range roles {
			if !role.HasMember(email) {
				continue
			}
			members := slices.DeleteFunc(slices.Clone(role.Members), func(m string) bool { return m == email })
			if err := tx.Model(&model.Role{}).Where("id = ?", role.ID).
				Update("members", datatypes.JSONSlice[string](members)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.User{}).Where("email = ? AND open_project = ?", email, id).
			Update("open_project", nil).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Authorize loads the project and checks that email is a member holding every
// permission in perms. A member listed in no role is judged by the Default role.
func (r *ProjectRepository) Authorize(ctx context.Context, id int64, email string, perms ...model.Permission) (*model.Project, error) {
	project, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(email) {
		return nil, ErrNotMember
	}
	if len(perms) == 0 {
		return project, nil
	}

	var roles []model.Role
	if err := r.db.WithContext(ctx).Where("project_id = ?", id).Find(&roles).Error; err != nil {
		return nil, err
	}
	held := make([]model.Role, 0, len(roles))
	for _, role := range roles {
		if role.HasMember(email) {
			held = append(held, role)
		}
	}
	if len(held) == 0 {
		for _, role := range roles {
			if role.Name == model.DefaultRoleName {
				held = append(held, role)
			}
		}
	}

	for _, perm := range perms {
		granted := slices.ContainsFunc(held, func(role model.Role) bool { return role.Allows(perm) })
		if !granted {
			return nil, ErrPermissionDenied
		}
	}
	return project, nil
}

// AdvanceSprint closes the project's current sprint: tickets of that sprint
// sitting in "Done" are deleted, the rest move to the next sprint, and the
// Done column's size is reset. All steps commit together or not at all.
func (r *ProjectRepository) AdvanceSprint(ctx context.Context, id int64) (*RolloverResult, error) {
	result := &RolloverResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, id)
		if err != nil {
			return err
		}
		oldSprint := project.CurrSprint
		newSprint := oldSprint + 1

		if err := tx.Model(&model.Project{}).Where("id = ?", id).
			Update("curr_sprint", newSprint).Error; err != nil {
			return err
		}

		done, err := findColumnByName(tx, id, model.DoneColumnName)
		if err != nil && !errors.Is(err, ErrColumnNotFound) {
			return err
		}
		if done != nil {
			purged := tx.Where("project_id = ? AND sprint = ? AND column_id = ?", id, oldSprint, done.ID).
				Delete(&model.Ticket{})
			if purged.Error != nil {
				return purged.Error
			}
			result.Purged = purged.RowsAffected
		}

		carried := tx.Model(&model.Ticket{}).Where("project_id = ? AND sprint = ?", id, oldSprint).
			Update("sprint", newSprint)
		if carried.Error != nil {
			return carried.Error
		}
		result.Carried = carried.RowsAffected

		if done != nil {
			if err := tx.Model(&model.Column{}).Where("id = ?", done.ID).Update("size", 0).Error; err != nil {
				return err
			}
		}

		project.CurrSprint = newSprint
		result.Project = *project
		result.FromSprint = oldSprint
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ProjectRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Project{}).Count(&count).Error
	return count, err
}

// lockProject loads the project row for update so concurrent edits of the
// same project serialize. SQLite ignores the locking clause.
func lockProject(tx *gorm.DB, id int64) (*model.Project, error) {
	var project model.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// jsonArrayContains builds a dialect specific condition matching rows whose
// JSON array column holds value.
func jsonArrayContains(db *gorm.DB, column, value string) (string, any) {
	if db.Dialector.Name() == "postgres" {
		return column + " @> ?::jsonb", datatypes.JSONSlice[string]{value}
	}
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value = ?)", value
}
