package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"trakr/internal/model"
)

type RoleRepositoryInterface interface {
	Create(ctx context.Context, role *model.Role) error
	ListByProject(ctx context.Context, projectID int64) ([]model.Role, error)
	Update(ctx context.Context, role *model.Role) (*model.Role, error)
	Delete(ctx context.Context, projectID, roleID int64) error
	AddMember(ctx context.Context, projectID, roleID int64, email string) (*model.Role, error)
	RemoveMember(ctx context.Context, projectID, roleID int64, email string) (*model.Role, error)
}

var _ RoleRepositoryInterface = (*RoleRepository)(nil)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create stores a new role. Its permission vector is padded or cut to the
// length of the global permission list.
func (r *RoleRepository) Create(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, role.ProjectID)
		if err != nil {
			return err
		}
		if err := ensureRoleNameFree(tx, role.ProjectID, role.Name, 0); err != nil {
			return err
		}
		for _, m := range role.Members {
			if !project.HasMember(m) {
				return fmt.Errorf("%w: %s", ErrMemberNotFound, m)
			}
		}
		role.ID = 0
		role.Permissions = fitPermissions(role.Permissions)
		if role.Members == nil {
			role.Members = datatypes.JSONSlice[string]{}
		}
		return tx.Create(role).Error
	})
}

func (r *RoleRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&roles).Error
	return roles, err
}

// Update renames the role and replaces its permission vector. The Default
// role keeps its name.
func (r *RoleRepository) Update(ctx context.Context, role *model.Role) (*model.Role, error) {
	var stored *model.Role
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, role.ProjectID); err != nil {
			return err
		}
		var err error
		if stored, err = findRole(tx, role.ProjectID, role.ID); err != nil {
			return err
		}
		if role.Name != "" && role.Name != stored.Name {
			if stored.Name == model.DefaultRoleName {
				return ErrDefaultRole
			}
			if err := ensureRoleNameFree(tx, role.ProjectID, role.Name, role.ID); err != nil {
				return err
			}
			stored.Name = role.Name
		}
		if role.Permissions != nil {
			stored.Permissions = fitPermissions(role.Permissions)
		}
		return tx.Model(&model.Role{}).Where("id = ?", stored.ID).
			Updates(map[string]any{"name": stored.Name, "permissions": stored.Permissions}).Error
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Delete removes a role and hands its members to the Default role.
func (r *RoleRepository) Delete(ctx context.Context, projectID, roleID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		role, err := findRole(tx, projectID, roleID)
		if err != nil {
			return err
		}
		if role.Name == model.DefaultRoleName {
			return ErrDefaultRole
		}
		def, err := findDefaultRole(tx, projectID)
		if err != nil {
			return err
		}
		if err := moveToRole(tx, def, role.Members...); err != nil {
			return err
		}
		return tx.Delete(&model.Role{}, role.ID).Error
	})
}

// AddMember puts a project member into the role.
func (r *RoleRepository) AddMember(ctx context.Context, projectID, roleID int64, email string) (*model.Role, error) {
	var role *model.Role
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if !project.HasMember(email) {
			return ErrMemberNotFound
		}
		if role, err = findRole(tx, projectID, roleID); err != nil {
			return err
		}
		if role.HasMember(email) {
			return ErrAlreadyMember
		}
		return moveToRole(tx, role, email)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// RemoveMember takes email out of the role. A member left in no role is
// placed in the Default role.
func (r *RoleRepository) RemoveMember(ctx context.Context, projectID, roleID int64, email string) (*model.Role, error) {
	var role *model.Role
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		var err error
		if role, err = findRole(tx, projectID, roleID); err != nil {
			return err
		}
		if !role.HasMember(email) {
			return ErrMemberNotFound
		}
		if role.Name == model.DefaultRoleName {
			return ErrDefaultRole
		}
		role.Members = slices.DeleteFunc(role.Members, func(m string) bool { return m == email })
		if err := tx.Model(&model.Role{}).Where("id = ?", role.ID).
			Update("members", role.Members).Error; err != nil {
			return err
		}

		query, arg := jsonArrayContains(tx, "members", email)
		var remaining int64
		if err := tx.Model(&model.Role{}).Where("project_id = ?", projectID).Where(query, arg).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		def, err := findDefaultRole(tx, projectID)
		if err != nil {
			return err
		}
		return moveToRole(tx, def, email)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// moveToRole appends the emails role does not already hold and saves it.
func moveToRole(tx *gorm.DB, role *model.Role, emails ...string) error {
	changed := false
	for _, e := range emails {
		if !role.HasMember(e) {
			role.Members = append(role.Members, e)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return tx.Model(&model.Role{}).Where("id = ?", role.ID).Update("members", role.Members).Error
}

func findRole(tx *gorm.DB, projectID, roleID int64) (*model.Role, error) {
	var role model.Role
	err := tx.Where("id = ? AND project_id = ?", roleID, projectID).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func findDefaultRole(tx *gorm.DB, projectID int64) (*model.Role, error) {
	var role model.Role
	err := tx.Where("project_id = ? AND name = ?", projectID, model.DefaultRoleName).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: project %d has no %s role", ErrRoleNotFound, projectID, model.DefaultRoleName)
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func ensureRoleNameFree(tx *gorm.DB, projectID int64, name string, exceptID int64) error {
	var count int64
	if err := tx.Model(&model.Role{}).
		Where("project_id = ? AND name = ? AND id <> ?", projectID, name, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: role %q", ErrNameConflict, name)
	}
	return nil
}

func fitPermissions(perms []bool) datatypes.JSONSlice[bool] {
	out := make(datatypes.JSONSlice[bool], len(model.PermissionNames))
	copy(out, perms)
	return out
}
