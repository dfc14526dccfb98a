package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"trakr/internal/model"
	"trakr/internal/repository"
)

type RoleHandler struct {
	roles    repository.RoleRepositoryInterface
	projects repository.ProjectRepositoryInterface
	logger   *zap.Logger
}

func NewRoleHandler(roles repository.RoleRepositoryInterface, projects repository.ProjectRepositoryInterface, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		roles:    roles,
		projects: projects,
		logger:   logger,
	}
}

type CreateRoleRequest struct {
	ProjectID   int64    `json:"project_id" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Permissions []bool   `json:"permissions"`
	Members     []string `json:"members" binding:"dive,email"`
}

type UpdateRoleRequest struct {
	RoleID      int64  `json:"role_id" binding:"required"`
	ProjectID   int64  `json:"project_id" binding:"required"`
	Name        string `json:"name"`
	Permissions []bool `json:"permissions"`
}

type DeleteRoleRequest struct {
	RoleID    int64 `json:"role_id" binding:"required"`
	ProjectID int64 `json:"project_id" binding:"required"`
}

type RoleMemberRequest struct {
	RoleID    int64  `json:"role_id" binding:"required"`
	ProjectID int64  `json:"project_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

// Permissions godoc
// @Summary      Global permission names
// @Description  Index i names the meaning of permissions[i] in every role.
// @Tags         Roles
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /permissions [get]
func (h *RoleHandler) Permissions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"permissions": model.PermissionNames})
}

// Create godoc
// @Summary      Create a role
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        body  body      CreateRoleRequest  true  "Role"
// @Success      201   {object}  model.Role
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageRoles); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	members := make(datatypes.JSONSlice[string], 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, strings.ToLower(m))
	}
	role := &model.Role{
		ProjectID:   req.ProjectID,
		Name:        strings.TrimSpace(req.Name),
		Permissions: req.Permissions,
		Members:     members,
	}
	if err := h.roles.Create(c.Request.Context(), role); err != nil {
		respondError(c, h.logger, err, "Failed to create role")
		return
	}

	c.JSON(http.StatusCreated, role)
}

// ListByProject godoc
// @Summary      List a project's roles
// @Tags         Roles
// @Produce      json
// @Param        project_id  path      int  true  "Project ID"
// @Success      200         {array}   model.Role
// @Security     BearerAuth
// @Router       /roles/{project_id} [get]
func (h *RoleHandler) ListByProject(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), projectID, email); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	roles, err := h.roles.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load roles")
		return
	}

	c.JSON(http.StatusOK, roles)
}

// Update godoc
// @Summary      Rename a role or replace its permissions
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateRoleRequest  true  "Role"
// @Success      200   {object}  model.Role
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /roles [put]
func (h *RoleHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageRoles); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	role, err := h.roles.Update(c.Request.Context(), &model.Role{
		ID:          req.RoleID,
		ProjectID:   req.ProjectID,
		Name:        strings.TrimSpace(req.Name),
		Permissions: req.Permissions,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to update role")
		return
	}

	c.JSON(http.StatusOK, role)
}

// Delete godoc
// @Summary      Delete a role
// @Description  Members of the role move to Default. Default itself cannot be deleted.
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        body  body      DeleteRoleRequest  true  "Role"
// @Success      200   {object}  map[string]string
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /roles [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req DeleteRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageRoles); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	if err := h.roles.Delete(c.Request.Context(), req.ProjectID, req.RoleID); err != nil {
		respondError(c, h.logger, err, "Failed to delete role")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role deleted successfully"})
}

// AddMember godoc
// @Summary      Add a project member to a role
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        body  body      RoleMemberRequest  true  "Member"
// @Success      200   {object}  model.Role
// @Security     BearerAuth
// @Router       /roles/add_member [post]
func (h *RoleHandler) AddMember(c *gin.Context) {
	h.changeMember(c, h.roles.AddMember, "Failed to add role member")
}

// RemoveMember godoc
// @Summary      Remove a member from a role
// @Description  A member left without any role falls back to Default.
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        body  body      RoleMemberRequest  true  "Member"
// @Success      200   {object}  model.Role
// @Security     BearerAuth
// @Router       /roles/remove_member [post]
func (h *RoleHandler) RemoveMember(c *gin.Context) {
	h.changeMember(c, h.roles.RemoveMember, "Failed to remove role member")
}

type roleMemberFunc func(ctx context.Context, projectID, roleID int64, email string) (*model.Role, error)

func (h *RoleHandler) changeMember(c *gin.Context, apply roleMemberFunc, failure string) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req RoleMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageRoles); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	role, err := apply(c.Request.Context(), req.ProjectID, req.RoleID, strings.ToLower(req.Email))
	if err != nil {
		respondError(c, h.logger, err, failure)
		return
	}

	c.JSON(http.StatusOK, role)
}
