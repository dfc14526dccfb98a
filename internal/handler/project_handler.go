package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trakr/internal/metrics"
	"trakr/internal/model"
	"trakr/internal/repository"
)

type ProjectHandler struct {
	projects repository.ProjectRepositoryInterface
	users    repository.UserRepositoryInterface
	cache    ColumnCache
	metrics  *metrics.Metrics
	seed     []model.Column
	logger   *zap.Logger
}

// NewProjectHandler returns a handler that seeds every new project with
// seedColumns, in order.
func NewProjectHandler(
	projects repository.ProjectRepositoryInterface,
	users repository.UserRepositoryInterface,
	cache ColumnCache,
	m *metrics.Metrics,
	seedColumns []model.Column,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		users:    users,
		cache:    cache,
		metrics:  m,
		seed:     seedColumns,
		logger:   logger,
	}
}

type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameProjectRequest struct {
	ProjectID int64  `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

type MemberRequest struct {
	ProjectID int64  `json:"project_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

type RolloverResponse struct {
	Project    model.Project `json:"project"`
	FromSprint int           `json:"from_sprint"`
	Purged     int64         `json:"purged"`
	Carried    int64         `json:"carried"`
}

// Create godoc
// @Summary      Create a project
// @Description  The caller becomes the only member and holds the Admin role. Default columns are seeded.
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        body  body      CreateProjectRequest  true  "Project"
// @Success      201   {object}  model.Project
// @Failure      400   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	columns := make([]model.Column, len(h.seed))
	copy(columns, h.seed)

	project, err := h.projects.Create(c.Request.Context(), strings.TrimSpace(req.Name), email, columns)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, project)
}

// List godoc
// @Summary      List the caller's projects
// @Tags         Projects
// @Produce      json
// @Success      200  {array}  model.Project
// @Security     BearerAuth
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListForMember(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load projects")
		return
	}

	c.JSON(http.StatusOK, projects)
}

// Get godoc
// @Summary      Get a project
// @Tags         Projects
// @Produce      json
// @Param        project_id  path      int  true  "Project ID"
// @Success      200         {object}  model.Project
// @Failure      401         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{project_id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	project, err := h.projects.Authorize(c.Request.Context(), projectID, email)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load project")
		return
	}

	c.JSON(http.StatusOK, project)
}

// Rename godoc
// @Summary      Rename a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        body  body      RenameProjectRequest  true  "Project"
// @Success      200   {object}  model.Project
// @Security     BearerAuth
// @Router       /projects [put]
func (h *ProjectHandler) Rename(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req RenameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermDeleteProject); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	project, err := h.projects.Rename(c.Request.Context(), req.ProjectID, strings.TrimSpace(req.Name))
	if err != nil {
		respondError(c, h.logger, err, "Failed to rename project")
		return
	}

	c.JSON(http.StatusOK, project)
}

// Delete godoc
// @Summary      Delete a project and everything it owns
// @Tags         Projects
// @Produce      json
// @Param        project_id  path      int  true  "Project ID"
// @Success      200         {object}  map[string]string
// @Security     BearerAuth
// @Router       /projects/{project_id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), projectID, email, model.PermDeleteProject); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	if err := h.projects.Delete(c.Request.Context(), projectID); err != nil {
		respondError(c, h.logger, err, "Failed to delete project")
		return
	}
	h.cache.Invalidate(c.Request.Context(), projectID)

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// Invite godoc
// @Summary      Invite a registered user
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        body  body      MemberRequest  true  "Invitee"
// @Success      200   {object}  model.Project
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /projects/invite [post]
func (h *ProjectHandler) Invite(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	invitee := strings.ToLower(req.Email)

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermInviteMembers); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), invitee)
	if err != nil {
		respondError(c, h.logger, err, "Failed to look up user")
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	project, err := h.projects.AddMember(c.Request.Context(), req.ProjectID, invitee)
	if err != nil {
		respondError(c, h.logger, err, "Failed to invite member")
		return
	}

	c.JSON(http.StatusOK, project)
}

// RemoveMember godoc
// @Summary      Remove a member
// @Description  Members may always remove themselves. Removing others needs "Remove members".
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        body  body      MemberRequest  true  "Member"
// @Success      200   {object}  model.Project
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /projects/remove_member [post]
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	target := strings.ToLower(req.Email)

	var perms []model.Permission
	if target != email {
		perms = append(perms, model.PermRemoveMembers)
	}
	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, perms...); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	project, err := h.projects.RemoveMember(c.Request.Context(), req.ProjectID, target)
	if err != nil {
		respondError(c, h.logger, err, "Failed to remove member")
		return
	}

	c.JSON(http.StatusOK, project)
}

// NextSprint godoc
// @Summary      Advance the project to its next sprint
// @Description  Deletes the current sprint's tickets in "Done", moves the rest of the sprint forward and empties the Done counter, atomically.
// @Tags         Projects
// @Produce      json
// @Param        project_id  path      int  true  "Project ID"
// @Success      200         {object}  RolloverResponse
// @Failure      401         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /projects/next_sprint/{project_id} [post]
func (h *ProjectHandler) NextSprint(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), projectID, email, model.PermEndSprint); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	result, err := h.projects.AdvanceSprint(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to advance sprint")
		return
	}
	h.cache.Invalidate(c.Request.Context(), projectID)
	h.metrics.RecordSprintAdvanced(result.Purged)

	h.logger.Info("Sprint advanced",
		zap.Int64("project_id", projectID),
		zap.Int("from_sprint", result.FromSprint),
		zap.Int64("purged", result.Purged),
		zap.Int64("carried", result.Carried),
	)

	c.JSON(http.StatusOK, RolloverResponse{
		Project:    result.Project,
		FromSprint: result.FromSprint,
		Purged:     result.Purged,
		Carried:    result.Carried,
	})
}
