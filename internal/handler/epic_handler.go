package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trakr/internal/model"
	"trakr/internal/repository"
)

// CreateEpicRequest defines the expected request body for creating an epic
type CreateEpicRequest struct {
	ProjectID int64  `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Color     string `json:"color" binding:"required,hexcolor6"`
}

// UpdateEpicRequest defines the expected request body for updating an epic
type UpdateEpicRequest struct {
	EpicID    int64  `json:"epic_id" binding:"required"`
	ProjectID int64  `json:"project_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Color     string `json:"color" binding:"required,hexcolor6"`
}

type DeleteEpicRequest struct {
	EpicID    int64 `json:"epic_id" binding:"required"`
	ProjectID int64 `json:"project_id" binding:"required"`
}

// EpicHandler handles epic-related HTTP requests
type EpicHandler struct {
	epics    repository.EpicRepositoryInterface
	projects repository.ProjectRepositoryInterface
	logger   *zap.Logger
}

func NewEpicHandler(epics repository.EpicRepositoryInterface, projects repository.ProjectRepositoryInterface, logger *zap.Logger) *EpicHandler {
	return &EpicHandler{
		epics:    epics,
		projects: projects,
		logger:   logger,
	}
}

// Create godoc
// @Summary      Create an epic
// @Tags         Epics
// @Accept       json
// @Produce      json
// @Param        body  body      CreateEpicRequest  true  "Epic"
// @Success      201   {object}  model.Epic
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /epics [post]
func (h *EpicHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req CreateEpicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageEpics); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	epic := &model.Epic{
		ProjectID: req.ProjectID,
		Name:      strings.TrimSpace(req.Name),
		Color:     strings.ToLower(req.Color),
	}
	if err := h.epics.Create(c.Request.Context(), epic); err != nil {
		respondError(c, h.logger, err, "Failed to create epic")
		return
	}

	c.JSON(http.StatusCreated, epic)
}

// ListByProject godoc
// @Summary      List a project's epics
// @Tags         Epics
// @Produce      json
// @Param        project_id  path      int  true  "Project ID"
// @Success      200         {array}   model.Epic
// @Security     BearerAuth
// @Router       /epics/{project_id} [get]
func (h *EpicHandler) ListByProject(c *gin.Context) {
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

	epics, err := h.epics.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load epics")
		return
	}

	c.JSON(http.StatusOK, epics)
}

// Update godoc
// @Summary      Rename or recolor an epic
// @Tags         Epics
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateEpicRequest  true  "Epic"
// @Success      200   {object}  model.Epic
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /epics [put]
func (h *EpicHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req UpdateEpicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageEpics); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	epic := &model.Epic{
		ID:        req.EpicID,
		ProjectID: req.ProjectID,
		Name:      strings.TrimSpace(req.Name),
		Color:     strings.ToLower(req.Color),
	}
	if err := h.epics.Update(c.Request.Context(), epic); err != nil {
		respondError(c, h.logger, err, "Failed to update epic")
		return
	}

	c.JSON(http.StatusOK, epic)
}

// Delete godoc
// @Summary      Delete an epic
// @Description  Tickets of the epic are kept and lose their epic.
// @Tags         Epics
// @Accept       json
// @Produce      json
// @Param        body  body      DeleteEpicRequest  true  "Epic"
// @Success      200   {object}  map[string]string
// @Security     BearerAuth
// @Router       /epics [delete]
func (h *EpicHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req DeleteEpicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageEpics); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	if err := h.epics.Delete(c.Request.Context(), req.ProjectID, req.EpicID); err != nil {
		respondError(c, h.logger, err, "Failed to delete epic")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Epic deleted successfully"})
}
