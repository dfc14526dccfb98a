package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trakr/internal/model"
	"trakr/internal/repository"
)

// ColumnCache holds the ordered column list of each project between writes.
type ColumnCache interface {
	Get(ctx context.Context, projectID int64) ([]model.Column, bool)
	Version(ctx context.Context, projectID int64) int64
	Set(ctx context.Context, projectID, version int64, columns []model.Column)
	Invalidate(ctx context.Context, projectID int64)
}

type ColumnHandler struct {
	columns  repository.ColumnRepositoryInterface
	projects repository.ProjectRepositoryInterface
	cache    ColumnCache
	logger   *zap.Logger
}

func NewColumnHandler(columns repository.ColumnRepositoryInterface, projects repository.ProjectRepositoryInterface, cache ColumnCache, logger *zap.Logger) *ColumnHandler {
	return &ColumnHandler{
		columns:  columns,
		projects: projects,
		cache:    cache,
		logger:   logger,
	}
}

type ColumnInput struct {
	Name      string `json:"name" binding:"required"`
	Max       int    `json:"max" binding:"min=0"`
	ProjectID int64  `json:"project_id" binding:"required"`
	// Size is accepted for compatibility and ignored; the server keeps the count.
	Size int `json:"size"`
}

type CreateColumnsRequest struct {
	Columns []ColumnInput `json:"columns" binding:"required,min=1,dive"`
}

type AddColumnRequest struct {
	Name      string `json:"name" binding:"required"`
	Max       int    `json:"max" binding:"min=0"`
	ProjectID int64  `json:"project_id" binding:"required"`
}

type UpdateColumnRequest struct {
	ColumnID  int64  `json:"column_id" binding:"required"`
	ProjectID int64  `json:"project_id" binding:"required"`
	Name      string `json:"name"`
	Max       *int   `json:"max" binding:"omitempty,min=0"`
	Size      int    `json:"size"`
	NextCol   *int64 `json:"next_col"`
}

type DeleteColumnRequest struct {
	ColumnID  int64 `json:"column_id" binding:"required"`
	ProjectID int64 `json:"project_id" binding:"required"`
}

// CreateMany godoc
// @Summary      Append columns
// @Description  Appends the columns, in order, after the project's last column. Either all are created or none.
// @Tags         Columns
// @Accept       json
// @Produce      json
// @Param        body  body      CreateColumnsRequest  true  "Columns"
// @Success      201   {array}   model.Column
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /cols [post]
func (h *ColumnHandler) CreateMany(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req CreateColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	projectID := req.Columns[0].ProjectID
	columns := make([]model.Column, 0, len(req.Columns))
	for _, in := range req.Columns {
		if in.ProjectID != projectID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "All columns must belong to one project"})
			return
		}
		columns = append(columns, model.Column{Name: in.Name, Max: in.Max})
	}

	if _, err := h.projects.Authorize(c.Request.Context(), projectID, email, model.PermManageColumns); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	created, err := h.columns.AppendMany(c.Request.Context(), projectID, columns)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create columns")
		return
	}
	h.cache.Invalidate(c.Request.Context(), projectID)

	c.JSON(http.StatusCreated, created)
}

// AddSingle godoc
// @Summary      Append one column
// @Tags         Columns
// @Accept       json
// @Produce      json
// @Param        body  body      AddColumnRequest  true  "Column"
// @Success      201   {object}  model.Column
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /cols/add_single [post]
func (h *ColumnHandler) AddSingle(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageColumns); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	column := &model.Column{ProjectID: req.ProjectID, Name: req.Name, Max: req.Max}
	if err := h.columns.Append(c.Request.Context(), column); err != nil {
		respondError(c, h.logger, err, "Failed to create column")
		return
	}
	h.cache.Invalidate(c.Request.Context(), req.ProjectID)

	c.JSON(http.StatusCreated, column)
}

// GetOrdered godoc
// @Summary      List columns in display order
// @Tags         Columns
// @Produce      json
// @Param        project_id  path      int  true  "Project ID"
// @Success      200         {array}   model.Column
// @Failure      409         {object}  ErrorResponse  "stored chain is broken"
// @Security     BearerAuth
// @Router       /cols/{project_id} [get]
func (h *ColumnHandler) GetOrdered(c *gin.Context) {
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

	if columns, hit := h.cache.Get(c.Request.Context(), projectID); hit {
		c.JSON(http.StatusOK, columns)
		return
	}

	version := h.cache.Version(c.Request.Context(), projectID)
	columns, err := h.columns.ListOrdered(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load columns")
		return
	}
	h.cache.Set(c.Request.Context(), projectID, version, columns)

	c.JSON(http.StatusOK, columns)
}

// Update godoc
// @Summary      Rename, resize or move a column
// @Description  A next_col different from the stored one moves the column right before that column, or last for -1.
// @Tags         Columns
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateColumnRequest  true  "Column"
// @Success      200   {object}  model.Column
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /cols [put]
func (h *ColumnHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.projects.Authorize(ctx, req.ProjectID, email, model.PermManageColumns); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	update := repository.ColumnUpdate{Name: req.Name, Max: req.Max, NextCol: req.NextCol}
	column, err := h.columns.Update(ctx, req.ProjectID, req.ColumnID, update)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update column")
		return
	}
	h.cache.Invalidate(ctx, req.ProjectID)

	c.JSON(http.StatusOK, column)
}

// Delete godoc
// @Summary      Delete a column
// @Description  Tickets of the column move to "To Do".
// @Tags         Columns
// @Accept       json
// @Produce      json
// @Param        body  body      DeleteColumnRequest  true  "Column"
// @Success      200   {object}  map[string]string
// @Failure      409   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /cols [delete]
func (h *ColumnHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req DeleteColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermManageColumns); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	if err := h.columns.Delete(c.Request.Context(), req.ProjectID, req.ColumnID); err != nil {
		respondError(c, h.logger, err, "Failed to delete column")
		return
	}
	h.cache.Invalidate(c.Request.Context(), req.ProjectID)

	c.JSON(http.StatusOK, gin.H{"message": "Column deleted successfully"})
}
