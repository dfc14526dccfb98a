package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"trakr/internal/metrics"
	"trakr/internal/model"
	"trakr/internal/repository"
)

type TicketHandler struct {
	tickets  repository.TicketRepositoryInterface
	projects repository.ProjectRepositoryInterface
	cache    ColumnCache
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewTicketHandler(
	tickets repository.TicketRepositoryInterface,
	projects repository.ProjectRepositoryInterface,
	cache ColumnCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *TicketHandler {
	return &TicketHandler{
		tickets:  tickets,
		projects: projects,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

// TicketRequest представляет запрос на создание или полную замену тикета
type TicketRequest struct {
	TicketID    int64   `json:"ticket_id"`
	ProjectID   int64   `json:"project_id" binding:"required"`
	ColumnID    int64   `json:"column_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	EpicID      *int64  `json:"epic_id"`
	Description string  `json:"description"`
	Blocks      []int64 `json:"blocks"`
	BlockedBy   []int64 `json:"blocked_by"`
	StoryPoints float64 `json:"story_points" binding:"min=0"`
	Assignee    string  `json:"assignee" binding:"omitempty,email"`
	Sprint      int     `json:"sprint" binding:"min=0"`
	PullRequest string  `json:"pull_request" binding:"omitempty,url"`
}

// DeleteTicketRequest представляет запрос на удаление тикета
type DeleteTicketRequest struct {
	TicketID  int64 `json:"ticket_id" binding:"required"`
	ProjectID int64 `json:"project_id" binding:"required"`
}

// TicketResponse представляет ответ с данными тикета; Column - текущее имя колонки
type TicketResponse struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	ColumnID    int64     `json:"column_id"`
	Column      string    `json:"column"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	EpicID      *int64    `json:"epic_id"`
	Description string    `json:"description"`
	Blocks      []int64   `json:"blocks"`
	BlockedBy   []int64   `json:"blocked_by"`
	StoryPoints float64   `json:"story_points"`
	Assignee    string    `json:"assignee"`
	Sprint      int       `json:"sprint"`
	PullRequest string    `json:"pull_request"`
	Creator     string    `json:"creator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTicketResponse(t *model.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		ColumnID:    t.ColumnID,
		Column:      t.Column.Name,
		Name:        t.Name,
		Type:        t.Type,
		Priority:    t.Priority,
		EpicID:      t.EpicID,
		Description: t.Description,
		Blocks:      nonNil(t.Blocks),
		BlockedBy:   nonNil(t.BlockedBy),
		StoryPoints: t.StoryPoints,
		Assignee:    t.Assignee,
		Sprint:      t.Sprint,
		PullRequest: t.PullRequest,
		Creator:     t.Creator,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func (req *TicketRequest) toModel() *model.Ticket {
	return &model.Ticket{
		ID:          req.TicketID,
		ProjectID:   req.ProjectID,
		ColumnID:    req.ColumnID,
		Name:        req.Name,
		Type:        req.Type,
		Priority:    req.Priority,
		EpicID:      req.EpicID,
		Description: req.Description,
		Blocks:      datatypes.JSONSlice[int64](req.Blocks),
		BlockedBy:   datatypes.JSONSlice[int64](req.BlockedBy),
		StoryPoints: req.StoryPoints,
		Assignee:    strings.ToLower(req.Assignee),
		Sprint:      req.Sprint,
		PullRequest: req.PullRequest,
	}
}

// checkAssignee rejects assignees outside the project.
func checkAssignee(c *gin.Context, project *model.Project, assignee string) bool {
	if assignee != "" && !project.HasMember(assignee) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
		return false
	}
	return true
}

// Create godoc
// @Summary      Create a ticket
// @Tags         Tickets
// @Accept       json
// @Produce      json
// @Param        body  body      TicketRequest  true  "Ticket"
// @Success      201   {object}  TicketResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermCreateTickets)
	if err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	ticket := req.toModel()
	ticket.Creator = email
	if !checkAssignee(c, project, ticket.Assignee) {
		return
	}

	if err := h.tickets.Create(c.Request.Context(), ticket); err != nil {
		respondError(c, h.logger, err, "Failed to create ticket")
		return
	}
	h.cache.Invalidate(c.Request.Context(), req.ProjectID)
	h.metrics.IncrementTicketCreated()

	c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

// ListByProject godoc
// @Summary      List a project's tickets
// @Tags         Tickets
// @Produce      json
// @Param        project_id  path      int  true   "Project ID"
// @Param        sprint      query     int  false  "Only this sprint (0 = backlog)"
// @Success      200         {array}   TicketResponse
// @Security     BearerAuth
// @Router       /tickets/{project_id} [get]
func (h *TicketHandler) ListByProject(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "project_id")
	if !ok {
		return
	}

	var sprint *int
	if raw, present := c.GetQuery("sprint"); present {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sprint"})
			return
		}
		sprint = &n
	}

	if _, err := h.projects.Authorize(c.Request.Context(), projectID, email); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	tickets, err := h.tickets.ListByProject(c.Request.Context(), projectID, sprint)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load tickets")
		return
	}

	response := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		response = append(response, toTicketResponse(&tickets[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a ticket
// @Tags         Tickets
// @Produce      json
// @Param        ticket_id  path      int  true  "Ticket ID"
// @Success      200        {object}  TicketResponse
// @Failure      404        {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /ticket/{ticket_id} [get]
func (h *TicketHandler) GetByID(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}
	ticketID, ok := paramID(c, "ticket_id")
	if !ok {
		return
	}

	ticket, err := h.tickets.GetByID(c.Request.Context(), ticketID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to load ticket")
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), ticket.ProjectID, email); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	c.JSON(http.StatusOK, toTicketResponse(ticket))
}

// Update godoc
// @Summary      Replace a ticket
// @Description  Every editable field is overwritten. Changing column_id moves the ticket.
// @Tags         Tickets
// @Accept       json
// @Produce      json
// @Param        body  body      TicketRequest  true  "Ticket"
// @Success      200   {object}  TicketResponse
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tickets [put]
func (h *TicketHandler) Update(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TicketID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermEditTickets)
	if err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	ticket := req.toModel()
	if !checkAssignee(c, project, ticket.Assignee) {
		return
	}

	if err := h.tickets.Replace(c.Request.Context(), ticket); err != nil {
		respondError(c, h.logger, err, "Failed to update ticket")
		return
	}
	h.cache.Invalidate(c.Request.Context(), req.ProjectID)

	c.JSON(http.StatusOK, toTicketResponse(ticket))
}

// Delete godoc
// @Summary      Delete a ticket
// @Tags         Tickets
// @Accept       json
// @Produce      json
// @Param        body  body      DeleteTicketRequest  true  "Ticket"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tickets [delete]
func (h *TicketHandler) Delete(c *gin.Context) {
	email, ok := currentEmail(c)
	if !ok {
		return
	}

	var req DeleteTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.projects.Authorize(c.Request.Context(), req.ProjectID, email, model.PermDeleteTickets); err != nil {
		respondError(c, h.logger, err, "Failed to check project access")
		return
	}

	if err := h.tickets.Delete(c.Request.Context(), req.ProjectID, req.TicketID); err != nil {
		respondError(c, h.logger, err, "Failed to delete ticket")
		return
	}
	h.cache.Invalidate(c.Request.Context(), req.ProjectID)

	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted successfully"})
}
