package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trakr/internal/cache"
	"trakr/internal/handler"
	"trakr/internal/metrics"
	"trakr/internal/middleware"
	"trakr/internal/model"
	"trakr/internal/repository"
	"trakr/internal/testutil"
)

const (
	owner     = "owner@trakr.io"
	teammate  = "mate@trakr.io"
	outsider  = "stranger@trakr.io"
	emailHead = "X-Test-Email"
)

type env struct {
	db       *gorm.DB
	router   *gin.Engine
	projects *repository.ProjectRepository
	columns  *repository.ColumnRepository
	tickets  *repository.TicketRepository
	users    *repository.UserRepository
	metrics  *metrics.Metrics
}

// newEnv wires every handler over an in-memory database. Requests
// authenticate by naming their email in the X-Test-Email header.
func newEnv(t *testing.T, redisClient *redis.Client) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.RegisterValidators())

	db := testutil.NewDB(t)
	logger := zap.NewNop()
	e := &env{
		db:       db,
		projects: repository.NewProjectRepository(db),
		columns:  repository.NewColumnRepository(db),
		tickets:  repository.NewTicketRepository(db),
		users:    repository.NewUserRepository(db),
		metrics:  metrics.NewWithRegistry(prometheus.NewRegistry(), logger),
	}
	columnCache := cache.NewColumnCache(redisClient, 0, logger)
	epics := repository.NewEpicRepository(db)
	roles := repository.NewRoleRepository(db)
	seedColumns := []model.Column{{Name: "To Do"}, {Name: "In Progress", Max: 3}, {Name: "Done"}}

	projectHandler := handler.NewProjectHandler(e.projects, e.users, columnCache, e.metrics, seedColumns, logger)
	columnHandler := handler.NewColumnHandler(e.columns, e.projects, columnCache, logger)
	ticketHandler := handler.NewTicketHandler(e.tickets, e.projects, columnCache, e.metrics, logger)
	epicHandler := handler.NewEpicHandler(epics, e.projects, logger)
	roleHandler := handler.NewRoleHandler(roles, e.projects, logger)

	r := gin.New()
	r.GET("/permissions", roleHandler.Permissions)
	authorized := r.Group("/")
	authorized.Use(func(c *gin.Context) {
		if email := c.GetHeader(emailHead); email != "" {
			c.Set(middleware.EmailKey, email)
		}
		c.Next()
	})
	authorized.POST("/projects", projectHandler.Create)
	authorized.GET("/projects", projectHandler.List)
	authorized.GET("/projects/:project_id", projectHandler.Get)
	authorized.PUT("/projects", projectHandler.Rename)
	authorized.DELETE("/projects/:project_id", projectHandler.Delete)
	authorized.POST("/projects/invite", projectHandler.Invite)
	authorized.POST("/projects/remove_member", projectHandler.RemoveMember)
	authorized.POST("/projects/next_sprint/:project_id", projectHandler.NextSprint)
	authorized.POST("/cols", columnHandler.CreateMany)
	authorized.POST("/cols/add_single", columnHandler.AddSingle)
	authorized.GET("/cols/:project_id", columnHandler.GetOrdered)
	authorized.PUT("/cols", columnHandler.Update)
	authorized.DELETE("/cols", columnHandler.Delete)
	authorized.POST("/tickets", ticketHandler.Create)
	authorized.GET("/tickets/:project_id", ticketHandler.ListByProject)
	authorized.GET("/ticket/:ticket_id", ticketHandler.GetByID)
	authorized.PUT("/tickets", ticketHandler.Update)
	authorized.DELETE("/tickets", ticketHandler.Delete)
	authorized.POST("/epics", epicHandler.Create)
	authorized.GET("/epics/:project_id", epicHandler.ListByProject)
	authorized.PUT("/epics", epicHandler.Update)
	authorized.DELETE("/epics", epicHandler.Delete)
	authorized.POST("/roles", roleHandler.Create)
	authorized.GET("/roles/:project_id", roleHandler.ListByProject)
	authorized.PUT("/roles", roleHandler.Update)
	authorized.DELETE("/roles", roleHandler.Delete)
	authorized.POST("/roles/add_member", roleHandler.AddMember)
	authorized.POST("/roles/remove_member", roleHandler.RemoveMember)
	e.router = r

	for _, email := range []string{owner, teammate, outsider} {
		require.NoError(t, e.users.Create(context.Background(), &model.User{Email: email, Name: email, HashedPassword: "x"}))
	}
	return e
}

func (e *env) do(t *testing.T, method, path, email string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set(emailHead, email)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func errorOf(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, resp).Error
}

// createProject creates a project owned by owner through the API.
func (e *env) createProject(t *testing.T) model.Project {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/projects", owner, gin.H{"name": "Trakr"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[model.Project](t, resp)
}

// join adds email to the project without going through the API.
func (e *env) join(t *testing.T, projectID int64, email string) {
	t.Helper()
	_, err := e.projects.AddMember(context.Background(), projectID, email)
	require.NoError(t, err)
}

func (e *env) orderedColumns(t *testing.T, projectID int64) []model.Column {
	t.Helper()
	resp := e.do(t, http.MethodGet, "/cols/"+itoa(projectID), owner, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[[]model.Column](t, resp)
}

func (e *env) columnID(t *testing.T, projectID int64, name string) int64 {
	t.Helper()
	for _, c := range e.orderedColumns(t, projectID) {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("column %q not found", name)
	return 0
}

func names(columns []model.Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Name
	}
	return out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
