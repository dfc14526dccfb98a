package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trakr/internal/model"
	"trakr/internal/repository"
	"trakr/internal/testutil"
)

const owner = "owner@trakr.io"

type repos struct {
	db       *gorm.DB
	projects *repository.ProjectRepository
	columns  *repository.ColumnRepository
	tickets  *repository.TicketRepository
	epics    *repository.EpicRepository
	roles    *repository.RoleRepository
	users    *repository.UserRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewDB(t)
	return repos{
		db:       db,
		projects: repository.NewProjectRepository(db),
		columns:  repository.NewColumnRepository(db),
		tickets:  repository.NewTicketRepository(db),
		epics:    repository.NewEpicRepository(db),
		roles:    repository.NewRoleRepository(db),
		users:    repository.NewUserRepository(db),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func seed(names ...string) []model.Column {
	cols := make([]model.Column, len(names))
	for i, n := range names {
		cols[i] = model.Column{Name: n}
	}
	return cols
}

func (r repos) createProject(t *testing.T, columns ...string) *model.Project {
	t.Helper()
	p, err := r.projects.Create(context.Background(), "Trakr", owner, seed(columns...))
	require.NoError(t, err)
	return p
}

func (r repos) orderedNames(t *testing.T, projectID int64) []string {
	t.Helper()
	cols, err := r.columns.ListOrdered(context.Background(), projectID)
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func (r repos) column(t *testing.T, projectID int64, name string) model.Column {
	t.Helper()
	var c model.Column
	require.NoError(t, r.db.Where("project_id = ? AND name = ?", projectID, name).First(&c).Error)
	return c
}

func (r repos) addTicket(t *testing.T, projectID int64, column string, sprint int) *model.Ticket {
	t.Helper()
	ticket := &model.Ticket{
		ProjectID: projectID,
		ColumnID:  r.column(t, projectID, column).ID,
		Sprint:    sprint,
		Name:      "ticket in " + column,
		Creator:   owner,
	}
	require.NoError(t, r.tickets.Create(context.Background(), ticket))
	return ticket
}

func (r repos) tailCount(t *testing.T, projectID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.db.Model(&model.Column{}).
		Where("project_id = ? AND next_col = -1", projectID).Count(&n).Error)
	return n
}

// failOn installs a SQLite trigger that aborts the statements it matches.
func (r repos) failOn(t *testing.T, name, event string) {
	t.Helper()
	require.NoError(t, r.db.Exec("CREATE TRIGGER "+name+" "+event+
		" BEGIN SELECT RAISE(ABORT, '"+name+"'); END").Error)
}
