package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trakr/internal/model"
	"trakr/internal/repository"
)

func TestProjectRepository_CreateSeedsColumnsAndRoles(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p := r.createProject(t, "To Do", "In Progress", "Done")
	assert.Equal(t, 1, p.CurrSprint)
	assert.Equal(t, []string{owner}, []string(p.Members))
	assert.Equal(t, []string{"To Do", "In Progress", "Done"}, r.orderedNames(t, p.ID))

	roles, err := r.roles.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, model.DefaultRoleName, roles[0].Name)
	assert.Empty(t, roles[0].Members)
	assert.False(t, roles[0].Allows(model.PermDeleteProject))
	assert.True(t, roles[0].Allows(model.PermEndSprint))
	assert.Equal(t, model.AdminRoleName, roles[1].Name)
	assert.Equal(t, []string{owner}, []string(roles[1].Members))
	assert.True(t, roles[1].Allows(model.PermDeleteProject))
}

func TestProjectRepository_AdvanceSprint(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := r.createProject(t, "To Do", "In Progress", "Done")

	for i := 0; i < 2; i++ {
		_, err := r.projects.AdvanceSprint(ctx, p.ID)
		require.NoError(t, err)
	}
	c := r.addTicket(t, p.ID, "To Do", 1)
	a := r.addTicket(t, p.ID, "Done", 3)
	b := r.addTicket(t, p.ID, "In Progress", 3)
	backlog := r.addTicket(t, p.ID, "To Do", model.BacklogSprint)

	result, err := r.projects.AdvanceSprint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.FromSprint)
	assert.Equal(t, 4, result.Project.CurrSprint)
	assert.EqualValues(t, 1, result.Purged)
	assert.EqualValues(t, 1, result.Carried)

	stored, err := r.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.CurrSprint)

	_, err = r.tickets.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)

	gotB, err := r.tickets.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, gotB.Sprint)
	assert.Equal(t, "In Progress", gotB.Column.Name)

	gotC, err := r.tickets.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotC.Sprint)

	gotBacklog, err := r.tickets.GetByID(ctx, backlog.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BacklogSprint, gotBacklog.Sprint)

	old := 3
	left, err := r.tickets.ListByProject(ctx, p.ID, &old)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestProjectRepository_AdvanceSprintResetsDone(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := r.createProject(t, "To Do", "Done")

	r.addTicket(t, p.ID, "Done", 1)
	r.addTicket(t, p.ID, "Done", 1)
	// A finished ticket from an older sprint keeps its row but no longer counts.
	r.addTicket(t, p.ID, "Done", model.BacklogSprint)
	assert.Equal(t, 3, r.column(t, p.ID, "Done").Size)

	_, err := r.projects.AdvanceSprint(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, r.column(t, p.ID, "Done").Size)
}

func TestProjectRepository_AdvanceSprintRollsBackOnFailure(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := r.createProject(t, "To Do", "Done")
	finished := r.addTicket(t, p.ID, "Done", 1)
	open := r.addTicket(t, p.ID, "To Do", 1)

	// The sprint bump and the purge succeed, carrying tickets over fails.
	r.failOn(t, "fail_carry", "BEFORE UPDATE OF sprint ON tickets")

	_, err := r.projects.AdvanceSprint(ctx, p.ID)
	require.Error(t, err)

	stored, err := r.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrSprint)

	gotFinished, err := r.tickets.GetByID(ctx, finished.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotFinished.Sprint)
	assert.Equal(t, "Done", gotFinished.Column.Name)

	gotOpen, err := r.tickets.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotOpen.Sprint)
	assert.Equal(t, 1, r.column(t, p.ID, "Done").Size)
}

func TestProjectRepository_AdvanceSprintWithoutDoneColumn(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := r.createProject(t, "To Do")
	ticket := r.addTicket(t, p.ID, "To Do", 1)

	result, err := r.projects.AdvanceSprint(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Purged)

	got, err := r.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Sprint)
}

func TestProjectRepository_AdvanceSprintUnknownProject(t *testing.T) {
	r := newRepos(t)

	_, err := r.projects.AdvanceSprint(context.Background(), 77)
	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
}

func TestProjectRepository_AdvanceSprintLeavesOtherProjects(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p1 := r.createProject(t, "To Do", "Done")
	p2 := r.createProject(t, "To Do", "Done")
	other := r.addTicket(t, p2.ID, "Done", 1)

	_, err := r.projects.AdvanceSprint(ctx, p1.ID)
	require.NoError(t, err)

	got, err := r.tickets.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Sprint)
	assert.Equal(t, 1, r.column(t, p2.ID, "Done").Size)
}

func TestProjectRepository_DeleteCascades(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	doomed := r.createProject(t, "To Do", "Done")
	kept := r.createProject(t, "To Do", "Done")

	r.addTicket(t, doomed.ID, "To Do", 1)
	r.addTicket(t, kept.ID, "To Do", 1)
	require.NoError(t, r.epics.Create(ctx, &model.Epic{ProjectID: doomed.ID, Name: "Auth", Color: "#ff0000"}))
	require.NoError(t, r.epics.Create(ctx, &model.Epic{ProjectID: kept.ID, Name: "Auth", Color: "#ff0000"}))

	require.NoError(t, r.users.Create(ctx, &model.User{Email: owner, Name: "Owner", HashedPassword: "x"}))
	require.NoError(t, r.users.SetOpenProject(ctx, owner, &doomed.ID))

	require.NoError(t, r.projects.Delete(ctx, doomed.ID))

	_, err := r.projects.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, repository.ErrProjectNotFound)

	for _, table := range []any{&model.Ticket{}, &model.Epic{}, &model.Column{}, &model.Role{}} {
		var gone, left int64
		require.NoError(t, r.db.Model(table).Where("project_id = ?", doomed.ID).Count(&gone).Error)
		require.NoError(t, r.db.Model(table).Where("project_id = ?", kept.ID).Count(&left).Error)
		assert.Zero(t, gone, "%T", table)
		assert.NotZero(t, left, "%T", table)
	}

	user, err := r.users.FindByEmail(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, user.OpenProject)
}

func TestProjectRepository_ListForMember(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.createProject(t)
	_, err := r.projects.Create(ctx, "Other", "someone@trakr.io", nil)
	require.NoError(t, err)
	shared, err := r.projects.Create(ctx, "Shared", "someone@trakr.io", nil)
	require.NoError(t, err)
	_, err = r.projects.AddMember(ctx, shared.ID, owner)
	require.NoError(t, err)

	projects, err := r.projects.ListForMember(ctx, owner)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, mine.ID, projects[0].ID)
	assert.Equal(t, shared.ID, projects[1].ID)
}

func TestProjectRepository_Members(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := r.createProject(t)
	const dev = "dev@trakr.io"

	updated, err := r.projects.AddMember(ctx, p.ID, dev)
	require.NoError(t, err)
	assert.Equal(t, []string{owner, dev}, []string(updated.Members))

	_, err = r.projects.AddMember(ctx, p.ID, dev)
	assert.ErrorIs(t, err, repository.ErrAlreadyMember)

	roles, err := r.roles.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	_, err = r.roles.AddMember(ctx, p.ID, roles[1].ID, dev)
	require.NoError(t, err)

	updated, err = r.projects.RemoveMember(ctx, p.ID, dev)
	require.NoError(t, err)
	assert.Equal(t, []string{owner}, []string(updated.Members))

	roles, err = r.roles.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	for _, role := range roles {
		assert.False(t, role.HasMember(dev), role.Name)
	}

	_, err = r.projects.RemoveMember(ctx, p.ID, dev)
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	_, err = r.projects.RemoveMember(ctx, p.ID, owner)
	assert.ErrorIs(t, err, repository.ErrLastMember)
}

func TestProjectRepository_Rename(t *testing.T) {
	r := newRepos(t)
	p := r.createProject(t)

	renamed, err := r.projects.Rename(context.Background(), p.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	_, err = r.projects.Rename(context.Background(), 999, "x")
	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
}

func TestProjectRepository_Authorize(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	p := r.createProject(t)
	const dev = "dev@trakr.io"
	_, err := r.projects.AddMember(ctx, p.ID, dev)
	require.NoError(t, err)

	_, err = r.projects.Authorize(ctx, p.ID, "stranger@trakr.io")
	assert.ErrorIs(t, err, repository.ErrNotMember)

	_, err = r.projects.Authorize(ctx, p.ID, owner, model.PermDeleteProject, model.PermManageColumns)
	assert.NoError(t, err)

	// dev holds no role and is judged by Default.
	_, err = r.projects.Authorize(ctx, p.ID, dev, model.PermEndSprint)
	assert.NoError(t, err)
	_, err = r.projects.Authorize(ctx, p.ID, dev, model.PermManageColumns)
	assert.ErrorIs(t, err, repository.ErrPermissionDenied)

	_, err = r.projects.Authorize(ctx, 999, owner)
	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
}

func TestProjectRepository_Count(t *testing.T) {
	r := newRepos(t)
	r.createProject(t)
	r.createProject(t)

	n, err := r.projects.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
