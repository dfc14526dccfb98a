package database

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trakr/internal/model"
)

type recordedQuery struct {
	operation string
	table     string
	err       error
}

type fakeRecorder struct {
	mu      sync.Mutex
	queries []recordedQuery
	stats   []sql.DBStats
}

func (f *fakeRecorder) RecordDBQuery(operation, table string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, recordedQuery{operation, table, err})
}

func (f *fakeRecorder) UpdateDBStats(stats sql.DBStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = append(f.stats, stats)
}

func (f *fakeRecorder) operations() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, q := range f.queries {
		out[q.operation] = q.table
	}
	return out
}

func openMemory(t *testing.T) Config {
	t.Helper()
	return Config{Driver: DriverSQLite, DSN: "file::memory:"}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrate_SQLiteCreatesEveryTable(t *testing.T) {
	cfg := openMemory(t)
	db, err := New(cfg)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db, cfg, zap.NewNop()))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.NoError(t, Ping(context.Background(), db))
}

func TestRegisterMetricsCallbacks(t *testing.T) {
	db, err := New(openMemory(t))
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	rec := &fakeRecorder{}
	require.NoError(t, RegisterMetricsCallbacks(db, rec))

	project := model.Project{Name: "p", Members: []string{"a@x.io"}}
	require.NoError(t, db.Create(&project).Error)
	require.NoError(t, db.First(&model.Project{}, project.ID).Error)
	require.NoError(t, db.Model(&model.Project{}).Where("id = ?", project.ID).Update("name", "q").Error)
	require.NoError(t, db.Delete(&model.Project{}, project.ID).Error)

	ops := rec.operations()
	for _, op := range []string{"insert", "select", "update", "delete"} {
		assert.Equal(t, "projects", ops[op], op)
	}
}

func TestStartDBStatsCollector(t *testing.T) {
	db, err := New(openMemory(t))
	require.NoError(t, err)
	defer Close(db)

	rec := &fakeRecorder{}
	done := StartDBStatsCollector(db, rec, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.stats) > 0
	}, time.Second, 5*time.Millisecond)
	close(done)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/trakr?sslmode=disable",
		migrateURL("postgres://u:p@db:5432/trakr?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/trakr", migrateURL("postgresql://u@db/trakr"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}
