package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"no-time-buddy/internal/config"
	"no-time-buddy/internal/repository"
)

var testNow = time.Date(2026, 10, 17, 15, 30, 0, 0, time.Local)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*MissionService, *gorm.DB) {
	t.Helper()

	db, err := repository.NewDB(config.Database{
		Path:   filepath.Join(t.TempDir(), "db", "missions.db"),
		Driver: config.DriverSQLite,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close(db) })

	svc := NewMissionService(repository.NewMissionRepository(db), WithClock(func() time.Time { return testNow }))
	return svc, db
}

func daysFromNow(n int) *time.Time {
	d := DateOnly(testNow, time.Local).AddDate(0, 0, n)
	return &d
}
