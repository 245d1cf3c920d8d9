package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"no-time-buddy/internal/repository"
)

func TestCreateMission_AddsExactlyOneRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateMission(ctx, 123, MissionInput{Title: "first", Deadline: daysFromNow(5)})
	require.NoError(t, err)

	before, err := svc.ListActive(ctx)
	require.NoError(t, err)

	created, err := svc.CreateMission(ctx, 123, MissionInput{Title: "  second  ", Deadline: daysFromNow(1)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, created.ID)

	after, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	var found int
	for _, m := range after {
		if m.ID == created.ID {
			found++
			assert.Equal(t, "second", m.Title)
			assert.Equal(t, daysFromNow(1).Format(time.DateOnly), m.Deadline.In(time.Local).Format(time.DateOnly))
			assert.False(t, m.IsDeleted)
			assert.Equal(t, int64(123), m.UserID)
			assert.Equal(t, int64(123), m.CreateID)
			assert.Equal(t, int64(123), m.UpdateID)
			assert.WithinDuration(t, testNow, m.CreateTime, time.Second)
		}
	}
	assert.Equal(t, 1, found)
}

func TestCreateMission_DeadlineTodayAccepted(t *testing.T) {
	svc, _ := newTestService(t)

	// later today and earlier today both read as today
	for _, d := range []time.Time{testNow.Add(time.Hour), DateOnly(testNow, time.Local)} {
		d := d
		_, err := svc.CreateMission(context.Background(), 1, MissionInput{Title: "today", Deadline: &d})
		require.NoError(t, err)
	}
}

func TestCreateMission_ValidationDoesNotTouchStorage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input MissionInput
		want  error
	}{
		{"empty title", MissionInput{Title: "", Deadline: daysFromNow(1)}, ErrEmptyTitle},
		{"whitespace title", MissionInput{Title: " \t\n", Deadline: daysFromNow(1)}, ErrEmptyTitle},
		{"no deadline", MissionInput{Title: "x"}, ErrMissingDeadline},
		{"zero deadline", MissionInput{Title: "x", Deadline: &time.Time{}}, ErrMissingDeadline},
		{"yesterday", MissionInput{Title: "x", Deadline: daysFromNow(-1)}, ErrPastDeadline},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMission(ctx, 1, tc.input)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, ErrValidation)
			assert.NotErrorIs(t, err, ErrStorage)
		})
	}

	missions, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, missions)
}

func TestCancelMission(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	keep, err := svc.CreateMission(ctx, 1, MissionInput{Title: "keep", Deadline: daysFromNow(3)})
	require.NoError(t, err)
	drop, err := svc.CreateMission(ctx, 1, MissionInput{Title: "drop", Deadline: daysFromNow(2)})
	require.NoError(t, err)

	require.NoError(t, svc.CancelMission(ctx, 77, drop.ID))

	missions, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, keep.ID, missions[0].ID)

	stored, err := svc.GetMission(ctx, drop.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, int64(1), stored.CreateID)
	assert.Equal(t, int64(77), stored.UpdateID)
	assert.Equal(t, "drop", stored.Title)
}

func TestCancelMission_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.CreateMission(ctx, 1, MissionInput{Title: "twice", Deadline: daysFromNow(3)})
	require.NoError(t, err)

	require.NoError(t, svc.CancelMission(ctx, 2, m.ID))
	once, err := svc.GetMission(ctx, m.ID)
	require.NoError(t, err)

	require.NoError(t, svc.CancelMission(ctx, 3, m.ID))
	twice, err := svc.GetMission(ctx, m.ID)
	require.NoError(t, err)

	assert.Equal(t, once.IsDeleted, twice.IsDeleted)
	assert.Equal(t, once.UpdateID, twice.UpdateID)
	assert.True(t, once.UpdateTime.Equal(twice.UpdateTime))
}

func TestCancelMission_UnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.CreateMission(ctx, 1, MissionInput{Title: "stay", Deadline: daysFromNow(3)})
	require.NoError(t, err)

	require.NoError(t, svc.CancelMission(ctx, 1, m.ID+100))

	missions, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, m.ID, missions[0].ID)
}

func TestGetMission_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetMission(context.Background(), 404)
	require.ErrorIs(t, err, ErrMissionNotFound)
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repository.Close(db))

	_, err := svc.CreateMission(ctx, 1, MissionInput{Title: "x", Deadline: daysFromNow(1)})
	require.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = svc.ListActive(ctx)
	require.ErrorIs(t, err, ErrStorage)

	err = svc.CancelMission(ctx, 1, 1)
	require.ErrorIs(t, err, ErrStorage)
}
