package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
)

func TestMeetingRepository_GetByJoinURL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()

	m, err := meeting.NewMeeting(1, "Discovery call", meeting.StatusScheduled)
	require.NoError(t, err)
	m.JoinURL = "https://zoom.us/j/111"
	require.NoError(t, repo.Create(ctx, m))

	got, err := repo.GetByJoinURL(ctx, 1, "https://zoom.us/j/111")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.ID, got.ID)

	// Join URL matches are scoped to the owning rep.
	other, err := repo.GetByJoinURL(ctx, 2, "https://zoom.us/j/111")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMeetingRepository_ListInWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMeetingRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	mk := func(title string, start time.Time) {
		m, err := meeting.NewMeeting(1, title, meeting.StatusScheduled)
		require.NoError(t, err)
		m.ScheduledStart = &start
		require.NoError(t, repo.Create(ctx, m))
	}
	mk("inside", base.Add(10*time.Minute))
	mk("edge", base.Add(30*time.Minute))
	mk("outside", base.Add(2*time.Hour))

	got, err := repo.ListInWindow(ctx, 1, base.Add(-30*time.Minute), base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0].Title)
	assert.Equal(t, "edge", got[1].Title)
}

func TestMeetingRecordingRepository_OnePerMeeting(t *testing.T) {
	db := setupTestDB(t)
	meetingRepo := NewMeetingRepository(db)
	recRepo := NewMeetingRecordingRepository(db)
	ctx := context.Background()

	m, err := meeting.NewMeeting(1, "Demo", meeting.StatusCompleted)
	require.NoError(t, err)
	require.NoError(t, meetingRepo.Create(ctx, m))

	first, err := meeting.NewRecording(m.ID, "path/a.m4a", "bucket", platform.PlatformZoom)
	require.NoError(t, err)
	require.NoError(t, recRepo.Create(ctx, first))

	dup, err := meeting.NewRecording(m.ID, "path/b.m4a", "bucket", platform.PlatformZoom)
	require.NoError(t, err)
	err = recRepo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))

	got, err := recRepo.GetByMeetingID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "path/a.m4a", got.StoragePath)
}
