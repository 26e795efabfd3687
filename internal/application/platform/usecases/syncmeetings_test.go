package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
)

func providerMeeting(id, title string, start time.Time, hasRecording bool) *providers.Meeting {
	end := start.Add(30 * time.Minute)
	return &providers.Meeting{
		PlatformMeetingID: id,
		Title:             title,
		HostEmail:         "rep@acme.com",
		StartTime:         &start,
		EndTime:           &end,
		DurationSeconds:   1800,
		JoinURL:           "https://zoom.us/j/" + id,
		HasRecording:      hasRecording,
	}
}

func TestSyncMeetings_CreatesPendingAndNoRecording(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	start := time.Now().UTC().Add(-2 * time.Hour)
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{
			providerMeeting("m-1", "Discovery call", start, true),
			providerMeeting("m-2", "Internal standup", start, false),
		}, nil
	}

	result, err := env.sync.SyncConnection(context.Background(), conn, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Recordings)

	withMedia, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	require.NotNil(t, withMedia)
	assert.Equal(t, platform.RecordingStatusPending, withMedia.Status)
	assert.Equal(t, "Discovery call", withMedia.Title)

	withoutMedia, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-2")
	require.NoError(t, err)
	require.NotNil(t, withoutMedia)
	assert.Equal(t, platform.RecordingStatusNoRecording, withoutMedia.Status)

	stored, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastRecordingSyncAt)
}

func TestSyncMeetings_AutoFetchDisabledParksRecords(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	conn.AutoFetchRecordings = false
	require.NoError(t, env.connRepo.Update(context.Background(), conn))

	start := time.Now().UTC().Add(-2 * time.Hour)
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{providerMeeting("m-1", "Demo", start, true)}, nil
	}

	_, err := env.sync.SyncConnection(context.Background(), conn, 7)
	require.NoError(t, err)

	rec, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusNoRecording, rec.Status)
}

func TestSyncMeetings_ResyncUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	start := time.Now().UTC().Add(-2 * time.Hour)
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{providerMeeting("m-1", "Demo", start, false)}, nil
	}
	_, err := env.sync.SyncConnection(context.Background(), conn, 7)
	require.NoError(t, err)

	// Second pass: title changed and a recording appeared.
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{providerMeeting("m-1", "Demo with Acme", start, true)}, nil
	}
	_, err = env.sync.SyncConnection(context.Background(), conn, 7)
	require.NoError(t, err)

	records, err := env.recordRepo.ListByConnection(context.Background(), conn.ID, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Demo with Acme", records[0].Title)
	assert.Equal(t, platform.RecordingStatusPending, records[0].Status)
}

func TestSyncMeetings_ResyncRearmsFailedRecord(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	rec, err := platform.NewMeetingRecord(conn.ID, "m-1")
	require.NoError(t, err)
	require.NoError(t, rec.MarkDownloading())
	require.NoError(t, rec.MarkFailed("download timed out"))
	require.NoError(t, env.recordRepo.Create(context.Background(), rec))

	start := time.Now().UTC().Add(-2 * time.Hour)
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{providerMeeting("m-1", "Demo", start, true)}, nil
	}

	_, err = env.sync.SyncConnection(context.Background(), conn, 7)
	require.NoError(t, err)

	stored, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusPending, stored.Status)
	assert.Empty(t, stored.ErrorMessage)
}

func TestSyncMeetings_CompletedRecordsStayCompleted(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	rec, err := platform.NewMeetingRecord(conn.ID, "m-1")
	require.NoError(t, err)
	rec.Status = platform.RecordingStatusCompleted
	require.NoError(t, env.recordRepo.Create(context.Background(), rec))

	start := time.Now().UTC().Add(-2 * time.Hour)
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{providerMeeting("m-1", "Demo", start, true)}, nil
	}

	_, err = env.sync.SyncConnection(context.Background(), conn, 7)
	require.NoError(t, err)

	stored, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusCompleted, stored.Status)
}

func TestSyncMeetings_ListFailureMarksConnectionError(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return nil, fmt.Errorf("rate limited")
	}

	_, err := env.sync.SyncConnection(context.Background(), conn, 7)
	require.Error(t, err)

	stored, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, platform.ConnectionStatusError, stored.Status)
	assert.Contains(t, stored.LastError, "rate limited")
}

func TestSyncMeetings_ExecuteEnforcesOwnership(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	_, err := env.sync.Execute(context.Background(), SyncMeetingsCommand{UserID: 2, ConnectionID: conn.ID})
	require.Error(t, err)
}
