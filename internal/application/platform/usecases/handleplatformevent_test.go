package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
)

func newEventUseCase(env *testEnv) *HandlePlatformEventUseCase {
	return NewHandlePlatformEventUseCase(env.connRepo, env.recordRepo, env.sync, env.pipeline, testLogger())
}

func TestHandlePlatformEvent_OrphanAccountRejected(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	uc := newEventUseCase(env)

	_, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:      providers.EventMeetingEnded,
			Platform:  platform.PlatformZoom,
			AccountID: "unknown-account",
		},
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestHandlePlatformEvent_MeetingEndedTriggersSync(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	start := time.Now().UTC().Add(-time.Hour)
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return []*providers.Meeting{providerMeeting("m-1", "Demo", start, false)}, nil
	}

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:      providers.EventMeetingEnded,
			Platform:  platform.PlatformZoom,
			AccountID: conn.AccountID,
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, "synced", result.Action)

	rec, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestHandlePlatformEvent_MeetingEndedCreatesRecordBeyondSyncWindow(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	// The provider's list API no longer returns this meeting, the event is
	// the only evidence it existed.
	env.provider.listFn = func(time.Time) ([]*providers.Meeting, error) {
		return nil, nil
	}

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventMeetingEnded,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-last-month",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, "created", result.Action)

	rec, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-last-month")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, platform.RecordingStatusPending, rec.Status)
}

func TestHandlePlatformEvent_MeetingUpdatedRearmsNoRecording(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	rec, err := platform.NewMeetingRecord(conn.ID, "m-1")
	require.NoError(t, err)
	require.NoError(t, rec.MarkNoRecording())
	require.NoError(t, env.recordRepo.Create(context.Background(), rec))

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventMeetingUpdated,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "rearmed", result.Action)

	stored, err := env.recordRepo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusPending, stored.Status)
}

func TestHandlePlatformEvent_MeetingEndedKeepsDownloadedRecord(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	rec, err := platform.NewMeetingRecord(conn.ID, "m-1")
	require.NoError(t, err)
	require.NoError(t, rec.MarkDownloading())
	require.NoError(t, rec.MarkDownloaded("platform-recordings/zoom/1/m-1.m4a", "test"))
	require.NoError(t, env.recordRepo.Create(context.Background(), rec))

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventMeetingEnded,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "updated", result.Action)

	stored, err := env.recordRepo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusDownloaded, stored.Status)
}

func TestHandlePlatformEvent_RecordingCompletedFetchesImmediately(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	env.provider.recordingsFn = func(id string) (*providers.Recording, error) {
		return audioRecording(id), nil
	}

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventRecordingCompleted,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-1",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, "fetched", result.Action)

	rec, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, platform.RecordingStatusProcessing, rec.Status)
}

func TestHandlePlatformEvent_RecordingCompletedRearmsNoRecording(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	rec, err := platform.NewMeetingRecord(conn.ID, "m-1")
	require.NoError(t, err)
	require.NoError(t, rec.MarkNoRecording())
	require.NoError(t, env.recordRepo.Create(context.Background(), rec))

	env.provider.recordingsFn = func(id string) (*providers.Recording, error) {
		return audioRecording(id), nil
	}

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventRecordingCompleted,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "fetched", result.Action)

	stored, err := env.recordRepo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusProcessing, stored.Status)
}

func TestHandlePlatformEvent_AutoFetchDisabledQueuesOnly(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	conn.AutoFetchRecordings = false
	require.NoError(t, env.connRepo.Update(context.Background(), conn))
	uc := newEventUseCase(env)

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventRecordingCompleted,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "queued", result.Action)

	rec, err := env.recordRepo.GetByConnectionAndPlatformMeeting(context.Background(), conn.ID, "m-1")
	require.NoError(t, err)
	assert.Equal(t, platform.RecordingStatusPending, rec.Status)
}

func TestHandlePlatformEvent_ReplayWhilePipelineOwnsRecord(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	rec, err := platform.NewMeetingRecord(conn.ID, "m-1")
	require.NoError(t, err)
	require.NoError(t, rec.MarkDownloading())
	require.NoError(t, env.recordRepo.Create(context.Background(), rec))

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:              providers.EventRecordingCompleted,
			Platform:          platform.PlatformZoom,
			AccountID:         conn.AccountID,
			PlatformMeetingID: "m-1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", result.Action)
}

func TestHandlePlatformEvent_CalendarNotificationAcknowledged(t *testing.T) {
	env := newTestEnv(t, platform.PlatformGoogleMeet)
	uc := newEventUseCase(env)

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformGoogleMeet,
		Event: &providers.WebhookEvent{
			Type:     providers.EventCalendarNotification,
			Platform: platform.PlatformGoogleMeet,
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, "acknowledged", result.Action)
}

func TestHandlePlatformEvent_UnknownEventIgnored(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := newEventUseCase(env)

	result, err := uc.Execute(context.Background(), HandlePlatformEventCommand{
		Platform: platform.PlatformZoom,
		Event: &providers.WebhookEvent{
			Type:      "meeting.participant_joined",
			Platform:  platform.PlatformZoom,
			AccountID: conn.AccountID,
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Handled)
	assert.Equal(t, "ignored", result.Action)
}
