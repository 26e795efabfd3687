package usecases

import (
	"context"
	"fmt"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// webhookSyncDaysBack is the lookback used when a push event triggers a
// sync. Events fire right after the meeting, one day is plenty.
const webhookSyncDaysBack = 1

// HandlePlatformEventCommand carries a normalized provider push event.
type HandlePlatformEventCommand struct {
	Platform platform.Platform
	Event    *providers.WebhookEvent
}

type HandlePlatformEventResult struct {
	Handled bool   `json:"handled"`
	Action  string `json:"action"`
}

// HandlePlatformEventUseCase routes webhook events to the sync engine and
// the recording pipeline.
type HandlePlatformEventUseCase struct {
	connRepo   platform.ConnectionRepository
	recordRepo platform.RecordRepository
	sync       *SyncMeetingsUseCase
	pipeline   *ProcessRecordingsUseCase
	logger     logger.Interface
}

func NewHandlePlatformEventUseCase(
	connRepo platform.ConnectionRepository,
	recordRepo platform.RecordRepository,
	sync *SyncMeetingsUseCase,
	pipeline *ProcessRecordingsUseCase,
	log logger.Interface,
) *HandlePlatformEventUseCase {
	return &HandlePlatformEventUseCase{
		connRepo:   connRepo,
		recordRepo: recordRepo,
		sync:       sync,
		pipeline:   pipeline,
		logger:     log,
	}
}

func (uc *HandlePlatformEventUseCase) Execute(ctx context.Context, cmd HandlePlatformEventCommand) (*HandlePlatformEventResult, error) {
	event := cmd.Event
	if event == nil {
		return nil, errors.NewBadRequestError("empty webhook event")
	}

	switch event.Type {
	case providers.EventEndpointValidation:
		return &HandlePlatformEventResult{Handled: true, Action: "validation"}, nil
	case providers.EventCalendarNotification:
		// Calendar pushes carry no account identity, only a channel ID.
		// The scheduled sync picks the change up instead.
		uc.logger.Debugw("calendar notification acknowledged without routing",
			"platform", cmd.Platform)
		return &HandlePlatformEventResult{Handled: true, Action: "acknowledged"}, nil
	}

	if event.AccountID == "" {
		return nil, errors.NewBadRequestError("webhook event carries no account ID")
	}

	conn, err := uc.connRepo.GetByPlatformAccount(ctx, cmd.Platform, event.AccountID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errors.NewNotFoundError(
			fmt.Sprintf("no active %s connection for account", cmd.Platform))
	}

	switch event.Type {
	case providers.EventMeetingEnded, providers.EventMeetingUpdated:
		action, err := uc.handleMeetingChanged(ctx, conn, event)
		if err != nil {
			return nil, err
		}
		return &HandlePlatformEventResult{Handled: true, Action: action}, nil

	case providers.EventRecordingCompleted, providers.EventTranscriptCompleted:
		action, err := uc.handleRecordingReady(ctx, conn, event)
		if err != nil {
			return nil, err
		}
		return &HandlePlatformEventResult{Handled: true, Action: action}, nil

	default:
		uc.logger.Debugw("ignoring unhandled webhook event",
			"platform", cmd.Platform, "type", event.Type)
		return &HandlePlatformEventResult{Handled: false, Action: "ignored"}, nil
	}
}

// handleMeetingChanged upserts the record for the meeting the event names.
// The upsert is the durable effect: the meeting may have started more than
// a day ago or be absent from the provider's list API, so a lookback sync
// alone can miss it. The follow-up sync only fills in meeting metadata.
func (uc *HandlePlatformEventUseCase) handleMeetingChanged(ctx context.Context, conn *platform.Connection, event *providers.WebhookEvent) (string, error) {
	if event.PlatformMeetingID == "" {
		// No meeting reference in the payload, fall back to a sync.
		if _, err := uc.sync.SyncConnection(ctx, conn, webhookSyncDaysBack); err != nil {
			return "", err
		}
		return "synced", nil
	}

	rec, err := uc.recordRepo.GetByConnectionAndPlatformMeeting(ctx, conn.ID, event.PlatformMeetingID)
	if err != nil {
		return "", err
	}

	action := "updated"
	switch {
	case rec == nil:
		rec, err = platform.NewMeetingRecord(conn.ID, event.PlatformMeetingID)
		if err != nil {
			return "", err
		}
		if err := uc.recordRepo.Create(ctx, rec); err != nil {
			return "", err
		}
		action = "created"
	case rec.Status == platform.RecordingStatusNoRecording || rec.Status == platform.RecordingStatusFailed:
		// The meeting changed, so a recording may exist now.
		if err := rec.Rearm(); err != nil {
			return "", err
		}
		if err := uc.recordRepo.Update(ctx, rec); err != nil {
			return "", err
		}
		action = "rearmed"
	}

	if _, err := uc.sync.SyncConnection(ctx, conn, webhookSyncDaysBack); err != nil {
		uc.logger.Warnw("post-event sync failed, record upsert already applied",
			"connection_id", conn.ID, "error", err)
	}
	return action, nil
}

// handleRecordingReady re-arms or creates the record for the meeting and,
// when the connection auto-fetches, runs the pipeline for it right away.
func (uc *HandlePlatformEventUseCase) handleRecordingReady(ctx context.Context, conn *platform.Connection, event *providers.WebhookEvent) (string, error) {
	if event.PlatformMeetingID == "" {
		// No meeting reference in the payload, fall back to a sync.
		if _, err := uc.sync.SyncConnection(ctx, conn, webhookSyncDaysBack); err != nil {
			return "", err
		}
		return "synced", nil
	}

	rec, err := uc.recordRepo.GetByConnectionAndPlatformMeeting(ctx, conn.ID, event.PlatformMeetingID)
	if err != nil {
		return "", err
	}

	if rec == nil {
		rec, err = platform.NewMeetingRecord(conn.ID, event.PlatformMeetingID)
		if err != nil {
			return "", err
		}
		if err := uc.recordRepo.Create(ctx, rec); err != nil {
			return "", err
		}
	} else if rec.Status == platform.RecordingStatusNoRecording || rec.Status == platform.RecordingStatusFailed {
		if err := rec.Rearm(); err != nil {
			return "", err
		}
		if err := uc.recordRepo.Update(ctx, rec); err != nil {
			return "", err
		}
	} else if rec.Status != platform.RecordingStatusPending {
		// Downloading or beyond, the pipeline already owns it.
		return "in_progress", nil
	}

	if !conn.AutoFetchRecordings {
		return "queued", nil
	}
	if err := uc.pipeline.FetchAndStore(ctx, rec); err != nil {
		uc.logger.Warnw("webhook-triggered fetch failed, next sync will retry",
			"record_id", rec.ID, "error", err)
		return "retry_scheduled", nil
	}
	return "fetched", nil
}
