package usecases

import (
	"context"
	"fmt"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// defaultSyncDaysBack is the lookback window for user-triggered syncs.
// The scheduler passes its own windows.
const defaultSyncDaysBack = 7

// SyncMeetingsCommand triggers a sync for one of the user's connections.
type SyncMeetingsCommand struct {
	UserID       uint
	ConnectionID uint
	DaysBack     int
}

type SyncMeetingsResult struct {
	Sync *dto.SyncResultDTO `json:"sync"`
}

// SyncMeetingsUseCase reconciles provider meetings into meeting records.
// Syncs are idempotent: known records are updated in place, new ones are
// created pending or no_recording depending on whether media exists.
type SyncMeetingsUseCase struct {
	connRepo   platform.ConnectionRepository
	recordRepo platform.RecordRepository
	registry   *providers.Registry
	tokens     *TokenService
	logger     logger.Interface
}

func NewSyncMeetingsUseCase(
	connRepo platform.ConnectionRepository,
	recordRepo platform.RecordRepository,
	registry *providers.Registry,
	tokens *TokenService,
	log logger.Interface,
) *SyncMeetingsUseCase {
	return &SyncMeetingsUseCase{
		connRepo:   connRepo,
		recordRepo: recordRepo,
		registry:   registry,
		tokens:     tokens,
		logger:     log,
	}
}

// Execute runs a user-triggered sync after checking ownership.
func (uc *SyncMeetingsUseCase) Execute(ctx context.Context, cmd SyncMeetingsCommand) (*SyncMeetingsResult, error) {
	conn, err := ownedConnection(ctx, uc.connRepo, cmd.UserID, cmd.ConnectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive() {
		return nil, errors.NewConflictError(fmt.Sprintf("connection is %s, re-connect the platform first", conn.Status))
	}

	daysBack := cmd.DaysBack
	if daysBack <= 0 {
		daysBack = defaultSyncDaysBack
	}

	result, err := uc.SyncConnection(ctx, conn, daysBack)
	if err != nil {
		return nil, err
	}
	return &SyncMeetingsResult{Sync: result}, nil
}

// SyncConnection pulls the connection's recent meetings and reconciles
// them into records. The sync watermark is stamped even when individual
// meetings fail to persist.
func (uc *SyncMeetingsUseCase) SyncConnection(ctx context.Context, conn *platform.Connection, daysBack int) (*dto.SyncResultDTO, error) {
	provider := uc.registry.Get(conn.Platform)
	if provider == nil {
		return nil, fmt.Errorf("no provider configured for platform %s", conn.Platform)
	}

	accessToken, err := uc.tokens.AccessToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	since := biztime.NowUTC().AddDate(0, 0, -daysBack)
	meetings, err := provider.ListRecentMeetings(ctx, accessToken, since)
	if err != nil {
		conn.MarkError(fmt.Sprintf("meeting sync failed: %v", err))
		if updateErr := uc.connRepo.Update(ctx, conn); updateErr != nil {
			uc.logger.Errorw("failed to persist connection error state",
				"connection_id", conn.ID, "error", updateErr)
		}
		return nil, errors.NewUpstreamError(fmt.Sprintf("failed to list %s meetings", conn.Platform))
	}

	result := &dto.SyncResultDTO{}
	for _, m := range meetings {
		if err := uc.reconcileMeeting(ctx, conn, m); err != nil {
			uc.logger.Warnw("failed to reconcile meeting",
				"connection_id", conn.ID,
				"platform_meeting_id", m.PlatformMeetingID,
				"error", err)
			continue
		}
		result.Synced++
		if m.HasRecording {
			result.Recordings++
		}
	}

	conn.MarkSynced()
	if err := uc.connRepo.Update(ctx, conn); err != nil {
		uc.logger.Errorw("failed to stamp sync watermark",
			"connection_id", conn.ID, "error", err)
	}

	uc.logger.Infow("connection synced",
		"connection_id", conn.ID,
		"platform", conn.Platform,
		"days_back", daysBack,
		"synced", result.Synced,
		"with_recordings", result.Recordings)
	return result, nil
}

// SyncAllActive runs a sync over every active connection. Used by the
// scheduler; per-connection failures do not stop the pass.
func (uc *SyncMeetingsUseCase) SyncAllActive(ctx context.Context, daysBack int) (int, error) {
	conns, err := uc.connRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active connections: %w", err)
	}

	synced := 0
	for _, conn := range conns {
		if _, err := uc.SyncConnection(ctx, conn, daysBack); err != nil {
			uc.logger.Warnw("connection sync failed",
				"connection_id", conn.ID,
				"platform", conn.Platform,
				"error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// reconcileMeeting upserts one provider meeting into its record.
func (uc *SyncMeetingsUseCase) reconcileMeeting(ctx context.Context, conn *platform.Connection, m *providers.Meeting) error {
	existing, err := uc.recordRepo.GetByConnectionAndPlatformMeeting(ctx, conn.ID, m.PlatformMeetingID)
	if err != nil {
		return err
	}

	if existing == nil {
		rec, err := platform.NewMeetingRecord(conn.ID, m.PlatformMeetingID)
		if err != nil {
			return err
		}
		applyMeetingFields(rec, m)
		if !m.HasRecording || !conn.AutoFetchRecordings {
			if err := rec.MarkNoRecording(); err != nil {
				return err
			}
		}
		return uc.recordRepo.Create(ctx, rec)
	}

	applyMeetingFields(existing, m)

	// A recording can appear after the meeting was first seen, and
	// failed downloads get another chance on the next sync.
	rearmable := existing.Status == platform.RecordingStatusNoRecording ||
		existing.Status == platform.RecordingStatusFailed
	if m.HasRecording && conn.AutoFetchRecordings && rearmable {
		if err := existing.Rearm(); err != nil {
			return err
		}
	}
	return uc.recordRepo.Update(ctx, existing)
}

func applyMeetingFields(rec *platform.MeetingRecord, m *providers.Meeting) {
	rec.Title = m.Title
	rec.HostEmail = m.HostEmail
	rec.StartTime = m.StartTime
	rec.EndTime = m.EndTime
	rec.DurationSeconds = m.DurationSeconds
	rec.JoinURL = m.JoinURL
	if m.ParticipantCount > 0 {
		rec.ParticipantCount = m.ParticipantCount
	}
	if m.Raw != "" {
		rec.RawMeetingData = m.Raw
	}
	rec.UpdatedAt = biztime.NowUTC()
}
