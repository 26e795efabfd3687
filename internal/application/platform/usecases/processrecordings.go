package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/storage"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// ProcessRecordingsCommand drains a batch of pending records through the
// retrieval pipeline.
type ProcessRecordingsCommand struct {
	Limit int
}

type ProcessRecordingsResult struct {
	Results []*dto.ProcessResultDTO `json:"results"`
}

// ProcessRecordingsUseCase runs the recording pipeline: claim a pending
// record, fetch the provider's recording, land the media in blob storage
// and link it to the rep's business meeting. Each record is processed in
// isolation so one failure never stalls the batch.
type ProcessRecordingsUseCase struct {
	connRepo   platform.ConnectionRepository
	recordRepo platform.RecordRepository
	registry   *providers.Registry
	tokens     *TokenService
	store      storage.RecordingStore
	linker     *MeetingLinker
	logger     logger.Interface
}

func NewProcessRecordingsUseCase(
	connRepo platform.ConnectionRepository,
	recordRepo platform.RecordRepository,
	registry *providers.Registry,
	tokens *TokenService,
	store storage.RecordingStore,
	linker *MeetingLinker,
	log logger.Interface,
) *ProcessRecordingsUseCase {
	return &ProcessRecordingsUseCase{
		connRepo:   connRepo,
		recordRepo: recordRepo,
		registry:   registry,
		tokens:     tokens,
		store:      store,
		linker:     linker,
		logger:     log,
	}
}

func (uc *ProcessRecordingsUseCase) Execute(ctx context.Context, cmd ProcessRecordingsCommand) (*ProcessRecordingsResult, error) {
	records, err := uc.recordRepo.ListPending(ctx, cmd.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}

	results := make([]*dto.ProcessResultDTO, 0, len(records))
	for _, rec := range records {
		res := &dto.ProcessResultDTO{RecordID: rec.ID}
		if err := uc.FetchAndStore(ctx, rec); err != nil {
			res.Error = err.Error()
			uc.logger.Warnw("recording pipeline failed for record",
				"record_id", rec.ID,
				"platform_meeting_id", rec.PlatformMeetingID,
				"error", err)
		} else {
			res.Success = true
		}
		res.Status = string(rec.Status)
		results = append(results, res)
	}
	return &ProcessRecordingsResult{Results: results}, nil
}

// ProcessPending drains up to limit pending records and reports how many
// succeeded. Scheduler entry point.
func (uc *ProcessRecordingsUseCase) ProcessPending(ctx context.Context, limit int) (int, error) {
	result, err := uc.Execute(ctx, ProcessRecordingsCommand{Limit: limit})
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, r := range result.Results {
		if r.Success {
			processed++
		}
	}
	return processed, nil
}

// FetchAndStore runs one record through the pipeline. The record is
// claimed by persisting the downloading state first, so a concurrent pass
// never picks it up again.
func (uc *ProcessRecordingsUseCase) FetchAndStore(ctx context.Context, rec *platform.MeetingRecord) error {
	conn, err := uc.connRepo.GetByID(ctx, rec.ConnectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return fmt.Errorf("connection %d no longer exists", rec.ConnectionID)
	}

	provider := uc.registry.Get(conn.Platform)
	if provider == nil {
		return fmt.Errorf("no provider configured for platform %s", conn.Platform)
	}

	if err := rec.MarkDownloading(); err != nil {
		return err
	}
	if err := uc.recordRepo.Update(ctx, rec); err != nil {
		return err
	}

	if err := uc.fetchAndStore(ctx, provider, conn, rec); err != nil {
		uc.failRecord(ctx, rec, err)
		return err
	}
	return nil
}

func (uc *ProcessRecordingsUseCase) fetchAndStore(ctx context.Context, provider providers.Provider, conn *platform.Connection, rec *platform.MeetingRecord) error {
	accessToken, err := uc.tokens.AccessToken(ctx, conn)
	if err != nil {
		return err
	}

	recording, err := provider.MeetingRecordings(ctx, accessToken, rec.PlatformMeetingID)
	if err != nil {
		return fmt.Errorf("failed to fetch recording metadata: %w", err)
	}
	if recording == nil || len(recording.Files) == 0 {
		if err := rec.MarkNoRecording(); err != nil {
			return err
		}
		return uc.recordRepo.Update(ctx, rec)
	}

	file := pickRecordingFile(recording.Files)

	rec.PlatformRecordingID = recording.PlatformRecordingID
	rec.RecordingURL = file.DownloadURL
	rec.RecordingPassword = recording.Password
	rec.FileType = file.FileType
	rec.FileSizeBytes = file.SizeBytes
	if recording.Raw != "" {
		rec.RawRecordingData = recording.Raw
	}
	// Persist what we know about the file before the download so a crash
	// mid-transfer leaves a diagnosable row.
	if err := uc.recordRepo.Update(ctx, rec); err != nil {
		return err
	}

	data, err := provider.DownloadRecording(ctx, accessToken, file)
	if err != nil {
		return fmt.Errorf("failed to download recording: %w", err)
	}

	key := storage.RecordingKey(conn.Platform, conn.UserID, biztime.NowUTC().Unix(), rec.PlatformMeetingID, file.Extension)
	if _, err := uc.store.Upload(ctx, key, storage.ContentTypeForExtension(file.Extension), data); err != nil {
		return fmt.Errorf("failed to upload recording: %w", err)
	}

	if err := rec.MarkDownloaded(key, uc.store.Bucket()); err != nil {
		return err
	}
	if err := uc.recordRepo.Update(ctx, rec); err != nil {
		return err
	}

	meetingID, err := uc.linker.Link(ctx, conn, rec)
	if err != nil {
		return fmt.Errorf("failed to link recording to meeting: %w", err)
	}

	if err := rec.MarkProcessing(); err != nil {
		return err
	}
	if err := uc.recordRepo.Update(ctx, rec); err != nil {
		return err
	}

	uc.logger.Infow("recording stored and linked",
		"record_id", rec.ID,
		"connection_id", conn.ID,
		"meeting_id", meetingID,
		"storage_path", key,
		"bytes", len(data))
	return nil
}

// failRecord parks the record in failed state so the next sync can re-arm it.
func (uc *ProcessRecordingsUseCase) failRecord(ctx context.Context, rec *platform.MeetingRecord, cause error) {
	if err := rec.MarkFailed(cause.Error()); err != nil {
		// Already in a terminal or sideways state, leave it as-is.
		return
	}
	if err := uc.recordRepo.Update(ctx, rec); err != nil {
		uc.logger.Errorw("failed to persist failed record state",
			"record_id", rec.ID, "error", err)
	}
}

// pickRecordingFile prefers audio-only artifacts since downstream
// transcription does not need video, falling back to the first file.
func pickRecordingFile(files []providers.RecordingFile) *providers.RecordingFile {
	for i := range files {
		ft := strings.ToLower(files[i].FileType)
		ext := strings.ToLower(files[i].Extension)
		if strings.Contains(ft, "audio") || ft == "m4a" || ext == "m4a" || ext == "mp3" {
			return &files[i]
		}
	}
	return &files[0]
}
