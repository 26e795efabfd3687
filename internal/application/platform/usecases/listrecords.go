package usecases

import (
	"context"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// ListRecordsCommand lists the synced records of one connection.
type ListRecordsCommand struct {
	UserID       uint
	ConnectionID uint
	Limit        int
}

type ListRecordsResult struct {
	Records []*dto.RecordDTO `json:"records"`
}

type ListRecordsUseCase struct {
	connRepo   platform.ConnectionRepository
	recordRepo platform.RecordRepository
	logger     logger.Interface
}

func NewListRecordsUseCase(
	connRepo platform.ConnectionRepository,
	recordRepo platform.RecordRepository,
	log logger.Interface,
) *ListRecordsUseCase {
	return &ListRecordsUseCase{connRepo: connRepo, recordRepo: recordRepo, logger: log}
}

func (uc *ListRecordsUseCase) Execute(ctx context.Context, cmd ListRecordsCommand) (*ListRecordsResult, error) {
	conn, err := ownedConnection(ctx, uc.connRepo, cmd.UserID, cmd.ConnectionID)
	if err != nil {
		return nil, err
	}

	records, err := uc.recordRepo.ListByConnection(ctx, conn.ID, cmd.Limit)
	if err != nil {
		return nil, err
	}
	return &ListRecordsResult{Records: dto.FromRecordList(records)}, nil
}

// GetRecordCommand fetches one record, ownership enforced through its
// connection.
type GetRecordCommand struct {
	UserID   uint
	RecordID uint
}

type GetRecordResult struct {
	Record *dto.RecordDTO `json:"record"`
}

type GetRecordUseCase struct {
	connRepo   platform.ConnectionRepository
	recordRepo platform.RecordRepository
	logger     logger.Interface
}

func NewGetRecordUseCase(
	connRepo platform.ConnectionRepository,
	recordRepo platform.RecordRepository,
	log logger.Interface,
) *GetRecordUseCase {
	return &GetRecordUseCase{connRepo: connRepo, recordRepo: recordRepo, logger: log}
}

func (uc *GetRecordUseCase) Execute(ctx context.Context, cmd GetRecordCommand) (*GetRecordResult, error) {
	rec, err := uc.recordRepo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.NewNotFoundError("record not found")
	}

	if _, err := ownedConnection(ctx, uc.connRepo, cmd.UserID, rec.ConnectionID); err != nil {
		return nil, err
	}
	return &GetRecordResult{Record: dto.FromRecord(rec)}, nil
}
