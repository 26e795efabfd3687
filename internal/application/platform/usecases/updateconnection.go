package usecases

import (
	"context"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// UpdateConnectionCommand changes a connection's automation flags.
// Nil fields are left untouched.
type UpdateConnectionCommand struct {
	UserID       uint
	ConnectionID uint

	AutoFetchRecordings *bool
	AutoTranscribe      *bool
	AutoSendSummary     *bool
}

type UpdateConnectionResult struct {
	Connection *dto.ConnectionDTO `json:"connection"`
}

type UpdateConnectionUseCase struct {
	connRepo platform.ConnectionRepository
	logger   logger.Interface
}

func NewUpdateConnectionUseCase(connRepo platform.ConnectionRepository, log logger.Interface) *UpdateConnectionUseCase {
	return &UpdateConnectionUseCase{connRepo: connRepo, logger: log}
}

func (uc *UpdateConnectionUseCase) Execute(ctx context.Context, cmd UpdateConnectionCommand) (*UpdateConnectionResult, error) {
	conn, err := ownedConnection(ctx, uc.connRepo, cmd.UserID, cmd.ConnectionID)
	if err != nil {
		return nil, err
	}

	if cmd.AutoFetchRecordings != nil {
		conn.AutoFetchRecordings = *cmd.AutoFetchRecordings
	}
	if cmd.AutoTranscribe != nil {
		conn.AutoTranscribe = *cmd.AutoTranscribe
	}
	if cmd.AutoSendSummary != nil {
		conn.AutoSendSummary = *cmd.AutoSendSummary
	}
	conn.UpdatedAt = biztime.NowUTC()

	if err := uc.connRepo.Update(ctx, conn); err != nil {
		return nil, err
	}
	return &UpdateConnectionResult{Connection: dto.FromConnection(conn)}, nil
}
