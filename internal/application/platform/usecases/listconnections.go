package usecases

import (
	"context"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// ListConnectionsCommand lists a user's platform connections.
type ListConnectionsCommand struct {
	UserID uint
}

type ListConnectionsResult struct {
	Connections []*dto.ConnectionDTO `json:"connections"`
}

type ListConnectionsUseCase struct {
	connRepo platform.ConnectionRepository
	logger   logger.Interface
}

func NewListConnectionsUseCase(connRepo platform.ConnectionRepository, log logger.Interface) *ListConnectionsUseCase {
	return &ListConnectionsUseCase{connRepo: connRepo, logger: log}
}

func (uc *ListConnectionsUseCase) Execute(ctx context.Context, cmd ListConnectionsCommand) (*ListConnectionsResult, error) {
	conns, err := uc.connRepo.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	return &ListConnectionsResult{Connections: dto.FromConnectionList(conns)}, nil
}
