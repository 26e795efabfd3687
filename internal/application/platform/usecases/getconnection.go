package usecases

import (
	"context"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// GetConnectionCommand fetches one connection owned by the user.
type GetConnectionCommand struct {
	UserID       uint
	ConnectionID uint
}

type GetConnectionResult struct {
	Connection *dto.ConnectionDTO `json:"connection"`
}

type GetConnectionUseCase struct {
	connRepo platform.ConnectionRepository
	logger   logger.Interface
}

func NewGetConnectionUseCase(connRepo platform.ConnectionRepository, log logger.Interface) *GetConnectionUseCase {
	return &GetConnectionUseCase{connRepo: connRepo, logger: log}
}

func (uc *GetConnectionUseCase) Execute(ctx context.Context, cmd GetConnectionCommand) (*GetConnectionResult, error) {
	conn, err := ownedConnection(ctx, uc.connRepo, cmd.UserID, cmd.ConnectionID)
	if err != nil {
		return nil, err
	}
	return &GetConnectionResult{Connection: dto.FromConnection(conn)}, nil
}

// ownedConnection loads a connection and enforces ownership. Connections
// belonging to other users surface as not found.
func ownedConnection(ctx context.Context, repo platform.ConnectionRepository, userID, connectionID uint) (*platform.Connection, error) {
	conn, err := repo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.UserID != userID {
		return nil, errors.NewNotFoundError("connection not found")
	}
	return conn, nil
}
