package platform

import (
	"context"
	"time"
)

// ConnectionRepository defines persistence for provider connections.
// Lookups that find nothing return (nil, nil).
type ConnectionRepository interface {
	// Create creates a new connection
	Create(ctx context.Context, conn *Connection) error

	// GetByID retrieves a connection by internal ID
	GetByID(ctx context.Context, id uint) (*Connection, error)

	// GetByUserAndPlatform retrieves the single connection a user has for a platform
	GetByUserAndPlatform(ctx context.Context, userID uint, p Platform) (*Connection, error)

	// GetByPlatformAccount retrieves an active connection by provider account ID
	GetByPlatformAccount(ctx context.Context, p Platform, accountID string) (*Connection, error)

	// ListByUser retrieves all connections belonging to a user
	ListByUser(ctx context.Context, userID uint) ([]*Connection, error)

	// ListActive retrieves all active connections across users
	ListActive(ctx context.Context) ([]*Connection, error)

	// ListNeedingTokenRefresh retrieves active connections holding a refresh
	// token whose access token expires before the deadline
	ListNeedingTokenRefresh(ctx context.Context, deadline time.Time) ([]*Connection, error)

	// Update updates an existing connection
	Update(ctx context.Context, conn *Connection) error

	// Delete removes a connection and all of its meeting records
	Delete(ctx context.Context, id uint) error
}

// RecordRepository defines persistence for synced meeting records.
type RecordRepository interface {
	// Create creates a new meeting record
	Create(ctx context.Context, rec *MeetingRecord) error

	// GetByID retrieves a record by internal ID
	GetByID(ctx context.Context, id uint) (*MeetingRecord, error)

	// GetByConnectionAndPlatformMeeting retrieves a record by its natural key
	GetByConnectionAndPlatformMeeting(ctx context.Context, connectionID uint, platformMeetingID string) (*MeetingRecord, error)

	// ListByConnection retrieves records for a connection, newest first
	ListByConnection(ctx context.Context, connectionID uint, limit int) ([]*MeetingRecord, error)

	// ListPending retrieves pending records across connections, newest
	// meetings first, capped at limit
	ListPending(ctx context.Context, limit int) ([]*MeetingRecord, error)

	// Update updates an existing record
	Update(ctx context.Context, rec *MeetingRecord) error

	// DeleteByConnection removes all records belonging to a connection
	DeleteByConnection(ctx context.Context, connectionID uint) error
}
