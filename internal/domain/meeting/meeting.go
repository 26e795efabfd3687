// Package meeting holds the business Meeting aggregate the sales platform
// works with, and the recording artifact attached to a meeting.
package meeting

import (
	"context"
	"errors"
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
)

// MeetingStatus is the lifecycle state of a business meeting.
type MeetingStatus string

const (
	StatusScheduled MeetingStatus = "scheduled"
	StatusCompleted MeetingStatus = "completed"
	StatusCancelled MeetingStatus = "cancelled"
)

var ErrTitleRequired = errors.New("meeting title is required")

// Meeting is a sales meeting owned by a rep. Meetings either originate in
// the platform or are synthesized when a provider recording arrives for a
// meeting nobody scheduled here.
type Meeting struct {
	ID         uint
	SalesRepID uint

	Title        string
	CustomerName string
	Status       MeetingStatus

	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	JoinURL  string
	Platform platform.Platform

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMeeting creates a meeting owned by a sales rep.
func NewMeeting(salesRepID uint, title string, status MeetingStatus) (*Meeting, error) {
	if salesRepID == 0 {
		return nil, platform.ErrUserIDRequired
	}
	if title == "" {
		return nil, ErrTitleRequired
	}

	now := biztime.NowUTC()
	return &Meeting{
		SalesRepID: salesRepID,
		Title:      title,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Complete marks the meeting as held.
func (m *Meeting) Complete() {
	m.Status = StatusCompleted
	m.UpdatedAt = biztime.NowUTC()
}

// Repository defines persistence for business meetings.
// Lookups that find nothing return (nil, nil).
type Repository interface {
	// Create creates a new meeting
	Create(ctx context.Context, m *Meeting) error

	// GetByID retrieves a meeting by internal ID
	GetByID(ctx context.Context, id uint) (*Meeting, error)

	// GetByJoinURL retrieves a rep's meeting with an exactly matching join URL
	GetByJoinURL(ctx context.Context, salesRepID uint, joinURL string) (*Meeting, error)

	// ListInWindow retrieves a rep's meetings scheduled to start inside
	// [from, to]
	ListInWindow(ctx context.Context, salesRepID uint, from, to time.Time) ([]*Meeting, error)

	// Update updates an existing meeting
	Update(ctx context.Context, m *Meeting) error
}
