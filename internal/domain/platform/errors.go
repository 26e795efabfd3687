package platform

import (
	"errors"
	"fmt"
)

var (
	ErrUserIDRequired            = errors.New("user ID is required")
	ErrConnectionIDRequired      = errors.New("connection ID is required")
	ErrPlatformMeetingIDRequired = errors.New("platform meeting ID is required")

	// ErrRefreshTokenMissing means the access token expired and no refresh
	// credential is stored; the user has to re-connect the platform.
	ErrRefreshTokenMissing = errors.New("access token expired and no refresh token is available")
)

// InvalidTransitionError reports an illegal recording status change.
type InvalidTransitionError struct {
	From RecordingStatus
	To   RecordingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid recording status transition from %s to %s", e.From, e.To)
}
