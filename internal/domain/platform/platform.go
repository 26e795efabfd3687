// Package platform contains the meeting-platform integration domain:
// provider connections owned by sales reps and the meeting records
// synced from those providers.
package platform

import "fmt"

// Platform identifies a supported meeting provider.
type Platform string

const (
	PlatformZoom       Platform = "zoom"
	PlatformTeams      Platform = "teams"
	PlatformGoogleMeet Platform = "google_meet"
)

// ParsePlatform validates a raw platform string.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformZoom, PlatformTeams, PlatformGoogleMeet:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unsupported platform: %q", s)
	}
}

func (p Platform) String() string {
	return string(p)
}

// ConnectionStatus is the health state of a provider connection.
type ConnectionStatus string

const (
	ConnectionStatusActive       ConnectionStatus = "active"
	ConnectionStatusTokenExpired ConnectionStatus = "token_expired"
	ConnectionStatusError        ConnectionStatus = "error"
)

// RecordingStatus is the retrieval pipeline state of a meeting record.
// Status only moves forward through the pipeline; the only backward
// transition is re-arming failed or no_recording records to pending.
type RecordingStatus string

const (
	RecordingStatusPending     RecordingStatus = "pending"
	RecordingStatusDownloading RecordingStatus = "downloading"
	RecordingStatusDownloaded  RecordingStatus = "downloaded"
	RecordingStatusProcessing  RecordingStatus = "processing"
	RecordingStatusCompleted   RecordingStatus = "completed"
	RecordingStatusFailed      RecordingStatus = "failed"
	RecordingStatusNoRecording RecordingStatus = "no_recording"
)

var recordingStatusOrder = map[RecordingStatus]int{
	RecordingStatusPending:     0,
	RecordingStatusDownloading: 1,
	RecordingStatusDownloaded:  2,
	RecordingStatusProcessing:  3,
	RecordingStatusCompleted:   4,
}

// CanTransitionTo reports whether a recording status change is legal.
func (s RecordingStatus) CanTransitionTo(next RecordingStatus) bool {
	if s == next {
		return false
	}
	switch next {
	case RecordingStatusFailed:
		return s != RecordingStatusCompleted
	case RecordingStatusNoRecording:
		return s == RecordingStatusPending || s == RecordingStatusDownloading
	case RecordingStatusPending:
		// Re-arm for retry.
		return s == RecordingStatusFailed || s == RecordingStatusNoRecording
	}

	cur, ok := recordingStatusOrder[s]
	if !ok {
		return false
	}
	nxt, ok := recordingStatusOrder[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}
