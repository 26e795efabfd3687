// Package providers contains the meeting-platform adapters. Each adapter
// wraps one provider's OAuth flow and REST API behind the Provider
// interface so the sync engine and recording pipeline stay provider-agnostic.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
)

const httpClientTimeout = 30 * time.Second

// TokenSet is the credential bundle returned by OAuth exchange and refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
}

// AccountInfo identifies the provider account behind a token.
type AccountInfo struct {
	ID    string
	Email string
	Name  string
}

// Meeting is one past meeting as reported by a provider.
type Meeting struct {
	PlatformMeetingID string
	Title             string
	HostEmail         string
	StartTime         *time.Time
	EndTime           *time.Time
	DurationSeconds   int
	JoinURL           string
	ParticipantCount  int
	HasRecording      bool
	Raw               string
}

// RecordingFile is a single downloadable artifact of a recording.
type RecordingFile struct {
	ID          string
	FileType    string
	Extension   string
	DownloadURL string
	SizeBytes   int64
}

// Recording is the recording set a provider holds for one meeting.
type Recording struct {
	PlatformRecordingID string
	Password            string
	Files               []RecordingFile
	Raw                 string
}

// WebhookSubscription is a provider-side push registration.
type WebhookSubscription struct {
	ID        string
	ExpiresAt *time.Time
}

// WebhookEvent is a normalized provider push notification.
type WebhookEvent struct {
	Type              string
	Platform          platform.Platform
	AccountID         string
	PlatformMeetingID string
	OccurredAt        *time.Time
	Raw               string
}

// Normalized webhook event types shared by all adapters.
const (
	EventMeetingEnded         = "meeting.ended"
	EventMeetingUpdated       = "meeting.updated"
	EventRecordingCompleted   = "recording.completed"
	EventTranscriptCompleted  = "recording.transcript_completed"
	EventEndpointValidation   = "endpoint.url_validation"
	EventCalendarNotification = "calendar.notification"
)

// Provider is the adapter contract for one meeting platform.
// Methods that look up resources which do not exist return (nil, nil);
// errors are reserved for transport and API failures.
type Provider interface {
	Platform() platform.Platform

	// OAuthURL builds the user consent URL carrying an opaque state.
	OAuthURL(state string) string

	// ExchangeAuthCode trades an authorization code for tokens.
	ExchangeAuthCode(ctx context.Context, code string) (*TokenSet, error)

	// RefreshAccessToken obtains a fresh access token. The returned set
	// carries the rotated refresh token when the provider issues one.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenSet, error)

	// UserInfo fetches the account identity behind an access token.
	UserInfo(ctx context.Context, accessToken string) (*AccountInfo, error)

	// ListRecentMeetings lists past meetings that started after since.
	ListRecentMeetings(ctx context.Context, accessToken string, since time.Time) ([]*Meeting, error)

	// MeetingRecordings fetches the recording set for a meeting, nil when
	// the provider has none.
	MeetingRecordings(ctx context.Context, accessToken, platformMeetingID string) (*Recording, error)

	// DownloadRecording streams one recording file into memory.
	DownloadRecording(ctx context.Context, accessToken string, file *RecordingFile) ([]byte, error)

	// RegisterWebhook subscribes the callback URL to provider push events.
	// Providers whose webhooks are configured out-of-band return (nil, nil).
	RegisterWebhook(ctx context.Context, accessToken, callbackURL string) (*WebhookSubscription, error)

	// UnregisterWebhook removes a push subscription.
	UnregisterWebhook(ctx context.Context, accessToken, subscriptionID string) error

	// VerifyWebhookSignature authenticates an incoming webhook request.
	VerifyWebhookSignature(header http.Header, body []byte) bool

	// ParseWebhookEvent normalizes an incoming webhook request.
	ParseWebhookEvent(header http.Header, body []byte) (*WebhookEvent, error)
}

// Registry resolves adapters by platform.
type Registry struct {
	byPlatform map[platform.Platform]Provider
}

func NewRegistry(provs ...Provider) *Registry {
	r := &Registry{byPlatform: make(map[platform.Platform]Provider, len(provs))}
	for _, p := range provs {
		r.byPlatform[p.Platform()] = p
	}
	return r
}

// Get returns the adapter for a platform, nil when not configured.
func (r *Registry) Get(p platform.Platform) Provider {
	return r.byPlatform[p]
}
