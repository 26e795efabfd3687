package platform

import (
	"time"

	"github.com/annix-labs/fieldflow/internal/shared/biztime"
)

// Connection is an OAuth link between a sales rep and a meeting provider
// account. Tokens are stored encrypted; the domain never sees plaintext
// credentials beyond what a use case decrypts for an API call.
type Connection struct {
	ID     uint
	UserID uint

	Platform     Platform
	AccountEmail string
	AccountName  string
	AccountID    string

	AccessTokenEncrypted  string
	RefreshTokenEncrypted string
	TokenExpiresAt        *time.Time
	TokenScope            string

	WebhookSubscriptionID string
	WebhookExpiresAt      *time.Time

	Status      ConnectionStatus
	LastError   string
	LastErrorAt *time.Time

	AutoFetchRecordings bool
	AutoTranscribe      bool
	AutoSendSummary     bool

	LastRecordingSyncAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConnection creates an active connection for a user and provider account.
func NewConnection(userID uint, p Platform, accountEmail, accountName, accountID string) (*Connection, error) {
	if userID == 0 {
		return nil, ErrUserIDRequired
	}
	if _, err := ParsePlatform(string(p)); err != nil {
		return nil, err
	}

	now := biztime.NowUTC()
	return &Connection{
		UserID:              userID,
		Platform:            p,
		AccountEmail:        accountEmail,
		AccountName:         accountName,
		AccountID:           accountID,
		Status:              ConnectionStatusActive,
		AutoFetchRecordings: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// SetTokens stores a fresh credential set and reactivates the connection.
// An empty refreshToken keeps the previously stored one (providers rotate
// refresh tokens only sometimes).
func (c *Connection) SetTokens(accessTokenEncrypted, refreshTokenEncrypted string, expiresAt *time.Time, scope string) {
	c.AccessTokenEncrypted = accessTokenEncrypted
	if refreshTokenEncrypted != "" {
		c.RefreshTokenEncrypted = refreshTokenEncrypted
	}
	c.TokenExpiresAt = expiresAt
	if scope != "" {
		c.TokenScope = scope
	}
	c.Status = ConnectionStatusActive
	c.LastError = ""
	c.LastErrorAt = nil
	c.UpdatedAt = biztime.NowUTC()
}

// MarkTokenExpired records that the connection can no longer authenticate
// and requires the user to re-connect.
func (c *Connection) MarkTokenExpired(reason string) {
	now := biztime.NowUTC()
	c.Status = ConnectionStatusTokenExpired
	c.LastError = reason
	c.LastErrorAt = &now
	c.UpdatedAt = now
}

// MarkError records a non-auth failure without deactivating the tokens.
func (c *Connection) MarkError(reason string) {
	now := biztime.NowUTC()
	c.Status = ConnectionStatusError
	c.LastError = reason
	c.LastErrorAt = &now
	c.UpdatedAt = now
}

// MarkSynced stamps the recording sync watermark.
func (c *Connection) MarkSynced() {
	now := biztime.NowUTC()
	c.LastRecordingSyncAt = &now
	c.UpdatedAt = now
}

// SetWebhookSubscription records the provider-side push subscription.
func (c *Connection) SetWebhookSubscription(subscriptionID string, expiresAt *time.Time) {
	c.WebhookSubscriptionID = subscriptionID
	c.WebhookExpiresAt = expiresAt
	c.UpdatedAt = biztime.NowUTC()
}

// IsActive reports whether the connection is usable for API calls.
func (c *Connection) IsActive() bool {
	return c.Status == ConnectionStatusActive
}

// HasRefreshToken reports whether a refresh credential is stored.
func (c *Connection) HasRefreshToken() bool {
	return c.RefreshTokenEncrypted != ""
}

// TokenExpiresWithin reports whether the access token expires inside the
// given window. Connections without a recorded expiry never report true.
func (c *Connection) TokenExpiresWithin(window time.Duration) bool {
	if c.TokenExpiresAt == nil {
		return false
	}
	return c.TokenExpiresAt.Before(biztime.NowUTC().Add(window))
}
