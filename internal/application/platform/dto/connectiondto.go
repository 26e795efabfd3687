// Package dto defines the transport representations returned by the
// platform use cases. Credentials never leave the application layer.
package dto

import (
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/mapper"
)

// ConnectionDTO is the API view of a provider connection.
type ConnectionDTO struct {
	ID           uint   `json:"id"`
	Platform     string `json:"platform"`
	AccountEmail string `json:"account_email"`
	AccountName  string `json:"account_name"`

	Status      string     `json:"status"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`

	AutoFetchRecordings bool `json:"auto_fetch_recordings"`
	AutoTranscribe      bool `json:"auto_transcribe"`
	AutoSendSummary     bool `json:"auto_send_summary"`

	WebhookActive       bool       `json:"webhook_active"`
	TokenExpiresAt      *time.Time `json:"token_expires_at,omitempty"`
	LastRecordingSyncAt *time.Time `json:"last_recording_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FromConnection maps a domain connection to its API view.
func FromConnection(conn *platform.Connection) *ConnectionDTO {
	if conn == nil {
		return nil
	}
	return &ConnectionDTO{
		ID:                  conn.ID,
		Platform:            string(conn.Platform),
		AccountEmail:        conn.AccountEmail,
		AccountName:         conn.AccountName,
		Status:              string(conn.Status),
		LastError:           conn.LastError,
		LastErrorAt:         conn.LastErrorAt,
		AutoFetchRecordings: conn.AutoFetchRecordings,
		AutoTranscribe:      conn.AutoTranscribe,
		AutoSendSummary:     conn.AutoSendSummary,
		WebhookActive:       conn.WebhookSubscriptionID != "",
		TokenExpiresAt:      conn.TokenExpiresAt,
		LastRecordingSyncAt: conn.LastRecordingSyncAt,
		CreatedAt:           conn.CreatedAt,
	}
}

// FromConnectionList maps a slice of domain connections.
func FromConnectionList(conns []*platform.Connection) []*ConnectionDTO {
	return mapper.MapSlicePtr(conns, FromConnection)
}
