package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	sharedConfig "github.com/annix-labs/fieldflow/internal/shared/config"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

const (
	zoomAuthURL  = "https://zoom.us/oauth/authorize"
	zoomTokenURL = "https://zoom.us/oauth/token"
	zoomAPIURL   = "https://api.zoom.us/v2"

	zoomPageSize = 300
)

// ZoomProvider talks to the Zoom OAuth and REST APIs. Webhook delivery is
// configured in the Zoom marketplace app, so RegisterWebhook is a no-op.
type ZoomProvider struct {
	oauth      *oauth2.Config
	signer     *crypto.ZoomWebhookSigner
	apiBaseURL string
	httpClient *http.Client
	logger     logger.Interface
}

func NewZoomProvider(cfg *sharedConfig.ProviderOAuthConfig, signer *crypto.ZoomWebhookSigner, log logger.Interface) *ZoomProvider {
	return &ZoomProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   zoomAuthURL,
				TokenURL:  zoomTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		signer:     signer,
		apiBaseURL: zoomAPIURL,
		httpClient: &http.Client{Timeout: httpClientTimeout},
		logger:     log,
	}
}

func (p *ZoomProvider) Platform() platform.Platform {
	return platform.PlatformZoom
}

func (p *ZoomProvider) OAuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *ZoomProvider) ExchangeAuthCode(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to exchange zoom authorization code", err.Error())
	}
	return tokenSetFromOAuth2(token), nil
}

func (p *ZoomProvider) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, errors.NewUpstreamError("failed to refresh zoom access token", err.Error())
	}
	return tokenSetFromOAuth2(token), nil
}

func (p *ZoomProvider) UserInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	body, _, err := p.get(ctx, accessToken, "/users/me", nil)
	if err != nil {
		return nil, err
	}

	var user struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse zoom user info: %w", err)
	}

	name := user.DisplayName
	if name == "" {
		name = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	return &AccountInfo{ID: user.ID, Email: user.Email, Name: name}, nil
}

type zoomMeetingItem struct {
	ID        json.Number `json:"id"`
	Topic     string      `json:"topic"`
	HostEmail string      `json:"host_email"`
	StartTime string      `json:"start_time"`
	Duration  int         `json:"duration"`
	JoinURL   string      `json:"join_url"`
}

// ListRecentMeetings merges the past-meetings list with the cloud
// recordings list: recordings flag existing meetings as recorded and
// contribute meetings the past list missed.
func (p *ZoomProvider) ListRecentMeetings(ctx context.Context, accessToken string, since time.Time) ([]*Meeting, error) {
	from := since.UTC().Format("2006-01-02")
	to := time.Now().UTC().Format("2006-01-02")

	meetings := make([]*Meeting, 0)
	index := make(map[string]*Meeting)

	err := p.paginate(ctx, accessToken, "/users/me/meetings", url.Values{
		"type": {"past"}, "from": {from}, "to": {to},
	}, "meetings", func(raw json.RawMessage) error {
		var item zoomMeetingItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		m := &Meeting{
			PlatformMeetingID: item.ID.String(),
			Title:             item.Topic,
			HostEmail:         item.HostEmail,
			StartTime:         parseRFC3339(item.StartTime),
			DurationSeconds:   item.Duration * 60,
			JoinURL:           item.JoinURL,
			Raw:               string(raw),
		}
		if m.StartTime != nil && m.DurationSeconds > 0 {
			end := m.StartTime.Add(time.Duration(m.DurationSeconds) * time.Second)
			m.EndTime = &end
		}
		meetings = append(meetings, m)
		index[m.PlatformMeetingID] = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.paginate(ctx, accessToken, "/users/me/recordings", url.Values{
		"from": {from}, "to": {to},
	}, "meetings", func(raw json.RawMessage) error {
		var item zoomMeetingItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		id := item.ID.String()
		if existing, ok := index[id]; ok {
			existing.HasRecording = true
			return nil
		}
		m := &Meeting{
			PlatformMeetingID: id,
			Title:             item.Topic,
			HostEmail:         item.HostEmail,
			StartTime:         parseRFC3339(item.StartTime),
			DurationSeconds:   item.Duration * 60,
			HasRecording:      true,
			Raw:               string(raw),
		}
		if m.StartTime != nil && m.DurationSeconds > 0 {
			end := m.StartTime.Add(time.Duration(m.DurationSeconds) * time.Second)
			m.EndTime = &end
		}
		meetings = append(meetings, m)
		index[id] = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return meetings, nil
}

func (p *ZoomProvider) MeetingRecordings(ctx context.Context, accessToken, platformMeetingID string) (*Recording, error) {
	body, status, err := p.get(ctx, accessToken, "/meetings/"+url.PathEscape(platformMeetingID)+"/recordings", nil)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp struct {
		UUID     string `json:"uuid"`
		Password string `json:"password"`
		Passcode string `json:"recording_play_passcode"`
		Files    []struct {
			ID            string `json:"id"`
			FileType      string `json:"file_type"`
			FileExtension string `json:"file_extension"`
			DownloadURL   string `json:"download_url"`
			FileSize      int64  `json:"file_size"`
			Status        string `json:"status"`
			RecordingType string `json:"recording_type"`
		} `json:"recording_files"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse zoom recordings: %w", err)
	}

	password := resp.Password
	if password == "" {
		password = resp.Passcode
	}

	rec := &Recording{
		PlatformRecordingID: resp.UUID,
		Password:            password,
		Raw:                 string(body),
	}
	for _, f := range resp.Files {
		if f.Status != "" && f.Status != "completed" {
			continue
		}
		// Only the playable media artifacts matter downstream.
		if f.FileType != "M4A" && f.FileType != "MP4" && f.RecordingType != "audio_only" {
			continue
		}
		rec.Files = append(rec.Files, RecordingFile{
			ID:          f.ID,
			FileType:    f.FileType,
			Extension:   strings.ToLower(f.FileExtension),
			DownloadURL: f.DownloadURL,
			SizeBytes:   f.FileSize,
		})
	}
	if len(rec.Files) == 0 {
		return nil, nil
	}
	return rec, nil
}

// DownloadRecording fetches the media. Zoom expects the OAuth token as an
// access_token query parameter on the download host.
func (p *ZoomProvider) DownloadRecording(ctx context.Context, accessToken string, file *RecordingFile) ([]byte, error) {
	downloadURL := file.DownloadURL
	sep := "?"
	if strings.Contains(downloadURL, "?") {
		sep = "&"
	}
	downloadURL += sep + "access_token=" + url.QueryEscape(accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build zoom download request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("zoom recording download failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamError(fmt.Sprintf("zoom recording download returned status %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

// RegisterWebhook is a no-op: Zoom webhooks are configured on the
// marketplace app, not per user.
func (p *ZoomProvider) RegisterWebhook(ctx context.Context, accessToken, callbackURL string) (*WebhookSubscription, error) {
	return nil, nil
}

func (p *ZoomProvider) UnregisterWebhook(ctx context.Context, accessToken, subscriptionID string) error {
	return nil
}

func (p *ZoomProvider) VerifyWebhookSignature(header http.Header, body []byte) bool {
	return p.signer.Verify(header.Get("x-zm-signature"), header.Get("x-zm-request-timestamp"), body)
}

func (p *ZoomProvider) ParseWebhookEvent(header http.Header, body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event   string `json:"event"`
		EventTS int64  `json:"event_ts"`
		Payload struct {
			PlainToken string `json:"plainToken"`
			AccountID  string `json:"account_id"`
			Object     struct {
				ID     json.Number `json:"id"`
				HostID string      `json:"host_id"`
			} `json:"object"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse zoom webhook payload: %w", err)
	}

	event := &WebhookEvent{
		Platform:          platform.PlatformZoom,
		AccountID:         payload.Payload.Object.HostID,
		PlatformMeetingID: payload.Payload.Object.ID.String(),
		Raw:               string(body),
	}
	if payload.EventTS > 0 {
		occurred := time.UnixMilli(payload.EventTS).UTC()
		event.OccurredAt = &occurred
	}

	switch payload.Event {
	case "endpoint.url_validation":
		event.Type = EventEndpointValidation
	case "meeting.ended":
		event.Type = EventMeetingEnded
	case "meeting.updated":
		event.Type = EventMeetingUpdated
	case "recording.completed":
		event.Type = EventRecordingCompleted
	case "recording.transcript_completed":
		event.Type = EventTranscriptCompleted
	default:
		event.Type = payload.Event
	}
	return event, nil
}

// paginate walks a Zoom list endpoint following next_page_token.
func (p *ZoomProvider) paginate(ctx context.Context, accessToken, path string, params url.Values, listKey string, visit func(json.RawMessage) error) error {
	pageToken := ""
	for {
		query := url.Values{}
		for k, v := range params {
			query[k] = v
		}
		query.Set("page_size", fmt.Sprintf("%d", zoomPageSize))
		if pageToken != "" {
			query.Set("next_page_token", pageToken)
		}

		body, _, err := p.get(ctx, accessToken, path, query)
		if err != nil {
			return err
		}

		var page map[string]json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to parse zoom list response: %w", err)
		}

		var items []json.RawMessage
		if raw, ok := page[listKey]; ok {
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("failed to parse zoom list items: %w", err)
			}
		}
		for _, item := range items {
			if err := visit(item); err != nil {
				return err
			}
		}

		pageToken = ""
		if raw, ok := page["next_page_token"]; ok {
			_ = json.Unmarshal(raw, &pageToken)
		}
		if pageToken == "" {
			return nil
		}
	}
}

func (p *ZoomProvider) get(ctx context.Context, accessToken, path string, query url.Values) ([]byte, int, error) {
	reqURL := p.apiBaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build zoom request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.NewUpstreamError("zoom API request failed", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read zoom response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, errors.NewUpstreamError(
			fmt.Sprintf("zoom API returned status %d for %s", resp.StatusCode, path),
			truncateBody(body),
		)
	}
	return body, resp.StatusCode, nil
}
