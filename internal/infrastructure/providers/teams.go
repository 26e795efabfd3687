package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	sharedConfig "github.com/annix-labs/fieldflow/internal/shared/config"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

const (
	graphAPIURL = "https://graph.microsoft.com/v1.0"

	teamsJoinURLMarker = "teams.microsoft.com"

	// Graph caps onlineMeetings subscriptions at roughly three days.
	teamsSubscriptionTTL = 48 * time.Hour
)

var teamsScopes = []string{
	"offline_access",
	"User.Read",
	"OnlineMeetings.Read",
	"OnlineMeetingRecording.Read.All",
	"Calendars.Read",
}

// TeamsProvider talks to Microsoft Graph. Tenants that do not grant the
// onlineMeetings application policy return 403; the adapter then falls
// back to the calendar view to find Teams meetings.
type TeamsProvider struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	logger     logger.Interface
}

func NewTeamsProvider(cfg *sharedConfig.TeamsOAuthConfig, log logger.Interface) *TeamsProvider {
	tenant := cfg.TenantID
	if tenant == "" {
		tenant = "common"
	}
	return &TeamsProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       teamsScopes,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		apiBaseURL: graphAPIURL,
		httpClient: &http.Client{Timeout: httpClientTimeout},
		logger:     log,
	}
}

func (p *TeamsProvider) Platform() platform.Platform {
	return platform.PlatformTeams
}

func (p *TeamsProvider) OAuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *TeamsProvider) ExchangeAuthCode(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to exchange teams authorization code", err.Error())
	}
	return tokenSetFromOAuth2(token), nil
}

func (p *TeamsProvider) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, errors.NewUpstreamError("failed to refresh teams access token", err.Error())
	}
	return tokenSetFromOAuth2(token), nil
}

func (p *TeamsProvider) UserInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	body, _, err := p.request(ctx, accessToken, http.MethodGet, "/me", nil)
	if err != nil {
		return nil, err
	}

	var user struct {
		ID                string `json:"id"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		DisplayName       string `json:"displayName"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse teams user info: %w", err)
	}

	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}
	return &AccountInfo{ID: user.ID, Email: email, Name: user.DisplayName}, nil
}

// ListRecentMeetings prefers the onlineMeetings API and completes the
// picture from the calendar view, deduplicating on join URL.
func (p *TeamsProvider) ListRecentMeetings(ctx context.Context, accessToken string, since time.Time) ([]*Meeting, error) {
	meetings := make([]*Meeting, 0)
	seenJoinURLs := make(map[string]bool)

	if err := p.listOnlineMeetings(ctx, accessToken, since, &meetings, seenJoinURLs); err != nil {
		return nil, err
	}
	if err := p.listCalendarMeetings(ctx, accessToken, since, &meetings, seenJoinURLs); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (p *TeamsProvider) listOnlineMeetings(ctx context.Context, accessToken string, since time.Time, meetings *[]*Meeting, seen map[string]bool) error {
	filter := fmt.Sprintf("startDateTime ge %s", since.UTC().Format(time.RFC3339))
	next := p.apiBaseURL + "/me/onlineMeetings?" + url.Values{"$filter": {filter}}.Encode()

	for next != "" {
		body, status, err := p.requestURL(ctx, accessToken, http.MethodGet, next, nil)
		if status == http.StatusForbidden {
			// Tenant policy does not expose onlineMeetings; the calendar
			// fallback still covers the connection.
			p.logger.Warnw("graph onlineMeetings listing forbidden, relying on calendar view")
			return nil
		}
		if err != nil {
			return err
		}

		var page struct {
			Value []struct {
				ID            string `json:"id"`
				Subject       string `json:"subject"`
				StartDateTime string `json:"startDateTime"`
				EndDateTime   string `json:"endDateTime"`
				JoinWebURL    string `json:"joinWebUrl"`
			} `json:"value"`
			NextLink string `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to parse graph onlineMeetings: %w", err)
		}

		for _, item := range page.Value {
			if item.JoinWebURL != "" && seen[item.JoinWebURL] {
				continue
			}
			raw, _ := json.Marshal(item)
			m := &Meeting{
				PlatformMeetingID: item.ID,
				Title:             item.Subject,
				StartTime:         parseRFC3339(item.StartDateTime),
				EndTime:           parseRFC3339(item.EndDateTime),
				JoinURL:           item.JoinWebURL,
				Raw:               string(raw),
			}
			if m.StartTime != nil && m.EndTime != nil {
				m.DurationSeconds = int(m.EndTime.Sub(*m.StartTime).Seconds())
			}
			*meetings = append(*meetings, m)
			if item.JoinWebURL != "" {
				seen[item.JoinWebURL] = true
			}
		}
		next = page.NextLink
	}
	return nil
}

func (p *TeamsProvider) listCalendarMeetings(ctx context.Context, accessToken string, since time.Time, meetings *[]*Meeting, seen map[string]bool) error {
	query := url.Values{
		"startDateTime": {since.UTC().Format(time.RFC3339)},
		"endDateTime":   {time.Now().UTC().Format(time.RFC3339)},
		"$top":          {"100"},
	}
	next := p.apiBaseURL + "/me/calendarView?" + query.Encode()

	for next != "" {
		body, _, err := p.requestURL(ctx, accessToken, http.MethodGet, next, nil)
		if err != nil {
			return err
		}

		var page struct {
			Value []struct {
				ID      string `json:"id"`
				Subject string `json:"subject"`
				Start   struct {
					DateTime string `json:"dateTime"`
				} `json:"start"`
				End struct {
					DateTime string `json:"dateTime"`
				} `json:"end"`
				OnlineMeeting struct {
					JoinURL string `json:"joinUrl"`
				} `json:"onlineMeeting"`
				Attendees []json.RawMessage `json:"attendees"`
				Organizer struct {
					EmailAddress struct {
						Address string `json:"address"`
					} `json:"emailAddress"`
				} `json:"organizer"`
			} `json:"value"`
			NextLink string `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to parse graph calendarView: %w", err)
		}

		for _, item := range page.Value {
			joinURL := item.OnlineMeeting.JoinURL
			if joinURL == "" || !strings.Contains(joinURL, teamsJoinURLMarker) {
				continue
			}
			if seen[joinURL] {
				continue
			}
			seen[joinURL] = true

			raw, _ := json.Marshal(item)
			m := &Meeting{
				PlatformMeetingID: item.ID,
				Title:             item.Subject,
				HostEmail:         item.Organizer.EmailAddress.Address,
				StartTime:         parseGraphDateTime(item.Start.DateTime),
				EndTime:           parseGraphDateTime(item.End.DateTime),
				JoinURL:           joinURL,
				ParticipantCount:  len(item.Attendees),
				Raw:               string(raw),
			}
			if m.StartTime != nil && m.EndTime != nil {
				m.DurationSeconds = int(m.EndTime.Sub(*m.StartTime).Seconds())
			}
			*meetings = append(*meetings, m)
		}
		next = page.NextLink
	}
	return nil
}

// MeetingRecordings asks the onlineMeetings recordings API first and falls
// back to the user's OneDrive Recordings folder, where the Teams client
// lands recordings for tenants without the recordings API. Folder items are
// matched to the meeting by filename.
func (p *TeamsProvider) MeetingRecordings(ctx context.Context, accessToken, platformMeetingID string) (*Recording, error) {
	body, status, err := p.request(ctx, accessToken, http.MethodGet,
		"/me/onlineMeetings/"+url.PathEscape(platformMeetingID)+"/recordings", nil)
	if err == nil && status == http.StatusOK {
		var page struct {
			Value []struct {
				ID                  string `json:"id"`
				CreatedDateTime     string `json:"createdDateTime"`
				RecordingContentURL string `json:"recordingContentUrl"`
			} `json:"value"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse graph recordings: %w", err)
		}
		if len(page.Value) > 0 {
			rec := &Recording{
				PlatformRecordingID: page.Value[0].ID,
				Raw:                 string(body),
			}
			for _, item := range page.Value {
				rec.Files = append(rec.Files, RecordingFile{
					ID:          item.ID,
					FileType:    "MP4",
					Extension:   "mp4",
					DownloadURL: item.RecordingContentURL,
				})
			}
			return rec, nil
		}
	} else if err != nil && status != http.StatusForbidden && status != http.StatusNotFound {
		return nil, err
	}

	return p.oneDriveRecordings(ctx, accessToken, platformMeetingID)
}

func (p *TeamsProvider) oneDriveRecordings(ctx context.Context, accessToken, platformMeetingID string) (*Recording, error) {
	body, status, err := p.request(ctx, accessToken, http.MethodGet, "/me/drive/root:/Recordings:/children", nil)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var page struct {
		Value []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Size        int64  `json:"size"`
			DownloadURL string `json:"@microsoft.graph.downloadUrl"`
			File        *struct {
				MimeType string `json:"mimeType"`
			} `json:"file"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse OneDrive recordings folder: %w", err)
	}

	// The Teams client names folder recordings after the meeting, so only
	// items carrying the meeting id belong to this record. Anything else in
	// the folder is someone else's meeting.
	rec := &Recording{Raw: string(body)}
	for _, item := range page.Value {
		if item.File == nil {
			continue
		}
		if !strings.Contains(strings.ToLower(item.Name), strings.ToLower(platformMeetingID)) {
			continue
		}
		isVideo := strings.HasPrefix(item.File.MimeType, "video/") || strings.HasSuffix(strings.ToLower(item.Name), ".mp4")
		if !isVideo || item.DownloadURL == "" {
			continue
		}
		rec.Files = append(rec.Files, RecordingFile{
			ID:          item.ID,
			FileType:    "MP4",
			Extension:   "mp4",
			DownloadURL: item.DownloadURL,
			SizeBytes:   item.Size,
		})
	}
	if len(rec.Files) == 0 {
		return nil, nil
	}
	rec.PlatformRecordingID = rec.Files[0].ID
	return rec, nil
}

func (p *TeamsProvider) DownloadRecording(ctx context.Context, accessToken string, file *RecordingFile) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.DownloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build teams download request: %w", err)
	}
	// Graph content URLs need the bearer token; pre-authenticated OneDrive
	// download URLs ignore it.
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("teams recording download failed", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamError(fmt.Sprintf("teams recording download returned status %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

func (p *TeamsProvider) RegisterWebhook(ctx context.Context, accessToken, callbackURL string) (*WebhookSubscription, error) {
	expires := time.Now().UTC().Add(teamsSubscriptionTTL)
	payload := map[string]any{
		"changeType":         "created,updated",
		"notificationUrl":    callbackURL,
		"resource":           "me/onlineMeetings",
		"expirationDateTime": expires.Format(time.RFC3339),
		"clientState":        uuid.NewString(),
	}

	body, _, err := p.request(ctx, accessToken, http.MethodPost, "/subscriptions", payload)
	if err != nil {
		return nil, err
	}

	var sub struct {
		ID                 string `json:"id"`
		ExpirationDateTime string `json:"expirationDateTime"`
	}
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse graph subscription: %w", err)
	}
	return &WebhookSubscription{ID: sub.ID, ExpiresAt: parseRFC3339(sub.ExpirationDateTime)}, nil
}

func (p *TeamsProvider) UnregisterWebhook(ctx context.Context, accessToken, subscriptionID string) error {
	_, _, err := p.request(ctx, accessToken, http.MethodDelete, "/subscriptions/"+url.PathEscape(subscriptionID), nil)
	return err
}

// VerifyWebhookSignature always accepts: Graph authenticates change
// notifications with the validationToken handshake and clientState, not a
// body signature.
func (p *TeamsProvider) VerifyWebhookSignature(header http.Header, body []byte) bool {
	return true
}

func (p *TeamsProvider) ParseWebhookEvent(header http.Header, body []byte) (*WebhookEvent, error) {
	var payload struct {
		Value []struct {
			SubscriptionID string `json:"subscriptionId"`
			ChangeType     string `json:"changeType"`
			Resource       string `json:"resource"`
			ResourceData   struct {
				ID string `json:"id"`
			} `json:"resourceData"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse graph notification: %w", err)
	}
	if len(payload.Value) == 0 {
		return nil, fmt.Errorf("graph notification carries no change entries")
	}

	change := payload.Value[0]
	event := &WebhookEvent{
		Platform:          platform.PlatformTeams,
		AccountID:         graphResourceUserID(change.Resource),
		PlatformMeetingID: change.ResourceData.ID,
		Raw:               string(body),
	}
	if event.PlatformMeetingID == "" {
		event.PlatformMeetingID = graphResourceMeetingID(change.Resource)
	}

	switch change.ChangeType {
	case "created":
		event.Type = EventRecordingCompleted
	default:
		event.Type = EventMeetingUpdated
	}
	return event, nil
}

// graphResourceUserID extracts the user GUID from a resource path like
// "users/{userId}/onlineMeetings/{meetingId}".
func graphResourceUserID(resource string) string {
	parts := strings.Split(strings.Trim(resource, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "users") {
			return parts[i+1]
		}
	}
	return ""
}

func graphResourceMeetingID(resource string) string {
	parts := strings.Split(strings.Trim(resource, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "onlineMeetings") {
			return parts[i+1]
		}
	}
	return ""
}

// parseGraphDateTime handles calendarView timestamps, which come without a
// timezone suffix and are UTC by request default.
func parseGraphDateTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t := parseRFC3339(s); t != nil {
		return t
	}
	t, err := time.Parse("2006-01-02T15:04:05.9999999", s)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func (p *TeamsProvider) request(ctx context.Context, accessToken, method, path string, payload any) ([]byte, int, error) {
	return p.requestURL(ctx, accessToken, method, p.apiBaseURL+path, payload)
}

func (p *TeamsProvider) requestURL(ctx context.Context, accessToken, method, reqURL string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode graph request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.NewUpstreamError("graph API request failed", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read graph response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, errors.NewUpstreamError(
			fmt.Sprintf("graph API returned status %d", resp.StatusCode),
			truncateBody(body),
		)
	}
	return body, resp.StatusCode, nil
}
