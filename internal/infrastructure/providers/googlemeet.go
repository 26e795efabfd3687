package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	sharedConfig "github.com/annix-labs/fieldflow/internal/shared/config"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

const (
	googleCalendarAPIURL = "https://www.googleapis.com/calendar/v3"
	googleDriveAPIURL    = "https://www.googleapis.com/drive/v3"
	googleUserInfoURL    = "https://www.googleapis.com/oauth2/v2/userinfo"

	meetJoinURLMarker      = "meet.google.com"
	meetRecordingsFolder   = "Meet Recordings"
	googleCalendarPageSize = 250
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

var driveShareURLPattern = regexp.MustCompile(`drive\.google\.com/file/d/([^/?#]+)`)

// GoogleMeetProvider reads Meet meetings from the Calendar API and finds
// their recordings in Drive, where Meet stores them.
type GoogleMeetProvider struct {
	oauth          *oauth2.Config
	calendarAPIURL string
	driveAPIURL    string
	userInfoURL    string
	httpClient     *http.Client
	logger         logger.Interface
}

func NewGoogleMeetProvider(cfg *sharedConfig.ProviderOAuthConfig, log logger.Interface) *GoogleMeetProvider {
	return &GoogleMeetProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       googleScopes,
			Endpoint:     google.Endpoint,
		},
		calendarAPIURL: googleCalendarAPIURL,
		driveAPIURL:    googleDriveAPIURL,
		userInfoURL:    googleUserInfoURL,
		httpClient:     &http.Client{Timeout: httpClientTimeout},
		logger:         log,
	}
}

func (p *GoogleMeetProvider) Platform() platform.Platform {
	return platform.PlatformGoogleMeet
}

// OAuthURL requests offline access with forced consent so Google issues a
// refresh token on every connect.
func (p *GoogleMeetProvider) OAuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *GoogleMeetProvider) ExchangeAuthCode(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to exchange google authorization code", err.Error())
	}
	return tokenSetFromOAuth2(token), nil
}

func (p *GoogleMeetProvider) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, errors.NewUpstreamError("failed to refresh google access token", err.Error())
	}
	return tokenSetFromOAuth2(token), nil
}

func (p *GoogleMeetProvider) UserInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	body, _, err := p.requestURL(ctx, accessToken, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse google user info: %w", err)
	}
	return &AccountInfo{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

type googleCalendarEvent struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	Organizer struct {
		Email string `json:"email"`
	} `json:"organizer"`
	Start struct {
		DateTime string `json:"dateTime"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
	} `json:"end"`
	HangoutLink    string            `json:"hangoutLink"`
	Attendees      []json.RawMessage `json:"attendees"`
	ConferenceData struct {
		ConferenceSolution struct {
			Key struct {
				Type string `json:"type"`
			} `json:"key"`
		} `json:"conferenceSolution"`
		EntryPoints []struct {
			EntryPointType string `json:"entryPointType"`
			URI            string `json:"uri"`
		} `json:"entryPoints"`
	} `json:"conferenceData"`
}

func (e *googleCalendarEvent) isMeetEvent() bool {
	if e.HangoutLink != "" {
		return true
	}
	if e.ConferenceData.ConferenceSolution.Key.Type == "hangoutsMeet" {
		return true
	}
	for _, ep := range e.ConferenceData.EntryPoints {
		if ep.EntryPointType == "video" && strings.Contains(ep.URI, meetJoinURLMarker) {
			return true
		}
	}
	return false
}

func (p *GoogleMeetProvider) ListRecentMeetings(ctx context.Context, accessToken string, since time.Time) ([]*Meeting, error) {
	meetings := make([]*Meeting, 0)
	pageToken := ""

	for {
		query := url.Values{
			"timeMin":      {since.UTC().Format(time.RFC3339)},
			"timeMax":      {time.Now().UTC().Format(time.RFC3339)},
			"singleEvents": {"true"},
			"orderBy":      {"startTime"},
			"maxResults":   {strconv.Itoa(googleCalendarPageSize)},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		body, _, err := p.requestURL(ctx, accessToken, http.MethodGet,
			p.calendarAPIURL+"/calendars/primary/events?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var page struct {
			Items         []json.RawMessage `json:"items"`
			NextPageToken string            `json:"nextPageToken"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse calendar events: %w", err)
		}

		for _, raw := range page.Items {
			var event googleCalendarEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				return nil, fmt.Errorf("failed to parse calendar event: %w", err)
			}
			if !event.isMeetEvent() {
				continue
			}

			m := &Meeting{
				PlatformMeetingID: event.ID,
				Title:             event.Summary,
				HostEmail:         event.Organizer.Email,
				StartTime:         parseRFC3339(event.Start.DateTime),
				EndTime:           parseRFC3339(event.End.DateTime),
				JoinURL:           event.HangoutLink,
				ParticipantCount:  len(event.Attendees),
				Raw:               string(raw),
			}
			if m.StartTime != nil && m.EndTime != nil {
				m.DurationSeconds = int(m.EndTime.Sub(*m.StartTime).Seconds())
			}
			meetings = append(meetings, m)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			return meetings, nil
		}
	}
}

// MeetingRecordings confirms the calendar event still exists, then looks for
// the recording in Drive keyed on the meeting id: name match first, full-text
// match second, and finally the Meet Recordings folder. Searching on the
// event title would pull in recordings of unrelated meetings that happen to
// share a name.
func (p *GoogleMeetProvider) MeetingRecordings(ctx context.Context, accessToken, platformMeetingID string) (*Recording, error) {
	_, status, err := p.requestURL(ctx, accessToken, http.MethodGet,
		p.calendarAPIURL+"/calendars/primary/events/"+url.PathEscape(platformMeetingID), nil)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	escaped := strings.ReplaceAll(platformMeetingID, "'", "\\'")
	queries := []string{
		fmt.Sprintf("name contains '%s' and mimeType contains 'video/' and trashed = false", escaped),
		fmt.Sprintf("fullText contains '%s' and mimeType contains 'video/' and trashed = false", escaped),
	}

	for _, q := range queries {
		rec, err := p.searchDrive(ctx, accessToken, q)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}

	return p.meetRecordingsFolder(ctx, accessToken, platformMeetingID)
}

func (p *GoogleMeetProvider) searchDrive(ctx context.Context, accessToken, q string) (*Recording, error) {
	query := url.Values{
		"q":       {q},
		"orderBy": {"createdTime desc"},
		"fields":  {"files(id,name,size,mimeType,webContentLink)"},
	}
	body, _, err := p.requestURL(ctx, accessToken, http.MethodGet, p.driveAPIURL+"/files?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return p.recordingFromDriveFiles(body, "")
}

func (p *GoogleMeetProvider) meetRecordingsFolder(ctx context.Context, accessToken, platformMeetingID string) (*Recording, error) {
	folderQuery := url.Values{
		"q":      {fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.folder'", meetRecordingsFolder)},
		"fields": {"files(id)"},
	}
	body, _, err := p.requestURL(ctx, accessToken, http.MethodGet, p.driveAPIURL+"/files?"+folderQuery.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var folders struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if err := json.Unmarshal(body, &folders); err != nil {
		return nil, fmt.Errorf("failed to parse Drive folder lookup: %w", err)
	}
	if len(folders.Files) == 0 {
		return nil, nil
	}

	childQuery := url.Values{
		"q":       {fmt.Sprintf("'%s' in parents and mimeType contains 'video/' and trashed = false", folders.Files[0].ID)},
		"orderBy": {"createdTime desc"},
		"fields":  {"files(id,name,size,mimeType,webContentLink)"},
	}
	body, _, err = p.requestURL(ctx, accessToken, http.MethodGet, p.driveAPIURL+"/files?"+childQuery.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// The folder listing is not scoped to a meeting, so keep only files
	// whose name carries the meeting id.
	return p.recordingFromDriveFiles(body, platformMeetingID)
}

// recordingFromDriveFiles converts a Drive file listing into a Recording.
// A non-empty nameMustContain drops files whose name lacks it.
func (p *GoogleMeetProvider) recordingFromDriveFiles(body []byte, nameMustContain string) (*Recording, error) {
	var page struct {
		Files []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Size     string `json:"size"`
			MimeType string `json:"mimeType"`
		} `json:"files"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse Drive files: %w", err)
	}

	rec := &Recording{Raw: string(body)}
	for _, f := range page.Files {
		if nameMustContain != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(nameMustContain)) {
			continue
		}
		size, _ := strconv.ParseInt(f.Size, 10, 64)
		ext := "mp4"
		if idx := strings.LastIndex(f.Name, "."); idx >= 0 && idx < len(f.Name)-1 {
			ext = strings.ToLower(f.Name[idx+1:])
		}
		rec.Files = append(rec.Files, RecordingFile{
			ID:          f.ID,
			FileType:    strings.ToUpper(ext),
			Extension:   ext,
			DownloadURL: p.driveAPIURL + "/files/" + f.ID + "?alt=media",
			SizeBytes:   size,
		})
	}
	if len(rec.Files) == 0 {
		return nil, nil
	}
	rec.PlatformRecordingID = rec.Files[0].ID
	return rec, nil
}

// DownloadRecording fetches Drive media. Share links of the form
// drive.google.com/file/d/<id> are rewritten to the files API media URL.
func (p *GoogleMeetProvider) DownloadRecording(ctx context.Context, accessToken string, file *RecordingFile) ([]byte, error) {
	downloadURL := file.DownloadURL
	if match := driveShareURLPattern.FindStringSubmatch(downloadURL); match != nil {
		downloadURL = p.driveAPIURL + "/files/" + match[1] + "?alt=media"
	}

	body, _, err := p.requestURL(ctx, accessToken, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// RegisterWebhook opens a Calendar push channel for the primary calendar.
// The stored subscription ID carries both channel and resource IDs, which
// are needed together to stop the channel.
func (p *GoogleMeetProvider) RegisterWebhook(ctx context.Context, accessToken, callbackURL string) (*WebhookSubscription, error) {
	payload := map[string]any{
		"id":      uuid.NewString(),
		"type":    "web_hook",
		"address": callbackURL,
	}

	body, _, err := p.requestURL(ctx, accessToken, http.MethodPost,
		p.calendarAPIURL+"/calendars/primary/events/watch", payload)
	if err != nil {
		return nil, err
	}

	var channel struct {
		ID         string `json:"id"`
		ResourceID string `json:"resourceId"`
		Expiration string `json:"expiration"`
	}
	if err := json.Unmarshal(body, &channel); err != nil {
		return nil, fmt.Errorf("failed to parse calendar watch channel: %w", err)
	}

	sub := &WebhookSubscription{ID: channel.ID + ":" + channel.ResourceID}
	if ms, err := strconv.ParseInt(channel.Expiration, 10, 64); err == nil {
		expires := time.UnixMilli(ms).UTC()
		sub.ExpiresAt = &expires
	}
	return sub, nil
}

func (p *GoogleMeetProvider) UnregisterWebhook(ctx context.Context, accessToken, subscriptionID string) error {
	channelID, resourceID, ok := strings.Cut(subscriptionID, ":")
	if !ok {
		return fmt.Errorf("malformed calendar channel subscription ID")
	}
	_, _, err := p.requestURL(ctx, accessToken, http.MethodPost, p.calendarAPIURL+"/channels/stop", map[string]any{
		"id":         channelID,
		"resourceId": resourceID,
	})
	return err
}

// VerifyWebhookSignature always accepts: Calendar push notifications are
// authenticated by the channel handshake, not a signature.
func (p *GoogleMeetProvider) VerifyWebhookSignature(header http.Header, body []byte) bool {
	return true
}

// ParseWebhookEvent reads the x-goog-* headers. Calendar notifications
// carry no body and never identify the account, so the event can only be
// resolved through the stored channel ID.
func (p *GoogleMeetProvider) ParseWebhookEvent(header http.Header, body []byte) (*WebhookEvent, error) {
	state := header.Get("x-goog-resource-state")
	if state == "" {
		return nil, fmt.Errorf("missing x-goog-resource-state header")
	}

	event := &WebhookEvent{
		Platform: platform.PlatformGoogleMeet,
		Raw: fmt.Sprintf(`{"state":%q,"channelId":%q,"resourceId":%q}`,
			state, header.Get("x-goog-channel-id"), header.Get("x-goog-resource-id")),
	}

	switch state {
	case "sync":
		event.Type = EventEndpointValidation
	default:
		event.Type = EventCalendarNotification
	}
	return event, nil
}

func (p *GoogleMeetProvider) requestURL(ctx context.Context, accessToken, method, reqURL string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode google request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build google request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.NewUpstreamError("google API request failed", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read google response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, errors.NewUpstreamError(
			fmt.Sprintf("google API returned status %d", resp.StatusCode),
			truncateBody(body),
		)
	}
	return body, resp.StatusCode, nil
}
