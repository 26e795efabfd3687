package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

func newTestGoogleProvider(serverURL string, client *http.Client) *GoogleMeetProvider {
	return &GoogleMeetProvider{
		oauth:          &oauth2.Config{ClientID: "cid", ClientSecret: "secret"},
		calendarAPIURL: serverURL + "/calendar/v3",
		driveAPIURL:    serverURL + "/drive/v3",
		userInfoURL:    serverURL + "/oauth2/v2/userinfo",
		httpClient:     client,
		logger:         logger.NewLogger(),
	}
}

func TestGoogleCalendarEvent_IsMeetEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"hangout link", `{"hangoutLink":"https://meet.google.com/abc-defg-hij"}`, true},
		{"hangoutsMeet conference solution", `{"conferenceData":{"conferenceSolution":{"key":{"type":"hangoutsMeet"}}}}`, true},
		{"video entry point", `{"conferenceData":{"entryPoints":[{"entryPointType":"video","uri":"https://meet.google.com/abc"}]}}`, true},
		{"phone entry point only", `{"conferenceData":{"entryPoints":[{"entryPointType":"phone","uri":"tel:+1-555"}]}}`, false},
		{"non-meet video link", `{"conferenceData":{"entryPoints":[{"entryPointType":"video","uri":"https://zoom.us/j/1"}]}}`, false},
		{"plain event", `{"summary":"Lunch"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event googleCalendarEvent
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &event))
			assert.Equal(t, tt.want, event.isMeetEvent())
		})
	}
}

func TestGoogleMeetProvider_ListRecentMeetings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendar/v3/calendars/primary/events", r.URL.Path)
		if r.URL.Query().Get("pageToken") == "" {
			w.Write([]byte(`{"items":[
				{"id":"ev1","summary":"Discovery call","organizer":{"email":"rep@acme.com"},"start":{"dateTime":"2026-08-20T10:00:00Z"},"end":{"dateTime":"2026-08-20T10:45:00Z"},"hangoutLink":"https://meet.google.com/abc","attendees":[{},{}]},
				{"id":"ev2","summary":"Focus time"}
			],"nextPageToken":"p2"}`))
			return
		}
		w.Write([]byte(`{"items":[
			{"id":"ev3","summary":"Demo","conferenceData":{"conferenceSolution":{"key":{"type":"hangoutsMeet"}}}}
		]}`))
	}))
	defer server.Close()

	p := newTestGoogleProvider(server.URL, server.Client())
	meetings, err := p.ListRecentMeetings(context.Background(), "tok", time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)

	require.Len(t, meetings, 2)
	assert.Equal(t, "ev1", meetings[0].PlatformMeetingID)
	assert.Equal(t, "Discovery call", meetings[0].Title)
	assert.Equal(t, 2, meetings[0].ParticipantCount)
	assert.Equal(t, 2700, meetings[0].DurationSeconds)
	assert.Equal(t, "ev3", meetings[1].PlatformMeetingID)
}

func TestGoogleMeetProvider_MeetingRecordings_NameSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendar/v3/calendars/primary/events/ev1":
			w.Write([]byte(`{"id":"ev1","summary":"Discovery call","hangoutLink":"https://meet.google.com/abc"}`))
		case "/drive/v3/files":
			q := r.URL.Query().Get("q")
			if q == "name contains 'ev1' and mimeType contains 'video/' and trashed = false" {
				w.Write([]byte(`{"files":[{"id":"drv1","name":"Discovery call (ev1).mp4","size":"8192","mimeType":"video/mp4"}]}`))
				return
			}
			w.Write([]byte(`{"files":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestGoogleProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "ev1")
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.Len(t, rec.Files, 1)
	assert.Equal(t, "drv1", rec.Files[0].ID)
	assert.Equal(t, int64(8192), rec.Files[0].SizeBytes)
	assert.Contains(t, rec.Files[0].DownloadURL, "/drive/v3/files/drv1?alt=media")
}

func TestGoogleMeetProvider_MeetingRecordings_FolderFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendar/v3/calendars/primary/events/ev1":
			w.Write([]byte(`{"id":"ev1","summary":"Discovery call"}`))
		case "/drive/v3/files":
			q := r.URL.Query().Get("q")
			switch {
			case q == "name = 'Meet Recordings' and mimeType = 'application/vnd.google-apps.folder'":
				w.Write([]byte(`{"files":[{"id":"folder1"}]}`))
			case q == "'folder1' in parents and mimeType contains 'video/' and trashed = false":
				w.Write([]byte(`{"files":[
					{"id":"drv8","name":"Standup (ev7) recording.mp4","size":"50","mimeType":"video/mp4"},
					{"id":"drv9","name":"Discovery call (ev1) recording.mp4","size":"100","mimeType":"video/mp4"}
				]}`))
			default:
				w.Write([]byte(`{"files":[]}`))
			}
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestGoogleProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "ev1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, "drv9", rec.Files[0].ID)
}

func TestGoogleMeetProvider_MeetingRecordings_FallbackSkipsOtherMeetings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendar/v3/calendars/primary/events/evt-1":
			w.Write([]byte(`{"id":"evt-1","summary":"Kickoff"}`))
		case "/drive/v3/files":
			q := r.URL.Query().Get("q")
			if q == "name = 'Meet Recordings' and mimeType = 'application/vnd.google-apps.folder'" {
				w.Write([]byte(`{"files":[{"id":"folder1"}]}`))
				return
			}
			if strings.HasPrefix(q, "'folder1' in parents") {
				w.Write([]byte(`{"files":[{"id":"drvX","name":"other-file.mp4","size":"100","mimeType":"video/mp4"}]}`))
				return
			}
			w.Write([]byte(`{"files":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestGoogleProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "evt-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGoogleMeetProvider_MeetingRecordings_EventGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := newTestGoogleProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "gone")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGoogleMeetProvider_DownloadRecording_RewritesShareURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/drive/v3/files/share-id-42", r.URL.Path)
		require.Equal(t, "media", r.URL.Query().Get("alt"))
		w.Write([]byte("drive-bytes"))
	}))
	defer server.Close()

	p := newTestGoogleProvider(server.URL, server.Client())
	data, err := p.DownloadRecording(context.Background(), "tok", &RecordingFile{
		DownloadURL: "https://drive.google.com/file/d/share-id-42/view?usp=sharing",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("drive-bytes"), data)
}

func TestGoogleMeetProvider_ParseWebhookEvent(t *testing.T) {
	p := newTestGoogleProvider("http://unused", http.DefaultClient)

	t.Run("sync handshake", func(t *testing.T) {
		header := http.Header{}
		header.Set("x-goog-resource-state", "sync")
		header.Set("x-goog-channel-id", "chan1")

		event, err := p.ParseWebhookEvent(header, nil)
		require.NoError(t, err)
		assert.Equal(t, EventEndpointValidation, event.Type)
	})

	t.Run("change notification", func(t *testing.T) {
		header := http.Header{}
		header.Set("x-goog-resource-state", "exists")
		header.Set("x-goog-channel-id", "chan1")
		header.Set("x-goog-resource-id", "res1")

		event, err := p.ParseWebhookEvent(header, nil)
		require.NoError(t, err)
		assert.Equal(t, EventCalendarNotification, event.Type)
		// Calendar pushes never identify the account.
		assert.Empty(t, event.AccountID)
	})

	t.Run("missing headers rejected", func(t *testing.T) {
		_, err := p.ParseWebhookEvent(http.Header{}, nil)
		assert.Error(t, err)
	})
}
