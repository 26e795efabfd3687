package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

func newTestTeamsProvider(serverURL string, client *http.Client) *TeamsProvider {
	return &TeamsProvider{
		oauth:      &oauth2.Config{ClientID: "cid", ClientSecret: "secret"},
		apiBaseURL: serverURL,
		httpClient: client,
		logger:     logger.NewLogger(),
	}
}

func TestTeamsProvider_ListRecentMeetings_ForbiddenFallsBackToCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/onlineMeetings":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":"Forbidden"}}`))
		case "/me/calendarView":
			w.Write([]byte(`{"value":[
				{"id":"ev1","subject":"Team standup","start":{"dateTime":"2026-08-20T10:00:00.0000000"},"end":{"dateTime":"2026-08-20T10:30:00.0000000"},"onlineMeeting":{"joinUrl":"https://teams.microsoft.com/l/meetup-join/abc"},"organizer":{"emailAddress":{"address":"rep@acme.com"}}},
				{"id":"ev2","subject":"Lunch","start":{"dateTime":"2026-08-20T12:00:00.0000000"},"end":{"dateTime":"2026-08-20T13:00:00.0000000"}},
				{"id":"ev3","subject":"Zoom call elsewhere","onlineMeeting":{"joinUrl":"https://zoom.us/j/99"}}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestTeamsProvider(server.URL, server.Client())
	meetings, err := p.ListRecentMeetings(context.Background(), "tok", time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)

	// Only the event with a Teams join URL survives the filter.
	require.Len(t, meetings, 1)
	assert.Equal(t, "ev1", meetings[0].PlatformMeetingID)
	assert.Equal(t, "Team standup", meetings[0].Title)
	assert.Equal(t, "rep@acme.com", meetings[0].HostEmail)
	assert.Equal(t, 1800, meetings[0].DurationSeconds)
}

func TestTeamsProvider_ListRecentMeetings_DedupesByJoinURL(t *testing.T) {
	joinURL := "https://teams.microsoft.com/l/meetup-join/abc"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/onlineMeetings":
			w.Write([]byte(`{"value":[
				{"id":"om1","subject":"Quarterly review","startDateTime":"2026-08-20T10:00:00Z","endDateTime":"2026-08-20T11:00:00Z","joinWebUrl":"` + joinURL + `"}
			]}`))
		case "/me/calendarView":
			w.Write([]byte(`{"value":[
				{"id":"ev1","subject":"Quarterly review","onlineMeeting":{"joinUrl":"` + joinURL + `"}},
				{"id":"ev2","subject":"Kickoff","onlineMeeting":{"joinUrl":"https://teams.microsoft.com/l/meetup-join/def"}}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestTeamsProvider(server.URL, server.Client())
	meetings, err := p.ListRecentMeetings(context.Background(), "tok", time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)

	require.Len(t, meetings, 2)
	assert.Equal(t, "om1", meetings[0].PlatformMeetingID)
	assert.Equal(t, "ev2", meetings[1].PlatformMeetingID)
}

func TestTeamsProvider_MeetingRecordings_OneDriveFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/onlineMeetings/om1/recordings":
			w.Write([]byte(`{"value":[]}`))
		case "/me/drive/root:/Recordings:/children":
			w.Write([]byte(`{"value":[
				{"id":"d1","name":"Quarterly review-om1-20260820.mp4","size":2048,"@microsoft.graph.downloadUrl":"https://download.example/d1","file":{"mimeType":"video/mp4"}},
				{"id":"d2","name":"All hands-om9.mp4","size":4096,"@microsoft.graph.downloadUrl":"https://download.example/d2","file":{"mimeType":"video/mp4"}},
				{"id":"d3","name":"notes.docx","file":{"mimeType":"application/vnd.openxmlformats"}}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestTeamsProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "om1")
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.Len(t, rec.Files, 1)
	assert.Equal(t, "d1", rec.Files[0].ID)
	assert.Equal(t, "mp4", rec.Files[0].Extension)
	assert.Equal(t, int64(2048), rec.Files[0].SizeBytes)
}

func TestTeamsProvider_MeetingRecordings_FallbackSkipsOtherMeetings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/onlineMeetings/om1/recordings":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"NotFound"}}`))
		case "/me/drive/root:/Recordings:/children":
			w.Write([]byte(`{"value":[
				{"id":"d9","name":"Weekly All Hands-20240101.mp4","size":8192,"@microsoft.graph.downloadUrl":"https://download.example/d9","file":{"mimeType":"video/mp4"}}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	p := newTestTeamsProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "om1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTeamsProvider_MeetingRecordings_RecordingsAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/onlineMeetings/om1/recordings", r.URL.Path)
		w.Write([]byte(`{"value":[
			{"id":"r1","createdDateTime":"2026-08-20T11:05:00Z","recordingContentUrl":"https://graph.microsoft.com/v1.0/me/onlineMeetings/om1/recordings/r1/content"}
		]}`))
	}))
	defer server.Close()

	p := newTestTeamsProvider(server.URL, server.Client())
	rec, err := p.MeetingRecordings(context.Background(), "tok", "om1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, "r1", rec.PlatformRecordingID)
}

func TestTeamsProvider_ParseWebhookEvent(t *testing.T) {
	p := newTestTeamsProvider("http://unused", http.DefaultClient)

	body := []byte(`{"value":[{"subscriptionId":"sub1","changeType":"created","resource":"users/user-guid/onlineMeetings/om1","resourceData":{"id":"om1"}}]}`)
	event, err := p.ParseWebhookEvent(http.Header{}, body)
	require.NoError(t, err)

	assert.Equal(t, EventRecordingCompleted, event.Type)
	assert.Equal(t, "user-guid", event.AccountID)
	assert.Equal(t, "om1", event.PlatformMeetingID)
}

func TestGraphResourceUserID(t *testing.T) {
	assert.Equal(t, "guid-1", graphResourceUserID("users/guid-1/onlineMeetings/om1"))
	assert.Equal(t, "guid-2", graphResourceUserID("/Users/guid-2/onlineMeetings/om1"))
	assert.Equal(t, "", graphResourceUserID("communications/callRecords/abc"))
}
