package usecases

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/migrations"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/repository"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testEnv wires the use cases against sqlite-backed repositories, a fake
// provider and an in-memory recording store.
type testEnv struct {
	connRepo      platform.ConnectionRepository
	recordRepo    platform.RecordRepository
	meetingRepo   meeting.Repository
	recordingRepo meeting.RecordingRepository
	cipher        *crypto.TokenCipher
	provider      *fakeProvider
	registry      *providers.Registry
	store         *fakeStore
	tokens        *TokenService
	sync          *SyncMeetingsUseCase
	linker        *MeetingLinker
	pipeline      *ProcessRecordingsUseCase
}

func newTestEnv(t *testing.T, p platform.Platform) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, migrations.MigratePlatformTables(db))
	require.NoError(t, migrations.MigrateMeetingTables(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := testLogger()
	cipher, err := crypto.NewTokenCipher("test-key", log)
	require.NoError(t, err)

	prov := newFakeProvider(p)
	registry := providers.NewRegistry(prov)

	connRepo := repository.NewPlatformConnectionRepository(db)
	recordRepo := repository.NewMeetingRecordRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	recordingRepo := repository.NewMeetingRecordingRepository(db)

	tokens := NewTokenService(connRepo, registry, cipher, log)
	sync := NewSyncMeetingsUseCase(connRepo, recordRepo, registry, tokens, log)
	linker := NewMeetingLinker(meetingRepo, recordingRepo, log)
	store := &fakeStore{bucket: "test-bucket", objects: map[string][]byte{}}
	pipeline := NewProcessRecordingsUseCase(connRepo, recordRepo, registry, tokens, store, linker, log)

	return &testEnv{
		connRepo:      connRepo,
		recordRepo:    recordRepo,
		meetingRepo:   meetingRepo,
		recordingRepo: recordingRepo,
		cipher:        cipher,
		provider:      prov,
		registry:      registry,
		store:         store,
		tokens:        tokens,
		sync:          sync,
		linker:        linker,
		pipeline:      pipeline,
	}
}

// seedConnection stores an active connection with encrypted tokens whose
// expiry sits comfortably in the future.
func (e *testEnv) seedConnection(t *testing.T, userID uint, p platform.Platform) *platform.Connection {
	t.Helper()

	conn, err := platform.NewConnection(userID, p, "rep@acme.com", "Rep", "acct-1")
	require.NoError(t, err)

	accessEnc, err := e.cipher.Encrypt("access-token")
	require.NoError(t, err)
	refreshEnc, err := e.cipher.Encrypt("refresh-token")
	require.NoError(t, err)
	expiry := time.Now().UTC().Add(time.Hour)
	conn.SetTokens(accessEnc, refreshEnc, &expiry, "scope")

	require.NoError(t, e.connRepo.Create(context.Background(), conn))
	return conn
}

// fakeProvider implements providers.Provider with overridable hooks.
type fakeProvider struct {
	platform platform.Platform

	refreshCalls int
	refreshFn    func(refreshToken string) (*providers.TokenSet, error)
	listFn       func(since time.Time) ([]*providers.Meeting, error)
	recordingsFn func(platformMeetingID string) (*providers.Recording, error)
	downloadFn   func(file *providers.RecordingFile) ([]byte, error)
}

func newFakeProvider(p platform.Platform) *fakeProvider {
	return &fakeProvider{platform: p}
}

func (f *fakeProvider) Platform() platform.Platform { return f.platform }

func (f *fakeProvider) OAuthURL(state string) string {
	return "https://example.com/authorize?state=" + state
}

func (f *fakeProvider) ExchangeAuthCode(ctx context.Context, code string) (*providers.TokenSet, error) {
	expiry := time.Now().UTC().Add(time.Hour)
	return &providers.TokenSet{
		AccessToken:  "exchanged-access",
		RefreshToken: "exchanged-refresh",
		ExpiresAt:    &expiry,
		Scope:        "scope",
	}, nil
}

func (f *fakeProvider) RefreshAccessToken(ctx context.Context, refreshToken string) (*providers.TokenSet, error) {
	f.refreshCalls++
	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	expiry := time.Now().UTC().Add(time.Hour)
	return &providers.TokenSet{
		AccessToken:  "refreshed-access",
		RefreshToken: "rotated-refresh",
		ExpiresAt:    &expiry,
	}, nil
}

func (f *fakeProvider) UserInfo(ctx context.Context, accessToken string) (*providers.AccountInfo, error) {
	return &providers.AccountInfo{ID: "acct-1", Email: "rep@acme.com", Name: "Rep"}, nil
}

func (f *fakeProvider) ListRecentMeetings(ctx context.Context, accessToken string, since time.Time) ([]*providers.Meeting, error) {
	if f.listFn != nil {
		return f.listFn(since)
	}
	return nil, nil
}

func (f *fakeProvider) MeetingRecordings(ctx context.Context, accessToken, platformMeetingID string) (*providers.Recording, error) {
	if f.recordingsFn != nil {
		return f.recordingsFn(platformMeetingID)
	}
	return nil, nil
}

func (f *fakeProvider) DownloadRecording(ctx context.Context, accessToken string, file *providers.RecordingFile) ([]byte, error) {
	if f.downloadFn != nil {
		return f.downloadFn(file)
	}
	return []byte("media-bytes"), nil
}

func (f *fakeProvider) RegisterWebhook(ctx context.Context, accessToken, callbackURL string) (*providers.WebhookSubscription, error) {
	return nil, nil
}

func (f *fakeProvider) UnregisterWebhook(ctx context.Context, accessToken, subscriptionID string) error {
	return nil
}

func (f *fakeProvider) VerifyWebhookSignature(header http.Header, body []byte) bool { return true }

func (f *fakeProvider) ParseWebhookEvent(header http.Header, body []byte) (*providers.WebhookEvent, error) {
	return nil, nil
}

// fakeStore keeps uploads in memory.
type fakeStore struct {
	bucket  string
	objects map[string][]byte
	fail    bool
}

func (s *fakeStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.fail {
		return "", io.ErrUnexpectedEOF
	}
	s.objects[key] = data
	return key, nil
}

func (s *fakeStore) Bucket() string { return s.bucket }
