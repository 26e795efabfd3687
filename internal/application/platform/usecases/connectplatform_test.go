package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
)

func newConnectUseCase(env *testEnv) *ConnectPlatformUseCase {
	return NewConnectPlatformUseCase(env.connRepo, env.registry, env.cipher, "", testLogger())
}

func TestGetOAuthURL_StateRoundTrip(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	uc := NewGetOAuthURLUseCase(env.registry, testLogger())

	result, err := uc.Execute(GetOAuthURLCommand{Platform: "zoom"})
	require.NoError(t, err)
	assert.Contains(t, result.URL, "state="+result.State)

	st, err := decodeOAuthState(result.State)
	require.NoError(t, err)
	assert.Equal(t, "zoom", st.Platform)
	assert.NotEmpty(t, st.Nonce)
}

func TestGetOAuthURL_UnknownPlatform(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	uc := NewGetOAuthURLUseCase(env.registry, testLogger())

	_, err := uc.Execute(GetOAuthURLCommand{Platform: "webex"})
	require.Error(t, err)

	// Valid platform without a configured adapter.
	_, err = uc.Execute(GetOAuthURLCommand{Platform: "teams"})
	require.Error(t, err)
}

func TestConnectPlatform_CreatesConnection(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	uc := newConnectUseCase(env)

	result, err := uc.Execute(context.Background(), ConnectPlatformCommand{
		UserID:   1,
		Platform: "zoom",
		Code:     "auth-code",
	})
	require.NoError(t, err)
	assert.Equal(t, "rep@acme.com", result.Connection.AccountEmail)
	assert.Equal(t, "active", result.Connection.Status)

	stored, err := env.connRepo.GetByUserAndPlatform(context.Background(), 1, platform.PlatformZoom)
	require.NoError(t, err)
	require.NotNil(t, stored)

	// Tokens are stored encrypted, never verbatim.
	assert.NotEqual(t, "exchanged-access", stored.AccessTokenEncrypted)
	access, err := env.cipher.Decrypt(stored.AccessTokenEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "exchanged-access", access)
}

func TestConnectPlatform_ReconnectUpserts(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	uc := newConnectUseCase(env)

	first, err := uc.Execute(context.Background(), ConnectPlatformCommand{UserID: 1, Platform: "zoom", Code: "c1"})
	require.NoError(t, err)

	// Simulate a dead connection, then re-connect.
	conn, err := env.connRepo.GetByID(context.Background(), first.Connection.ID)
	require.NoError(t, err)
	conn.MarkTokenExpired("refresh failed")
	require.NoError(t, env.connRepo.Update(context.Background(), conn))

	second, err := uc.Execute(context.Background(), ConnectPlatformCommand{UserID: 1, Platform: "zoom", Code: "c2"})
	require.NoError(t, err)
	assert.Equal(t, first.Connection.ID, second.Connection.ID)
	assert.Equal(t, "active", second.Connection.Status)

	conns, err := env.connRepo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, conns, 1)
}

func TestConnectPlatform_StateMismatchRejected(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	uc := newConnectUseCase(env)

	state, err := encodeOAuthState(platform.PlatformTeams)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), ConnectPlatformCommand{
		UserID:   1,
		Platform: "zoom",
		Code:     "auth-code",
		State:    state,
	})
	require.Error(t, err)
}

func TestUpdateConnection_Flags(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	uc := NewUpdateConnectionUseCase(env.connRepo, testLogger())

	off := false
	on := true
	result, err := uc.Execute(context.Background(), UpdateConnectionCommand{
		UserID:              1,
		ConnectionID:        conn.ID,
		AutoFetchRecordings: &off,
		AutoTranscribe:      &on,
	})
	require.NoError(t, err)
	assert.False(t, result.Connection.AutoFetchRecordings)
	assert.True(t, result.Connection.AutoTranscribe)
	assert.False(t, result.Connection.AutoSendSummary)
}

func TestDisconnectPlatform_RemovesConnectionAndRecords(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	seedPendingRecord(t, env, conn, "m-1")

	uc := NewDisconnectPlatformUseCase(env.connRepo, env.registry, env.tokens, testLogger())
	require.NoError(t, uc.Execute(context.Background(), DisconnectPlatformCommand{UserID: 1, ConnectionID: conn.ID}))

	gone, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	records, err := env.recordRepo.ListByConnection(context.Background(), conn.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDisconnectPlatform_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	uc := NewDisconnectPlatformUseCase(env.connRepo, env.registry, env.tokens, testLogger())
	err := uc.Execute(context.Background(), DisconnectPlatformCommand{UserID: 2, ConnectionID: conn.ID})
	require.Error(t, err)
}
