package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/akulov/storefront/internal/storage"
	"github.com/akulov/storefront/pkg/api"
	"github.com/akulov/storefront/pkg/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRemote is a mock implementation of the Remote interface. The zero
// value fails every call.
type mockRemote struct {
	registerResp  api.Response
	registerCalls int
	loginResp     api.Response
	logoutResp    api.Response
	logoutCalls   int
	refreshResp   api.Response
	profileResp   api.Response
	updateResp    api.Response
	passwordResp  api.Response
	resetResp     api.Response
	confirmResp   api.Response
	verifyResp    api.Response
	resendResp    api.Response
}

func (m *mockRemote) Register(_ context.Context, _ any) api.Response {
	m.registerCalls++
	return m.registerResp
}
func (m *mockRemote) Login(_ context.Context, _, _ string) api.Response { return m.loginResp }
func (m *mockRemote) Logout(_ context.Context) api.Response {
	m.logoutCalls++
	return m.logoutResp
}
func (m *mockRemote) Refresh(_ context.Context, _ string) api.Response { return m.refreshResp }
func (m *mockRemote) Profile(_ context.Context) api.Response           { return m.profileResp }
func (m *mockRemote) UpdateProfile(_ context.Context, _ any) api.Response {
	return m.updateResp
}
func (m *mockRemote) ChangePassword(_ context.Context, _, _ string) api.Response {
	return m.passwordResp
}
func (m *mockRemote) RequestPasswordReset(_ context.Context, _ string) api.Response {
	return m.resetResp
}
func (m *mockRemote) ConfirmPasswordReset(_ context.Context, _, _ string) api.Response {
	return m.confirmResp
}
func (m *mockRemote) VerifyEmail(_ context.Context, _ string) api.Response { return m.verifyResp }
func (m *mockRemote) ResendVerification(_ context.Context, _ string) api.Response {
	return m.resendResp
}

func successResponse(t *testing.T, v any) api.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return api.Response{Success: true, Data: data}
}

func testSession() Session {
	return Session{
		User:         User{ID: "u1", Email: "pat@example.com", FirstName: "Pat", LastName: "Winters"},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}
}

type fixture struct {
	service *Service
	remote  *mockRemote
	store   *storage.Store
	broker  *pubsub.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store := storage.NewStore(t.TempDir(), logger)
	remote := &mockRemote{}
	broker := pubsub.NewBroker()
	return &fixture{
		service: NewService(store, remote, broker, logger),
		remote:  remote,
		store:   store,
		broker:  broker,
	}
}

func Test_Login_PersistsIssuedSession(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())

	user, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, f.service.IsAuthenticated())
	assert.Equal(t, "access-1", f.service.AccessToken())

	// A fresh service over the same store restores the session.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	restored := NewService(f.store, f.remote, pubsub.NewBroker(), logger)
	require.True(t, restored.IsAuthenticated())
	assert.Equal(t, "u1", restored.CurrentUser().ID)
}

func Test_Login_FailureLeavesNoSession(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = api.Response{Success: false, Message: "bad password"}

	_, err := f.service.Login(context.Background(), "pat@example.com", "nope")

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, f.service.IsAuthenticated())
	assert.Nil(t, f.service.CurrentUser())
}

func Test_Register_ValidatesInputBeforeRemoteCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
	})

	require.Error(t, err)
	assert.Equal(t, 0, f.remote.registerCalls)
}

func Test_Register_SignsInWithIssuedSession(t *testing.T) {
	f := newFixture(t)
	f.remote.registerResp = successResponse(t, testSession())

	user, err := f.service.Register(context.Background(), RegisterInput{
		Email:     "pat@example.com",
		Password:  "hunter2222",
		FirstName: "Pat",
		LastName:  "Winters",
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, f.service.IsAuthenticated())
}

func Test_Logout_ClearsLocalSessionEvenWhenRemoteFails(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())
	_, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")
	require.NoError(t, err)

	var published []*Session
	f.broker.Subscribe(TopicChanged, func(payload any) {
		published = append(published, payload.(*Session))
	})

	f.remote.logoutResp = api.Response{Success: false, Message: "unreachable"}
	f.service.Logout(context.Background())

	assert.Equal(t, 1, f.remote.logoutCalls)
	assert.False(t, f.service.IsAuthenticated())
	assert.Equal(t, "", f.service.AccessToken())
	require.Len(t, published, 1)
	assert.Nil(t, published[0])

	var leftover Session
	assert.False(t, f.store.Get(storage.KeyUser, &leftover))
}

func Test_Profile_ServesCachedCopyWhenRemoteFails(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())
	_, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")
	require.NoError(t, err)

	f.remote.profileResp = api.Response{Success: false, Message: "unreachable"}
	user, err := f.service.Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", user.Email)
}

func Test_Profile_RefreshesCacheFromRemote(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())
	_, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")
	require.NoError(t, err)

	f.remote.profileResp = successResponse(t, User{ID: "u1", Email: "pat@example.com", FirstName: "Patricia"})
	user, err := f.service.Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Patricia", user.FirstName)
	assert.Equal(t, "Patricia", f.service.CurrentUser().FirstName)
}

func Test_Profile_RequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Profile(context.Background())

	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func Test_UpdateProfile_FailureLeavesCacheUntouched(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())
	_, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")
	require.NoError(t, err)

	f.remote.updateResp = api.Response{Success: false, Message: "conflict"}
	_, err = f.service.UpdateProfile(context.Background(), ProfileInput{FirstName: "Patricia"})

	require.ErrorContains(t, err, "conflict")
	assert.Equal(t, "Pat", f.service.CurrentUser().FirstName)
}

func Test_Refresh_RotatesTokens(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())
	_, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")
	require.NoError(t, err)

	f.remote.refreshResp = successResponse(t, map[string]string{
		"access_token":  "access-2",
		"refresh_token": "refresh-2",
	})
	require.NoError(t, f.service.Refresh(context.Background()))

	assert.Equal(t, "access-2", f.service.AccessToken())
}

func Test_Refresh_RequiresSession(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.service.Refresh(context.Background()), ErrNotAuthenticated)
}

func Test_VerifyEmail_MarksCachedProfileVerified(t *testing.T) {
	f := newFixture(t)
	f.remote.loginResp = successResponse(t, testSession())
	_, err := f.service.Login(context.Background(), "pat@example.com", "hunter22")
	require.NoError(t, err)

	f.remote.verifyResp = successResponse(t, map[string]bool{"verified": true})
	require.NoError(t, f.service.VerifyEmail(context.Background(), "token-1"))

	assert.True(t, f.service.CurrentUser().EmailVerified)
}

func Test_ChangePassword_RequiresSession(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.service.ChangePassword(context.Background(), "old", "new"), ErrNotAuthenticated)
}
