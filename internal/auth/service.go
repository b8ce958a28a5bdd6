package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/akulov/storefront/internal/storage"
	"github.com/akulov/storefront/pkg/api"
	"github.com/akulov/storefront/pkg/pubsub"
	"github.com/go-playground/validator/v10"
)

// TopicChanged is published on every session change (login, logout,
// profile update). The event payload is *Session, nil after logout.
const TopicChanged = "auth.changed"

// Remote is the slice of the auth backend consumed by the Service.
// It is satisfied by *api.AuthAPI.
type Remote interface {
	Register(ctx context.Context, input any) api.Response
	Login(ctx context.Context, email, password string) api.Response
	Logout(ctx context.Context) api.Response
	Refresh(ctx context.Context, refreshToken string) api.Response
	Profile(ctx context.Context) api.Response
	UpdateProfile(ctx context.Context, input any) api.Response
	ChangePassword(ctx context.Context, current, next string) api.Response
	RequestPasswordReset(ctx context.Context, email string) api.Response
	ConfirmPasswordReset(ctx context.Context, token, password string) api.Response
	VerifyEmail(ctx context.Context, token string) api.Response
	ResendVerification(ctx context.Context, email string) api.Response
}

// Service is the session manager. Authentication is always authoritative:
// no session exists until the backend has issued one. The issued session is
// persisted locally so a restart keeps the customer signed in.
type Service struct {
	mu       sync.Mutex
	session  *Session
	store    *storage.Store
	remote   Remote
	broker   *pubsub.Broker
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(store *storage.Store, remote Remote, broker *pubsub.Broker, logger *slog.Logger) *Service {
	s := &Service{
		store:    store,
		remote:   remote,
		broker:   broker,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}

	var session Session
	if store.Get(storage.KeyUser, &session) && session.User.ID != "" {
		s.session = &session
		logger.Info("restored session", "user_id", session.User.ID)
	}
	return s
}

// Register creates an account and signs the customer in with the session
// the backend issues.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid registration input: %w", err)
	}

	resp := s.remote.Register(ctx, input)
	if !resp.Success {
		return nil, fmt.Errorf("registration failed: %s", resp.Message)
	}
	return s.adoptSession(resp)
}

// Login authenticates against the backend and persists the issued session.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	resp := s.remote.Login(ctx, email, password)
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, resp.Message)
	}
	return s.adoptSession(resp)
}

// Logout clears the local session. The backend call is best-effort: even
// when it fails the customer ends up signed out locally.
func (s *Service) Logout(ctx context.Context) {
	if resp := s.remote.Logout(ctx); !resp.Success {
		s.logger.WarnContext(ctx, "remote logout failed, clearing local session anyway", "message", resp.Message)
	}

	s.mu.Lock()
	s.session = nil
	s.store.Remove(storage.KeyUser)
	s.mu.Unlock()

	s.broker.Publish(TopicChanged, (*Session)(nil))
}

// Refresh exchanges the stored refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.session == nil || s.session.RefreshToken == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	refreshToken := s.session.RefreshToken
	s.mu.Unlock()

	resp := s.remote.Refresh(ctx, refreshToken)
	if !resp.Success {
		return fmt.Errorf("token refresh failed: %s", resp.Message)
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := resp.Decode(&tokens); err != nil {
		return fmt.Errorf("failed to decode refreshed tokens: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ErrNotAuthenticated
	}
	s.session.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		s.session.RefreshToken = tokens.RefreshToken
	}
	s.persistLocked()
	return nil
}

// Profile fetches the profile from the backend, falling back to the locally
// cached copy when the backend is unreachable.
func (s *Service) Profile(ctx context.Context) (*User, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	cached := s.session.User
	s.mu.Unlock()

	resp := s.remote.Profile(ctx)
	if !resp.Success {
		s.logger.WarnContext(ctx, "failed to fetch profile, serving cached copy", "message", resp.Message)
		return &cached, nil
	}
	var user User
	if err := resp.Decode(&user); err != nil {
		s.logger.WarnContext(ctx, "failed to decode profile, serving cached copy", "error", err)
		return &cached, nil
	}

	s.mu.Lock()
	if s.session != nil {
		s.session.User = user
		s.persistLocked()
	}
	s.mu.Unlock()
	return &user, nil
}

// UpdateProfile applies a profile change. The local copy is patched only
// after the backend accepts the update.
func (s *Service) UpdateProfile(ctx context.Context, input ProfileInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid profile input: %w", err)
	}
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	resp := s.remote.UpdateProfile(ctx, input)
	if !resp.Success {
		return nil, fmt.Errorf("profile update failed: %s", resp.Message)
	}
	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode updated profile: %w", err)
	}

	s.mu.Lock()
	if s.session != nil {
		s.session.User = user
		s.persistLocked()
	}
	s.mu.Unlock()

	s.publishSession()
	return &user, nil
}

// ChangePassword changes the account password. Nothing is cached locally,
// so this is a pure pass-through with authoritative semantics.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if resp := s.remote.ChangePassword(ctx, current, next); !resp.Success {
		return fmt.Errorf("password change failed: %s", resp.Message)
	}
	return nil
}

// RequestPasswordReset asks the backend to mail a reset token.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if resp := s.remote.RequestPasswordReset(ctx, email); !resp.Success {
		return fmt.Errorf("password reset request failed: %s", resp.Message)
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token for a new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if resp := s.remote.ConfirmPasswordReset(ctx, token, password); !resp.Success {
		return fmt.Errorf("password reset failed: %s", resp.Message)
	}
	return nil
}

// VerifyEmail redeems an email verification token and marks the cached
// profile verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if resp := s.remote.VerifyEmail(ctx, token); !resp.Success {
		return fmt.Errorf("email verification failed: %s", resp.Message)
	}

	s.mu.Lock()
	if s.session != nil {
		s.session.User.EmailVerified = true
		s.persistLocked()
	}
	s.mu.Unlock()
	return nil
}

// ResendVerification asks the backend to mail a fresh verification token.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if resp := s.remote.ResendVerification(ctx, email); !resp.Success {
		return fmt.Errorf("failed to resend verification: %s", resp.Message)
	}
	return nil
}

// CurrentUser returns the signed-in customer's cached profile, or nil.
func (s *Service) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	user := s.session.User
	return &user
}

// IsAuthenticated reports whether a session is present locally.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// AccessToken returns the current bearer token, or "" when signed out.
func (s *Service) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.AccessToken
}

func (s *Service) adoptSession(resp api.Response) (*User, error) {
	var session Session
	if err := resp.Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	s.mu.Lock()
	s.session = &session
	s.persistLocked()
	s.mu.Unlock()

	s.publishSession()
	user := session.User
	return &user, nil
}

func (s *Service) publishSession() {
	s.mu.Lock()
	var snapshot *Session
	if s.session != nil {
		copied := *s.session
		snapshot = &copied
	}
	s.mu.Unlock()
	s.broker.Publish(TopicChanged, snapshot)
}

func (s *Service) persistLocked() {
	s.store.Set(storage.KeyUser, s.session)
}
