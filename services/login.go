package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cygnusgroup/backoffice/core"
)

const DefaultLoginRedirect = "/dashboard"

// Field names and messages shown by the login form.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldForm     = "form"

	MsgMissingFields      = "Please enter your email and password."
	MsgInvalidCredentials = "Invalid email or password."
	MsgProviderDown       = "Could not reach the sign-in service. Please try again."
	MsgAccountError       = "There was a problem with your account. Please contact an administrator."
)

type LoginConfig struct {
	Redirect    string
	CallTimeout time.Duration
}

// LoginService runs verify, reconcile and session issue for the login form.
type LoginService struct {
	verifier   core.CredentialVerifier
	reconciler *Reconciler
	sessions   *SessionManager
	activity   core.ActivityRecorder // optional
	config     LoginConfig
	logger     *zap.Logger
}

// Ensure LoginService implements AuthHandler
var _ core.AuthHandler = (*LoginService)(nil)

func NewLoginService(
	verifier core.CredentialVerifier,
	reconciler *Reconciler,
	sessions *SessionManager,
	activity core.ActivityRecorder,
	config LoginConfig,
	logger *zap.Logger,
) *LoginService {
	if config.Redirect == "" {
		config.Redirect = DefaultLoginRedirect
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{
		verifier:   verifier,
		reconciler: reconciler,
		sessions:   sessions,
		activity:   activity,
		config:     config,
		logger:     logger,
	}
}

// Login always returns a result suitable for the form. On failure the error
// carries the sentinel used to pick the HTTP status.
func (s *LoginService) Login(ctx context.Context, input core.LoginInput) (*core.LoginResult, error) {
	email := core.NormalizeEmail(input.Email)
	switch {
	case email == "":
		return failure(core.ErrEmailRequired)
	case input.Password == "":
		return failure(core.ErrPasswordRequired)
	}

	principal, err := s.verify(ctx, email, input.Password)
	if err != nil {
		if !errors.Is(err, core.ErrInvalidCredentials) {
			s.logger.Warn("credential verification failed", zap.Error(err))
		}
		return failure(err)
	}

	// Verified: finish or revoke regardless of the caller going away.
	detached := context.WithoutCancel(ctx)

	profile, err := s.reconciler.Reconcile(detached, principal)
	if err != nil {
		return failure(err)
	}

	session := BuildSession(profile)

	sctx, cancel := context.WithTimeout(detached, s.config.CallTimeout)
	token, err := s.sessions.Create(sctx, &session)
	cancel()
	if err != nil {
		s.logger.Error("session store write failed",
			zap.String("profile_id", profile.ID),
			zap.Error(err),
		)
		s.reconciler.Revoke(detached, principal)
		return failure(fmt.Errorf("create session: %w: %w", core.ErrStoreUnavailable, err))
	}

	if s.activity != nil {
		if err := s.activity.Record(detached, loginActivity(profile)); err != nil {
			s.logger.Warn("activity record failed",
				zap.String("user_id", profile.ID),
				zap.String("action", ActionLogin),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("login succeeded",
		zap.String("principal_id", principal.ID),
		zap.String("profile_id", profile.ID),
	)

	return &core.LoginResult{
		Success:  true,
		Redirect: s.config.Redirect,
		Session:  &session,
		Token:    token,
	}, nil
}

func (s *LoginService) verify(ctx context.Context, email, secret string) (*core.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	principal, err := s.verifier.Verify(ctx, email, secret)
	switch {
	case err == nil:
		return principal, nil
	case errors.Is(err, core.ErrInvalidCredentials), errors.Is(err, core.ErrProviderUnavailable):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}
}

// Logout is idempotent; a missing token is not an error.
func (s *LoginService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}

func (s *LoginService) GetSession(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrMissingSession
	}
	return s.sessions.Verify(ctx, token)
}

func failure(err error) (*core.LoginResult, error) {
	result := &core.LoginResult{Success: false}

	switch {
	case errors.Is(err, core.ErrEmailRequired):
		result.Field, result.Message = FieldEmail, MsgMissingFields
	case errors.Is(err, core.ErrPasswordRequired):
		result.Field, result.Message = FieldPassword, MsgMissingFields
	case errors.Is(err, core.ErrInvalidCredentials):
		result.Field, result.Message = FieldPassword, MsgInvalidCredentials
	case errors.Is(err, core.ErrProviderUnavailable):
		result.Field, result.Message = FieldForm, MsgProviderDown
	default:
		result.Field, result.Message = FieldForm, MsgAccountError
	}

	return result, err
}
