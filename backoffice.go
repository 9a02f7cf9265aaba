package backoffice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/pkg/cache"
	"github.com/cygnusgroup/backoffice/services"
)

// interfaces
type (
	ProfileStore       = core.ProfileStore
	SessionStore       = core.SessionStore
	CredentialVerifier = core.CredentialVerifier
	ActivityRecorder   = core.ActivityRecorder
	HTTPAdapter        = core.HTTPAdapter
	EndpointProvider   = core.EndpointProvider
)

// structs
type (
	Config        = core.Config
	SessionConfig = core.SessionConfig
	CacheConfig   = cache.Config
)

type (
	Principal = core.Principal
	Profile   = core.Profile
	Session   = core.Session
	Activity  = core.Activity
	Role      = core.Role
	Endpoint  = core.Endpoint
)

const (
	defaultBasePath = "/auth"
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = cache.NewInMemoryCache
	DefaultSessionConfig = core.DefaultSessionConfig
	BuildSession         = services.BuildSession
)

var (
	ErrInvalidCredentials  = core.ErrInvalidCredentials
	ErrProviderUnavailable = core.ErrProviderUnavailable
	ErrStoreUnavailable    = core.ErrStoreUnavailable
	ErrIntegrityViolation  = core.ErrIntegrityViolation
)

var (
	ErrMissingSession  = core.ErrMissingSession
	ErrInvalidToken    = core.ErrInvalidToken
	ErrSessionNotFound = core.ErrSessionNotFound
	ErrSessionExpired  = core.ErrSessionExpired
)

var (
	ErrEmailRequired    = core.ErrEmailRequired
	ErrPasswordRequired = core.ErrPasswordRequired
)

var (
	ErrProfileStoreRequired = core.ErrProfileStoreRequired
	ErrVerifierRequired     = core.ErrVerifierRequired
	ErrSessionStoreRequired = core.ErrSessionStoreRequired
	ErrHTTPAdapterRequired  = core.ErrHTTPAdapterRequired
)

// Backoffice wires the login pipeline and owns its background writers.
type Backoffice struct {
	Login      *services.LoginService
	Sessions   *services.SessionManager
	Reconciler *services.Reconciler
	BasePath   string

	http     HTTPAdapter
	recorder *services.AsyncRecorder
	logger   *zap.Logger
}

func New(config Config) (*Backoffice, error) {
	if config.Profiles == nil {
		return nil, ErrProfileStoreRequired
	}
	if config.Verifier == nil {
		return nil, ErrVerifierRequired
	}
	if config.Sessions == nil {
		return nil, ErrSessionStoreRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		defaults := DefaultSessionConfig()
		sessionConfig = &defaults
	}

	callTimeout := config.CallTimeout
	if callTimeout <= 0 {
		callTimeout = services.DefaultCallTimeout
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backoffice{
		BasePath: basePath,
		http:     config.HTTP,
		logger:   logger,
	}

	b.Reconciler = services.NewReconciler(config.Profiles, config.Verifier, callTimeout, logger.Named("reconciler"))
	b.Sessions = services.NewSessionManager(*sessionConfig, config.Sessions)

	var activity core.ActivityRecorder
	if config.Activity != nil {
		b.recorder = services.NewAsyncRecorder(config.Activity, callTimeout, logger.Named("activity"))
		activity = b.recorder
	}

	b.Login = services.NewLoginService(
		config.Verifier,
		b.Reconciler,
		b.Sessions,
		activity,
		services.LoginConfig{Redirect: config.LoginRedirect, CallTimeout: callTimeout},
		logger.Named("login"),
	)

	registry := services.NewEndpointRegistry()
	for _, p := range config.Endpoints {
		if err := registry.Register(p); err != nil {
			b.Close()
			return nil, err
		}
	}

	if err := config.HTTP.RegisterRoutes(b.Login, registry.Endpoints(), basePath, b.Sessions.MaxAge()); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

// Protected returns the adapter's middleware guarding application routes.
func (b *Backoffice) Protected() any {
	return b.http.BuildProtectedMiddleware(b.Login)
}

// Purge removes expired sessions when the session store supports it.
func (b *Backoffice) Purge(ctx context.Context) (int, error) {
	n, err := b.Sessions.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		b.logger.Debug("purged expired sessions", zap.Int("count", n))
	}
	return n, nil
}

// Close waits for pending activity writes.
func (b *Backoffice) Close() {
	if b.recorder != nil {
		b.recorder.Close()
	}
}

// SessionMaxAge is the lifetime of issued sessions and their cookie.
func (b *Backoffice) SessionMaxAge() time.Duration {
	return b.Sessions.MaxAge()
}
