package core

import (
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Profiles ProfileStore

	Verifier CredentialVerifier

	Sessions SessionStore

	HTTP HTTPAdapter

	// Optional config
	Endpoints     []EndpointProvider // mounted next to the login endpoints
	Activity      ActivityRecorder
	SessionConfig *SessionConfig
	CallTimeout   time.Duration
	LoginRedirect string
	BasePath      string
	Logger        *zap.Logger
}
