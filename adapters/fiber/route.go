package fiber

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/cygnusgroup/backoffice/core"
)

const DefaultCookieName = "backoffice_session"

type Config struct {
	CookieName   string
	CookieSecure bool
}

type Adapter struct {
	app      *fiber.App
	config   Config
	maxAge   time.Duration
	handlers map[string]fiber.Handler // by OperationID, for endpoints outside the login surface
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App, config Config) *Adapter {
	if config.CookieName == "" {
		config.CookieName = DefaultCookieName
	}
	return &Adapter{app: app, config: config, handlers: make(map[string]fiber.Handler)}
}

// Handle attaches h to the endpoint with the given OperationID. Call it
// before RegisterRoutes.
func (a *Adapter) Handle(operationID string, h fiber.Handler) *Adapter {
	a.handlers[operationID] = h
	return a
}

// RegisterRoutes mounts endpoints under basePath. Protected endpoints run
// behind the session middleware.
func (a *Adapter) RegisterRoutes(handler core.AuthHandler, endpoints []core.Endpoint, basePath string, ttl time.Duration) error {
	a.maxAge = ttl

	handlers := map[string]fiber.Handler{
		"login":      a.login(handler),
		"logout":     a.logout(handler),
		"getSession": a.session,
		"health":     a.health,
	}
	for id, h := range a.handlers {
		if _, builtin := handlers[id]; builtin {
			return fmt.Errorf("operation %q is served by the adapter", id)
		}
		handlers[id] = h
	}
	protected := a.protected(handler)

	for _, ep := range endpoints {
		if _, ok := handlers[ep.Metadata.OperationID]; !ok {
			return fmt.Errorf("no handler for endpoint %s %s (operation %q)", ep.Method, ep.Path, ep.Metadata.OperationID)
		}
	}

	api := a.app.Group(basePath)
	for _, ep := range endpoints {
		h := handlers[ep.Metadata.OperationID]
		if ep.Metadata.Protected {
			api.Add([]string{ep.Method}, ep.Path, protected, h)
		} else {
			api.Add([]string{ep.Method}, ep.Path, h)
		}
	}

	return nil
}
