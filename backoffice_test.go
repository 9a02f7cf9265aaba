package backoffice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap/zaptest"

	fiberadapter "github.com/cygnusgroup/backoffice/adapters/fiber"
	"github.com/cygnusgroup/backoffice/core"
)

type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]*Profile)}
}

func (m *memoryProfiles) FindByPrincipalID(_ context.Context, id string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryProfiles) FindByEmail(_ context.Context, email string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, core.ErrProfileNotFound
}

func (m *memoryProfiles) Insert(_ context.Context, p *Profile) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return nil, core.ErrStoreConflict
	}
	cp := *p
	m.profiles[p.ID] = &cp
	return p, nil
}

func (m *memoryProfiles) ReassignOwnedResources(context.Context, string, string) (int, error) {
	return 0, nil
}

func (m *memoryProfiles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *memoryProfiles) Atomically(_ context.Context, fn func(core.ProfileStore) error) error {
	return fn(m)
}

type staticVerifier struct {
	principal Principal
	secret    string
}

func (v *staticVerifier) Verify(_ context.Context, email, secret string) (*Principal, error) {
	if email != v.principal.Email || secret != v.secret {
		return nil, ErrInvalidCredentials
	}
	p := v.principal
	return &p, nil
}

func (v *staticVerifier) Revoke(context.Context, *Principal) error { return nil }

type activityLog struct {
	mu   sync.Mutex
	rows []Activity
}

func (a *activityLog) Record(_ context.Context, row *Activity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, *row)
	return nil
}

func (a *activityLog) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

func validConfig(app *fiber.App) Config {
	return Config{
		Profiles: newMemoryProfiles(),
		Verifier: &staticVerifier{
			principal: Principal{ID: "p-ana", Email: "ana@cygnus.cl", Name: "Ana"},
			secret:    "Sunset-Villa-42",
		},
		Sessions: NewInMemoryCache(CacheConfig{}),
		HTTP:     fiberadapter.New(app, fiberadapter.Config{}),
	}
}

// Requirement: New rejects a configuration missing a required port.
func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "no profile store", mutate: func(c *Config) { c.Profiles = nil }, wantErr: ErrProfileStoreRequired},
		{name: "no verifier", mutate: func(c *Config) { c.Verifier = nil }, wantErr: ErrVerifierRequired},
		{name: "no session store", mutate: func(c *Config) { c.Sessions = nil }, wantErr: ErrSessionStoreRequired},
		{name: "no http adapter", mutate: func(c *Config) { c.HTTP = nil }, wantErr: ErrHTTPAdapterRequired},
		{name: "valid", mutate: func(*Config) {}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			config := validConfig(fiber.New())
			test.mutate(&config)

			// Act
			b, err := New(config)

			// Assert
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, test.wantErr)
			}
			if err == nil {
				defer b.Close()
				if b.BasePath != defaultBasePath {
					t.Errorf("BasePath = %q, want %q", b.BasePath, defaultBasePath)
				}
				if b.SessionMaxAge() != 24*time.Hour {
					t.Errorf("SessionMaxAge() = %v, want 24h", b.SessionMaxAge())
				}
			}
		})
	}
}

// Requirement: a first login over HTTP creates the profile, issues a cookie
// session readable from GET /session, and records one activity row.
func TestBackoffice_LoginFlow(t *testing.T) {
	// Arrange
	app := fiber.New()
	config := validConfig(app)
	activity := &activityLog{}
	config.Activity = activity
	config.Logger = zaptest.NewLogger(t)
	b, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":" ANA@cygnus.cl ","password":"Sunset-Villa-42"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == fiberadapter.DefaultCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}

	profile, err := config.Profiles.FindByPrincipalID(context.Background(), "p-ana")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if profile.Role != core.RoleAgent || profile.DisplayName != "Ana" {
		t.Errorf("profile = %+v", profile)
	}

	sreq := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	sreq.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	sresp, err := app.Test(sreq)
	if err != nil || sresp.StatusCode != http.StatusOK {
		t.Fatalf("session = %v, %v", sresp, err)
	}
	defer sresp.Body.Close()
	var session Session
	if err := json.NewDecoder(sresp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID != "p-ana" || session.Email != "ana@cygnus.cl" {
		t.Errorf("session = %+v", session)
	}

	b.Close()
	if activity.Len() != 1 {
		t.Errorf("activity rows = %d, want 1", activity.Len())
	}
}

// Requirement: Purge drops expired in-memory sessions.
func TestBackoffice_Purge(t *testing.T) {
	// Arrange
	config := validConfig(fiber.New())
	config.SessionConfig = &SessionConfig{MaxAge: time.Millisecond}
	b, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()
	if _, err := b.Sessions.Create(context.Background(), &Session{ID: "p-ana"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	// Act
	n, err := b.Purge(context.Background())

	// Assert
	if err != nil || n != 1 {
		t.Errorf("Purge() = %d, %v, want 1, nil", n, err)
	}
}

type endpointList []Endpoint

func (l endpointList) GetEndpoints() []Endpoint { return l }

// Requirement: endpoints supplied in Config are mounted under the base path
// with the handler attached to the adapter, and conflicts abort New.
func TestNew_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		endpoints  endpointList
		wantErr    bool
		wantStatus int
	}{
		{
			name:       "mounted",
			endpoints:  endpointList{{Path: "/listings", Method: http.MethodGet, Metadata: core.EndpointMetadata{OperationID: "listings"}}},
			wantStatus: http.StatusOK,
		},
		{
			name:      "conflicts with login",
			endpoints: endpointList{{Path: "/login", Method: http.MethodPost, Metadata: core.EndpointMetadata{OperationID: "listings"}}},
			wantErr:   true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			app := fiber.New()
			config := validConfig(app)
			config.HTTP = fiberadapter.New(app, fiberadapter.Config{}).Handle("listings", func(c fiber.Ctx) error {
				return c.JSON(fiber.Map{"listings": []string{"L1"}})
			})
			config.Endpoints = []EndpointProvider{test.endpoints}

			// Act
			b, err := New(config)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, test.wantErr)
			}
			if err != nil {
				return
			}
			defer b.Close()
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/listings", nil))
			if err != nil || resp.StatusCode != test.wantStatus {
				t.Errorf("GET /auth/listings = %v, %v", resp, err)
			}
		})
	}
}

// Requirement: Protected guards application routes with the login session.
func TestBackoffice_Protected(t *testing.T) {
	// Arrange
	app := fiber.New()
	b, err := New(validConfig(app))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()
	mw, ok := b.Protected().(fiber.Handler)
	if !ok {
		t.Fatal("Protected() is not a fiber.Handler")
	}
	app.Get("/dashboard", mw, func(c fiber.Ctx) error { return c.SendString("ok") })

	// Act
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	// Assert
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
