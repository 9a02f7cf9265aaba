package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/pkg/crypto"
)

// FakeProfileStore is a test-only ProfileStore with a listings table,
// uniqueness on id and email, and error injection per operation.
type FakeProfileStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	profiles map[string]*core.Profile
	listings map[string]string // listing id -> agent id
	writes   int

	findIDErr    error
	findEmailErr error
	insertErr    error
	reassignErr  error
	deleteErr    error
}

var _ core.ProfileStore = (*FakeProfileStore)(nil)

func NewFakeProfileStore() *FakeProfileStore {
	return &FakeProfileStore{
		profiles: make(map[string]*core.Profile),
		listings: make(map[string]string),
	}
}

func (f *FakeProfileStore) seed(p *core.Profile, listingIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.ID] = &cp
	for _, id := range listingIDs {
		f.listings[id] = p.ID
	}
}

func (f *FakeProfileStore) FindByPrincipalID(_ context.Context, id string) (*core.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findIDErr != nil {
		return nil, f.findIDErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeProfileStore) FindByEmail(_ context.Context, email string) (*core.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findEmailErr != nil {
		return nil, f.findEmailErr
	}
	for _, p := range f.profiles {
		if core.NormalizeEmail(p.Email) == core.NormalizeEmail(email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, core.ErrProfileNotFound
}

func (f *FakeProfileStore) Insert(_ context.Context, p *core.Profile) (*core.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if _, exists := f.profiles[p.ID]; exists {
		return nil, core.ErrStoreConflict
	}
	for _, existing := range f.profiles {
		if core.NormalizeEmail(existing.Email) == core.NormalizeEmail(p.Email) {
			return nil, core.ErrStoreConflict
		}
	}
	f.writes++
	cp := *p
	f.profiles[p.ID] = &cp
	out := cp
	return &out, nil
}

func (f *FakeProfileStore) ReassignOwnedResources(_ context.Context, oldID, newID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reassignErr != nil {
		return 0, f.reassignErr
	}
	n := 0
	for id, owner := range f.listings {
		if owner == oldID {
			f.listings[id] = newID
			n++
		}
	}
	if n > 0 {
		f.writes++
	}
	return n, nil
}

func (f *FakeProfileStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.profiles[id]; ok {
		delete(f.profiles, id)
		f.writes++
	}
	return nil
}

// Atomically serializes transactions and restores a snapshot when fn fails.
func (f *FakeProfileStore) Atomically(_ context.Context, fn func(core.ProfileStore) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	profiles := make(map[string]*core.Profile, len(f.profiles))
	for k, v := range f.profiles {
		profiles[k] = v
	}
	listings := make(map[string]string, len(f.listings))
	for k, v := range f.listings {
		listings[k] = v
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.profiles, f.listings = profiles, listings
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *FakeProfileStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FakeProfileStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.profiles)
}

func (f *FakeProfileStore) ListingOwner(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[id]
}

// FakeVerifier is a test-only CredentialVerifier. Each successful Verify
// issues a new provider session token; Revoke invalidates it.
type FakeVerifier struct {
	mu         sync.Mutex
	principals map[string]fakeAccount // email -> account
	live       map[string]bool        // session token -> valid
	issued     int
	verifyErr  error
	revokeErr  error
}

type fakeAccount struct {
	principal core.Principal
	secret    string
}

var _ core.CredentialVerifier = (*FakeVerifier)(nil)

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		principals: make(map[string]fakeAccount),
		live:       make(map[string]bool),
	}
}

func (f *FakeVerifier) add(id, email, secret, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.principals[core.NormalizeEmail(email)] = fakeAccount{
		principal: core.Principal{ID: id, Email: core.NormalizeEmail(email), EmailVerified: true, Name: name},
		secret:    secret,
	}
}

func (f *FakeVerifier) Verify(ctx context.Context, email, secret string) (*core.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, ok := f.principals[core.NormalizeEmail(email)]
	if !ok || acct.secret != secret {
		return nil, core.ErrInvalidCredentials
	}
	pair, err := crypto.NewTokenPair()
	if err != nil {
		return nil, err
	}
	f.issued++
	f.live[pair.Token] = true
	p := acct.principal
	p.SessionToken = pair.Token
	return &p, nil
}

func (f *FakeVerifier) Revoke(_ context.Context, p *core.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	delete(f.live, p.SessionToken)
	return nil
}

func (f *FakeVerifier) Live(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[token]
}

func (f *FakeVerifier) LiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// FakeActivity collects recorded rows.
type FakeActivity struct {
	mu   sync.Mutex
	rows []core.Activity
	err  error
	done chan struct{}
}

func NewFakeActivity() *FakeActivity {
	return &FakeActivity{done: make(chan struct{}, 64)}
}

func (f *FakeActivity) Record(_ context.Context, a *core.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.done <- struct{}{} }()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *a)
	return nil
}

func (f *FakeActivity) Rows() []core.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Activity(nil), f.rows...)
}

// failingSessionStore rejects every write.
type failingSessionStore struct{}

func (failingSessionStore) Save(context.Context, string, *core.Session, time.Duration) error {
	return errors.New("session store down")
}
func (failingSessionStore) Get(context.Context, string) (*core.Session, error) {
	return nil, core.ErrSessionNotFound
}
func (failingSessionStore) Delete(context.Context, string) error { return nil }

// FakeProviderStorage is a test-only ProviderStorage for LocalProvider.
type FakeProviderStorage struct {
	mu          sync.Mutex
	credentials map[string]*core.Credential      // email -> credential
	sessions    map[string]*core.ProviderSession // token hash -> session
	getErr      error
	sessionErr  error
}

var _ core.ProviderStorage = (*FakeProviderStorage)(nil)

func NewFakeProviderStorage() *FakeProviderStorage {
	return &FakeProviderStorage{
		credentials: make(map[string]*core.Credential),
		sessions:    make(map[string]*core.ProviderSession),
	}
}

func (f *FakeProviderStorage) CreateCredential(_ context.Context, c *core.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.credentials[c.Email]; exists {
		return core.ErrPrincipalExists
	}
	cp := *c
	f.credentials[c.Email] = &cp
	return nil
}

func (f *FakeProviderStorage) GetCredentialByEmail(_ context.Context, email string) (*core.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.credentials[email]
	if !ok {
		return nil, core.ErrPrincipalNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeProviderStorage) CreateProviderSession(_ context.Context, s *core.ProviderSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return f.sessionErr
	}
	cp := *s
	f.sessions[s.TokenHash] = &cp
	return nil
}

func (f *FakeProviderStorage) GetProviderSessionByHash(_ context.Context, hash string) (*core.ProviderSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[hash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *FakeProviderStorage) DeleteProviderSessionByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[hash]; !ok {
		return core.ErrSessionNotFound
	}
	delete(f.sessions, hash)
	return nil
}

func (f *FakeProviderStorage) DeleteExpiredProviderSessions(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	now := time.Now()
	for k, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			delete(f.sessions, k)
			n++
		}
	}
	return n, nil
}
