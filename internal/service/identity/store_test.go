package identity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/storage"
)

// fakeProvider delivers state changes to subscribers and waits for the ack,
// like the real provider does.
type fakeProvider struct {
	mu       sync.Mutex
	subs     []chan Notification
	users    map[string]*ProviderUser
	signedIn map[string]*ProviderUser
	fail     error
	refresh  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users:    make(map[string]*ProviderUser),
		signedIn: make(map[string]*ProviderUser),
	}
}

func (p *fakeProvider) Subscribe() (<-chan Notification, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Notification, 4)
	p.subs = append(p.subs, ch)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, c := range p.subs {
				if c == ch {
					p.subs = append(p.subs[:i], p.subs[i+1:]...)
				}
			}
			close(ch)
		})
	}
}

func (p *fakeProvider) publish(sessionID string, user *ProviderUser) {
	p.mu.Lock()
	subs := append([]chan Notification(nil), p.subs...)
	p.mu.Unlock()
	for _, ch := range subs {
		n, acked := NewNotification(sessionID, user)
		ch <- n
		<-acked
	}
}

func (p *fakeProvider) SignIn(_ context.Context, sessionID, email, _ string) error {
	if p.fail != nil {
		return p.fail
	}
	p.mu.Lock()
	user := p.users[email]
	p.signedIn[sessionID] = user
	p.mu.Unlock()
	p.publish(sessionID, user)
	return nil
}

func (p *fakeProvider) SignUp(_ context.Context, sessionID, email, _, name string) error {
	if p.fail != nil {
		return p.fail
	}
	user := &ProviderUser{UID: "uid-" + email, Email: email, DisplayName: name}
	p.mu.Lock()
	p.users[email] = user
	p.signedIn[sessionID] = user
	p.mu.Unlock()
	p.publish(sessionID, user)
	return nil
}

func (p *fakeProvider) SignInFederated(_ context.Context, sessionID, _ string) error {
	if p.fail != nil {
		return p.fail
	}
	user := &ProviderUser{UID: "uid-federated", Email: "fed@example.com", DisplayName: "Fed"}
	p.mu.Lock()
	p.signedIn[sessionID] = user
	p.mu.Unlock()
	p.publish(sessionID, user)
	return nil
}

func (p *fakeProvider) SignOut(_ context.Context, sessionID string) error {
	if p.fail != nil {
		return p.fail
	}
	p.mu.Lock()
	delete(p.signedIn, sessionID)
	p.mu.Unlock()
	p.publish(sessionID, nil)
	return nil
}

func (p *fakeProvider) Refresh(_ context.Context, sessionID string) error {
	p.mu.Lock()
	p.refresh++
	user := p.signedIn[sessionID]
	p.mu.Unlock()
	p.publish(sessionID, user)
	return nil
}

type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Identity
	failGet  error
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]domain.Identity)}
}

func (r *memoryProfiles) Get(_ context.Context, uid string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	p, ok := r.profiles[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProfiles) Upsert(_ context.Context, id domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[id.UID]; ok {
		return &existing, nil
	}
	r.profiles[id.UID] = id
	return &id, nil
}

type fixture struct {
	provider  *fakeProvider
	profiles  *memoryProfiles
	snapshots *storage.Memory
	notices   *notice.Queue
	store     *Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		provider:  newFakeProvider(),
		profiles:  newMemoryProfiles(),
		snapshots: storage.NewMemory(),
		notices:   notice.NewQueue(0),
	}
	f.store = NewStore(f.provider, f.profiles, f.snapshots, f.notices, zerolog.Nop())
	if err := f.store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(f.store.Close)
	return f
}

func lastNotice(t *testing.T, q *notice.Queue, sessionID string) notice.Notice {
	t.Helper()
	got := q.Drain(sessionID)
	if len(got) == 0 {
		t.Fatalf("expected a notice for %s", sessionID)
	}
	return got[len(got)-1]
}

func TestInitializeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	f.provider.mu.Lock()
	subs := len(f.provider.subs)
	f.provider.mu.Unlock()
	if subs != 1 {
		t.Fatalf("expected exactly one subscription, got %d", subs)
	}
}

func TestSignUpCreatesCustomerProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.store.SignUp(ctx, "s1", "ada@example.com", "Secret123", "Ada Lovelace"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	id, ok := f.store.Current(ctx, "s1")
	if !ok {
		t.Fatalf("expected identity after sign up")
	}
	if id.UID != "uid-ada@example.com" || id.Name != "Ada Lovelace" || id.Role != domain.RoleCustomer {
		t.Fatalf("unexpected identity %+v", id)
	}
	if id.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be set")
	}
	if _, err := f.profiles.Get(ctx, id.UID); err != nil {
		t.Fatalf("expected stored profile: %v", err)
	}
	if n := lastNotice(t, f.notices, "s1"); n.Kind != notice.KindSuccess || n.Message != "Account created successfully!" {
		t.Fatalf("unexpected notice %+v", n)
	}

	raw, err := f.snapshots.Get(ctx, storage.Key("identity", "s1"))
	if err != nil {
		t.Fatalf("expected identity snapshot: %v", err)
	}
	var snap domain.Identity
	if err := json.Unmarshal(raw, &snap); err != nil || snap.UID != id.UID {
		t.Fatalf("unexpected snapshot %s (%v)", raw, err)
	}
}

func TestSignInKeepsExistingProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.provider.users["ada@example.com"] = &ProviderUser{UID: "u1", Email: "ada@example.com", DisplayName: "Provider Name"}
	f.profiles.profiles["u1"] = domain.Identity{
		UID:   "u1",
		Email: "old@example.com",
		Name:  "Stored Name",
		Phone: "5551234567",
		Role:  domain.RoleAdmin,
	}

	if err := f.store.SignIn(ctx, "s1", "ada@example.com", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	id, ok := f.store.Current(ctx, "s1")
	if !ok {
		t.Fatalf("expected identity")
	}
	if id.Name != "Stored Name" || id.Role != domain.RoleAdmin || id.Email != "ada@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if n := lastNotice(t, f.notices, "s1"); n.Message != "Welcome back!" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestSignInWithGoogle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.store.SignInWithGoogle(ctx, "s1", "token"); err != nil {
		t.Fatalf("SignInWithGoogle: %v", err)
	}
	if id, ok := f.store.Current(ctx, "s1"); !ok || id.UID != "uid-federated" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if n := lastNotice(t, f.notices, "s1"); n.Message != "Welcome!" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestProfileFailureClearsIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profiles.failGet = errors.New("db down")

	if err := f.store.SignUp(ctx, "s1", "ada@example.com", "Secret123", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, ok := f.store.Current(ctx, "s1"); ok {
		t.Fatalf("expected no identity when the profile cannot be loaded")
	}
}

func TestLogoutClearsIdentityAndSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.store.SignUp(ctx, "s1", "ada@example.com", "Secret123", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	f.notices.Drain("s1")

	if err := f.store.Logout(ctx, "s1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := f.store.Current(ctx, "s1"); ok {
		t.Fatalf("expected identity cleared")
	}
	if _, err := f.snapshots.Get(ctx, storage.Key("identity", "s1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected snapshot removed, got %v", err)
	}
	if n := lastNotice(t, f.notices, "s1"); n.Message != "Signed out successfully" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestFailureNotices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.provider.fail = apperr.New(apperr.CodeUnauthorized, "invalid email or password")
	if err := f.store.SignIn(ctx, "s1", "a@example.com", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if n := lastNotice(t, f.notices, "s1"); n.Kind != notice.KindError || n.Message != "invalid email or password" {
		t.Fatalf("unexpected notice %+v", n)
	}

	f.provider.fail = errors.New("network unreachable")
	if err := f.store.SignUp(ctx, "s1", "a@example.com", "x", "A"); err == nil {
		t.Fatalf("expected error")
	}
	if n := lastNotice(t, f.notices, "s1"); n.Message != "Failed to create account" {
		t.Fatalf("unexpected notice %+v", n)
	}

	if err := f.store.SignInWithGoogle(ctx, "s1", "t"); err == nil {
		t.Fatalf("expected error")
	}
	if n := lastNotice(t, f.notices, "s1"); n.Message != "Failed to sign in with Google" {
		t.Fatalf("unexpected notice %+v", n)
	}

	if err := f.store.Logout(ctx, "s1"); err == nil {
		t.Fatalf("expected error")
	}
	if n := lastNotice(t, f.notices, "s1"); n.Message != "Failed to sign out" {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestCurrentRestoresSnapshotAndRefreshes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A snapshot from a previous process, still signed in at the provider.
	user := &ProviderUser{UID: "u1", Email: "ada@example.com", DisplayName: "Ada"}
	f.provider.signedIn["s1"] = user
	f.profiles.profiles["u1"] = domain.Identity{UID: "u1", Name: "Ada", Role: domain.RoleCustomer}
	raw, _ := json.Marshal(domain.Identity{UID: "u1", Email: "ada@example.com", Name: "Ada", Role: domain.RoleCustomer, CreatedAt: time.Now()})
	if err := f.snapshots.Put(ctx, storage.Key("identity", "s1"), raw); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	id, ok := f.store.Current(ctx, "s1")
	if !ok || id.UID != "u1" {
		t.Fatalf("expected restored identity, got %+v", id)
	}
	if _, ok := f.store.Current(ctx, "s1"); !ok {
		t.Fatalf("expected identity on second call")
	}
	if f.provider.refresh != 1 {
		t.Fatalf("expected a single provider refresh, got %d", f.provider.refresh)
	}
}

func TestCurrentDropsStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	raw, _ := json.Marshal(domain.Identity{UID: "u1", Email: "ada@example.com", Role: domain.RoleCustomer})
	if err := f.snapshots.Put(ctx, storage.Key("identity", "s1"), raw); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if _, ok := f.store.Current(ctx, "s1"); ok {
		t.Fatalf("expected the provider replay to clear a signed-out session")
	}
	if _, err := f.snapshots.Get(ctx, storage.Key("identity", "s1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected stale snapshot removed, got %v", err)
	}
}

func TestCurrentIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.store.SignUp(ctx, "s1", "ada@example.com", "Secret123", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, ok := f.store.Current(ctx, "s2"); ok {
		t.Fatalf("expected no identity for another session")
	}
	id, _ := f.store.Current(ctx, "s1")
	id.Name = "mutated"
	again, _ := f.store.Current(ctx, "s1")
	if again.Name != "Ada" {
		t.Fatalf("Current must return a copy")
	}
}

func (p *fakeProvider) refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh
}

func TestCurrentRechecksExpiredProviderSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.store.now = func() time.Time { return clock }

	if err := f.store.SignUp(ctx, "s1", "ada@example.com", "Secret123", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, ok := f.store.Current(ctx, "s1"); !ok {
		t.Fatalf("expected signed-in identity")
	}
	if n := f.provider.refreshes(); n != 0 {
		t.Fatalf("fresh identity must not hit the provider, got %d refreshes", n)
	}

	// The provider session lapses without a notification.
	f.provider.mu.Lock()
	delete(f.provider.signedIn, "s1")
	f.provider.mu.Unlock()

	clock = clock.Add(defaultRecheckInterval - time.Second)
	if _, ok := f.store.Current(ctx, "s1"); !ok {
		t.Fatalf("identity is trusted until the recheck interval passes")
	}

	clock = clock.Add(2 * time.Second)
	if _, ok := f.store.Current(ctx, "s1"); ok {
		t.Fatalf("expected the expired provider session to sign the shopper out")
	}
	if n := f.provider.refreshes(); n != 1 {
		t.Fatalf("expected one recheck, got %d", n)
	}
}

func TestEvictIdleDropsOnlyIdleSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.store.now = func() time.Time { return clock }

	if err := f.store.SignUp(ctx, "idle", "ada@example.com", "Secret123", "Ada"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	clock = clock.Add(time.Hour)
	if _, ok := f.store.Current(ctx, "guest"); ok {
		t.Fatalf("expected guest session")
	}

	if n := f.store.EvictIdle(clock.Add(-30 * time.Minute)); n != 1 {
		t.Fatalf("expected one idle session evicted, got %d", n)
	}
	f.store.mu.RLock()
	_, idleKept := f.store.sessions["idle"]
	_, guestKept := f.store.sessions["guest"]
	identities := len(f.store.identities)
	f.store.mu.RUnlock()
	if idleKept || !guestKept || identities != 0 {
		t.Fatalf("unexpected state after eviction: idle=%v guest=%v identities=%d", idleKept, guestKept, identities)
	}

	before := f.provider.refreshes()
	id, ok := f.store.Current(ctx, "idle")
	if !ok || id.Email != "ada@example.com" {
		t.Fatalf("expected the evicted session restored, got %+v", id)
	}
	if f.provider.refreshes() != before+1 {
		t.Fatalf("expected a provider replay for the restored session")
	}
}
