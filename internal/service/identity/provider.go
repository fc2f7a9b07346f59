package identity

import (
	"context"
	"sync"

	"jewelry-storefront/internal/domain"
)

// ProviderUser is what the identity provider knows about a signed-in user.
type ProviderUser struct {
	UID         string
	Email       string
	DisplayName string
}

// Notification reports that the provider session of a browser session
// changed. User is nil after sign-out. The subscriber calls Ack once the
// change has been applied.
type Notification struct {
	SessionID string
	User      *ProviderUser

	ack  chan struct{}
	once *sync.Once
}

// NewNotification returns a notification and the channel closed on Ack.
func NewNotification(sessionID string, user *ProviderUser) (Notification, <-chan struct{}) {
	ack := make(chan struct{})
	return Notification{SessionID: sessionID, User: user, ack: ack, once: &sync.Once{}}, ack
}

func (n Notification) Ack() {
	if n.ack == nil {
		return
	}
	n.once.Do(func() { close(n.ack) })
}

// Provider is the external identity provider. Sign-in state is never
// returned directly: it arrives through the Subscribe channel.
type Provider interface {
	SignIn(ctx context.Context, sessionID, email, password string) error
	SignUp(ctx context.Context, sessionID, email, password, name string) error
	SignInFederated(ctx context.Context, sessionID, idToken string) error
	SignOut(ctx context.Context, sessionID string) error
	// Refresh replays the current session state as a notification.
	Refresh(ctx context.Context, sessionID string) error
	Subscribe() (<-chan Notification, func())
}

// ProfileRepository stores the storefront profile of a provider user.
type ProfileRepository interface {
	Get(ctx context.Context, uid string) (*domain.Identity, error)
	Upsert(ctx context.Context, id domain.Identity) (*domain.Identity, error)
}
