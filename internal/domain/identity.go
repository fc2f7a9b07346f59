package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Identity is the signed-in shopper's profile as mirrored from the identity
// provider session.
type Identity struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account is a credential record owned by the identity provider.
type Account struct {
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	DisplayName      string    `json:"displayName,omitempty"`
	FederatedSubject string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}
