package core

import "time"

// Role is the permission level of a profile.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// DefaultRole is assigned to profiles created during login repair.
const DefaultRole = RoleAgent

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent
}

// Principal represents an identity returned by the identity provider
//
// This is the "credential" side - who the provider says someone is
type Principal struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	Name          string `json:"name,omitempty"`

	// SessionToken is the provider-level session issued by Verify.
	SessionToken string `json:"-"` // Never expose in JSON
}

// Profile represents an application-owned user record
//
// This is the "identity" side - what the application knows about someone.
// Listings reference it through their agent_id.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	Role        Role      `json:"role"`
	Phone       string    `json:"phone,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	Position    string    `json:"position,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Session is the value stored behind the session cookie.
// Other pages depend on this exact shape.
type Session struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	PhotoURL string `json:"photoUrl"`
	Position string `json:"position"`
}

// Activity is one row of the audit trail shown on the dashboard.
type Activity struct {
	ProfileID   string    `json:"userId"`
	DisplayName string    `json:"userName"`
	Action      string    `json:"actionType"`
	Entity      string    `json:"entity"`
	Detail      string    `json:"details"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Credential is a principal known to the local identity provider.
type Credential struct {
	PrincipalID   string    `json:"principalId"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"` // Never expose in JSON
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProviderSession is a session issued by the local identity provider.
type ProviderSession struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principalId"`
	TokenHash   string    `json:"-"` // Never expose in JSON (security!)
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LoginInput contains the credentials submitted by the login form
type LoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginResult is what the login form receives back.
type LoginResult struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message,omitempty"`

	Session *Session `json:"-"`
	Token   string   `json:"-"` // The raw session token (not the hash)
}
