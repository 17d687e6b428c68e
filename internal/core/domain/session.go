package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionStatus is the lifecycle state of a browser session.
type SessionStatus string

const (
	StatusUnauthenticated SessionStatus = "unauthenticated"
	StatusResolving       SessionStatus = "resolving"
	StatusAuthenticated   SessionStatus = "authenticated"
)

// Session is the credential plus decoded identity of one browser session.
// Identity is non-nil exactly when Credential is set and unexpired.
type Session struct {
	Credential string
	Identity   *Identity
	Status     SessionStatus
}

// Authenticated reports whether the session carries a usable identity.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Credential != "" && s.Identity != nil
}

// Persisted session field names. The same keys the original console kept in
// browser storage.
const (
	FieldToken       = "token"
	FieldUserID      = "userId"
	FieldUserName    = "userName"
	FieldUserEmail   = "userEmail"
	FieldUserRole    = "userRole"
	FieldUserRoleID  = "userRoleId"
	FieldLocale      = "locale"
	FieldRefreshedAt = "refreshedAt"
)

// CredentialFields are the persisted fields a sign-out removes. The locale
// outlives the credential.
var CredentialFields = []string{
	FieldToken,
	FieldUserID,
	FieldUserName,
	FieldUserEmail,
	FieldUserRole,
	FieldUserRoleID,
	FieldRefreshedAt,
}

// Fallbacks used when cached identity fields are missing.
const (
	FallbackName     = "User"
	FallbackEmail    = "user@example.com"
	FallbackRoleName = RoleUser
	FallbackRoleID   = "unknown"
)

// ValidateIdentity checks the minimum an identity needs to be committed.
func ValidateIdentity(id Identity) error {
	if strings.TrimSpace(id.ID) == "" || strings.TrimSpace(id.Email) == "" {
		return ErrInvalidIdentity
	}
	return nil
}

// WithDefaults fills the optional identity fields.
func (id Identity) WithDefaults() Identity {
	if id.Name == "" {
		id.Name, _, _ = strings.Cut(id.Email, "@")
	}
	if id.Role.Name == "" {
		id.Role.Name = FallbackRoleName
	}
	if id.Role.ID == "" {
		id.Role.ID = FallbackRoleID
	}
	return id
}

// CredentialExpiry decodes the exp claim of a bearer token without verifying
// its signature. ok is false when the token carries no exp claim. A token
// that is not a decodable JWT yields ErrMalformedCredential.
func CredentialExpiry(credential string) (exp time.Time, ok bool, err error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// IsExpired reports whether a credential must no longer be used at now. An
// empty or undecodable credential is never usable; a decoded token without
// exp is left for the API to reject.
func IsExpired(credential string, now time.Time) bool {
	if credential == "" {
		return true
	}
	exp, ok, err := CredentialExpiry(credential)
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	return !exp.After(now)
}
