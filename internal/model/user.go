package model

import "time"

// Role is the authorization role carried in access tokens.
type Role string

const (
    RoleClient   Role = "CLIENT"
    RoleProvider Role = "PROVIDER"
    RoleAdmin    Role = "ADMIN"
)

// ParseRole maps a raw claim or request value onto a Role.  Unknown values
// default to CLIENT.
func ParseRole(s string) Role {
    switch Role(s) {
    case RoleProvider, RoleAdmin:
        return Role(s)
    }
    return RoleClient
}

// User represents an application account as stored in the `users` table.
// Clients are plain users; providers additionally own a Provider row
// keyed by the same ID.
//
// Fields:
//  ID           – primary key (UUID string).
//  Email        – unique email address.
//  Name         – display name used in notifications.
//  PasswordHash – bcrypt hashed password.
//  Role         – CLIENT, PROVIDER or ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Email        string    // users.email
    Name         string    // users.name
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
