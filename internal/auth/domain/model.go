// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role names are fixed. There is no role hierarchy; every capability is
// granted explicitly per role.
const (
	RoleAdmin     = "ADMIN"
	RoleTech      = "TECH"
	RoleValidator = "VALIDATOR"
	RolePresident = "PRESIDENT"
	RoleEntity    = "ENTITY"
)

// KnownRole reports whether name is one of the fixed roles.
func KnownRole(name string) bool {
	switch name {
	case RoleAdmin, RoleTech, RoleValidator, RolePresident, RoleEntity:
		return true
	default:
		return false
	}
}

// User represents a system user account. ENTITY users carry the entity
// they act for; back-office roles leave EntityID empty.
type User struct {
	ID                  snowflake.ID  `gorm:"primaryKey"`
	Email               string        `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName         string        `gorm:"column:display_name;type:text;not null"`
	PasswordHash        *string       `gorm:"type:text"`
	Role                string        `gorm:"column:role;type:text;not null"`
	EntityID            *snowflake.ID `gorm:"column:entity_id;index"`
	IsActive            bool          `gorm:"column:is_active;not null;default:true"`
	IsDefault           bool          `gorm:"column:is_default"`
	LastPasswordChanged *time.Time    `gorm:"column:last_password_changed"`
	CreatedAt           time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session. Only the SHA-256 hash of
// the token is stored.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
