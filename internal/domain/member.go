package domain

import "time"

// Role controls what a member may do through the API
type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// Member represents a registered library member
type Member struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcrypt hash, never returned by the API
	Role         Role
	CreatedAt    time.Time
	Active       bool
}

// MemberRepository defines data access for the membership directory
type MemberRepository interface {
	Create(member *Member) error
	GetByID(id string) (*Member, error)
	GetByEmail(email string) (*Member, error)
	Exists(id string) bool
}
