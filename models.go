package auth

import (
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// PrincipalStatus is the account lifecycle state
type PrincipalStatus string

const (
	StatusActive   PrincipalStatus = "ACTIVE"
	StatusInactive PrincipalStatus = "INACTIVE"
)

// IsValid reports whether the status is one of the known states
func (s PrincipalStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// Principal is an authenticated identity. Roles are resolved by the store
// when the principal is loaded and travel with it for the rest of the
// request.
type Principal struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	FirstName     string          `bun:"first_name,notnull" json:"first_name"`
	LastName      string          `bun:"last_name,notnull" json:"last_name"`
	Email         string          `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string          `bun:"password,notnull" json:"-"`
	Status        PrincipalStatus `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	Roles         RoleSet         `bun:"-" json:"roles,omitempty"`
}

// Identifier returns the decimal form of the principal id, which is the
// token subject.
func (p *Principal) Identifier() string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(p.ID, 10)
}

// Authorities lists the granted authorities, one per role.
func (p *Principal) Authorities() []string {
	if p == nil {
		return nil
	}
	return p.Roles.Authorities()
}

// HasRole checks role membership, ignoring case.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return p.Roles.Has(role)
}

// Summary is the public projection returned on login
func (p *Principal) Summary() PrincipalSummary {
	return PrincipalSummary{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// PrincipalSummary is the user information that is safe to expose.
type PrincipalSummary struct {
	ID        int64           `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"email"`
	Status    PrincipalStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Page selects a window of a listing
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

const DefaultPageSize = 10

// NewPage applies the listing defaults: negative page numbers become 0
// and non positive sizes become DefaultPageSize.
func NewPage(number, size int) Page {
	return Page{Number: number, Size: size}.Normalize()
}

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	n := p.Normalize()
	return n.Number * n.Size
}
