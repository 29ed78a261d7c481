package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleEmployee UserRole = "employee"
	UserRoleEmployer UserRole = "employer"
	UserRoleAdmin    UserRole = "admin"
)

// User is the profile-store view of an account. Only the fields the
// network features read are carried here.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Role      UserRole  `json:"role" db:"role"`
	Headline  string    `json:"headline,omitempty" db:"headline"`
	Skills    []string  `json:"skills" db:"-"`
	Location  string    `json:"location,omitempty" db:"location"`
	Company   string    `json:"company,omitempty" db:"company"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public card shown inside recommendations and feeds.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Headline string    `json:"headline,omitempty"`
	Role     UserRole  `json:"role"`
	Location string    `json:"location,omitempty"`
	Company  string    `json:"company,omitempty"`
	Skills   []string  `json:"skills,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Headline: u.Headline,
		Role:     u.Role,
		Location: u.Location,
		Company:  u.Company,
		Skills:   u.Skills,
	}
}

// NormalizeCompany folds case, whitespace and common legal suffixes so
// "Acme Inc." and "acme" compare equal.
func NormalizeCompany(company string) string {
	c := strings.ToLower(strings.TrimSpace(company))
	c = strings.TrimRight(c, ".")
	for _, suffix := range []string{" inc", " llc", " ltd", " corp", " co", " gmbh"} {
		if strings.HasSuffix(c, suffix) {
			c = strings.TrimSuffix(c, suffix)
			break
		}
	}
	c = strings.TrimRight(c, " ,.")
	return strings.Join(strings.Fields(c), " ")
}
