package user

import (
	"github.com/volatiletech/null/v8"
)

// Roles
const (
	RoleAdmin    = "admin"
	RoleEducator = "educator"
	RoleStudent  = "student"
)

// Profile is the `user_profiles` row of an authenticated BaaS user.
// Its ID is the auth user ID.
type Profile struct {
	ID       string      `db:"id" json:"id"`
	Email    string      `db:"email" json:"email"`
	FullName string      `db:"full_name" json:"full_name"`
	Role     string      `db:"role" json:"role"`
	OrgID    null.String `db:"org_id" json:"org_id"`
}

func (p Profile) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Profile) IsEducator() bool { return p.Role == RoleEducator }
func (p Profile) IsStudent() bool  { return p.Role == RoleStudent }

// HasAnyRole reports whether the profile's role is one of roles. No roles means any role.
func (p Profile) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// InOrg reports whether the profile belongs to the organization orgID.
func (p Profile) InOrg(orgID null.String) bool {
	return p.OrgID.Valid && orgID.Valid && p.OrgID.String == orgID.String
}

