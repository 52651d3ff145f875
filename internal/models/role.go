package models

import (
	"fmt"
)

// Role is unset until the user completes the profile
// Once set it is never changed through the profile completion
type Role string

const (
	RoleUnset      Role = ""
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUnset, RoleBrand, RoleInfluencer:
		return Role(s), nil
	default:
		return RoleUnset, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) IsSet() bool {
	return r != RoleUnset
}
