package domain

import (
	"slices"

	dErrors "steward/pkg/domain-errors"
)

// Role is a portal role assigned outside this service (identity provider sync
// or an administrator). Roles are read-only inputs here.
//
// The set is closed. Every predicate below switches over all members without a
// default branch, so adding a role means revisiting each predicate.
type Role string

const (
	RoleAdmin                   Role = "admin"
	RoleApprovedStaffResearcher Role = "approved-staff-researcher"
	RoleInformationAssetOwner   Role = "information-asset-owner"
	RoleIGOpsStaff              Role = "ig-ops-staff"
	RoleBase                    Role = "base"
)

// AllRoles lists every role in a stable order.
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleApprovedStaffResearcher,
		RoleInformationAssetOwner,
		RoleIGOpsStaff,
		RoleBase,
	}
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

// IsValid reports whether r is a member of the closed role set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleApprovedStaffResearcher, RoleInformationAssetOwner, RoleIGOpsStaff, RoleBase:
		return true
	}
	return false
}

// CanReview reports whether the role may decide on submitted studies.
func (r Role) CanReview() bool {
	switch r {
	case RoleAdmin, RoleIGOpsStaff:
		return true
	case RoleApprovedStaffResearcher, RoleInformationAssetOwner, RoleBase:
		return false
	}
	return false
}

// CanCreateStudy reports whether the role may own new studies.
func (r Role) CanCreateStudy() bool {
	switch r {
	case RoleApprovedStaffResearcher:
		return true
	case RoleAdmin, RoleInformationAssetOwner, RoleIGOpsStaff, RoleBase:
		return false
	}
	return false
}

// CanAdminister reports whether the role may override user profile data and
// publish agreements.
func (r Role) CanAdminister() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleApprovedStaffResearcher, RoleInformationAssetOwner, RoleIGOpsStaff, RoleBase:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }

// RoleSet is an unordered set of roles.
type RoleSet []Role

// ParseRoles parses a list of role names, dropping duplicates. Unknown roles fail.
func ParseRoles(names []string) (RoleSet, error) {
	out := make(RoleSet, 0, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s RoleSet) Has(r Role) bool {
	return slices.Contains(s, r)
}

func (s RoleSet) any(pred func(Role) bool) bool {
	return slices.ContainsFunc(s, pred)
}

func (s RoleSet) IsReviewer() bool     { return s.any(Role.CanReview) }
func (s RoleSet) CanCreateStudy() bool { return s.any(Role.CanCreateStudy) }
func (s RoleSet) IsAdmin() bool        { return s.any(Role.CanAdminister) }

// Strings returns the role names, for persistence and tokens.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}
