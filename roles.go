package authguard

import "strings"

// HasRole reports whether target is in roles.
func HasRole(roles []Role, target Role) bool {
	for _, r := range roles {
		if r == target {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether roles and targets intersect.
// An empty targets list yields false; callers treating "no required
// roles" as "no restriction" must check emptiness themselves (the route
// guard does).
func HasAnyRole(roles []Role, targets []Role) bool {
	for _, t := range targets {
		if HasRole(roles, t) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether roles contains ROLE_ADMIN.
func IsAdmin(roles []Role) bool { return HasRole(roles, RoleAdmin) }

// IsAssure reports whether roles contains ROLE_ASSURE.
func IsAssure(roles []Role) bool { return HasRole(roles, RoleAssure) }

// IsMedecin reports whether roles contains ROLE_MEDECIN.
func IsMedecin(roles []Role) bool { return HasRole(roles, RoleMedecin) }

// rolePriority is used only to pick a default landing page after login.
// It has no bearing on access decisions.
var rolePriority = map[Role]int{
	RoleAdmin:   4,
	RoleMedecin: 3,
	RoleAssure:  2,
	RoleUser:    1,
}

// HighestPriorityRole returns the highest-priority role in roles,
// ordered ROLE_ADMIN > ROLE_MEDECIN > ROLE_ASSURE > ROLE_USER.
// Unknown roles rank below all known ones. roles must be non-empty;
// callers with a possibly-empty set must fall back to a default page.
func HighestPriorityRole(roles []Role) Role {
	highest := roles[0]
	for _, r := range roles[1:] {
		if rolePriority[r] > rolePriority[highest] {
			highest = r
		}
	}
	return highest
}

// DefaultDashboardPath returns the landing page for the user's
// highest-priority role. An empty role set falls back to the generic
// dashboard.
func DefaultDashboardPath(roles []Role) string {
	if len(roles) == 0 {
		return "/dashboard"
	}
	switch HighestPriorityRole(roles) {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleMedecin:
		return "/medecin/dashboard"
	case RoleAssure:
		return "/assure/dashboard"
	default:
		return "/dashboard"
	}
}

// DisplayName returns the UI label for a role. Unknown roles are shown
// with their ROLE_ prefix stripped.
func DisplayName(role Role) string {
	switch role {
	case RoleAdmin:
		return "Administrateur"
	case RoleUser:
		return "Utilisateur"
	case RoleAssure:
		return "Assuré"
	case RoleMedecin:
		return "Médecin"
	default:
		return strings.TrimPrefix(string(role), "ROLE_")
	}
}
