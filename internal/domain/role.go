package domain

import "strings"

// Role enumerates organizational roles, most senior first.
type Role string

const (
	RoleSuperAdmin  Role = "superAdmin"
	RoleHR          Role = "CXO/HR"
	RoleTechManager Role = "techManager"
	RoleEmployee    Role = "employee"
	RoleIntern      Role = "intern"
)

// Roles lists every role in seniority order.
var Roles = []Role{RoleSuperAdmin, RoleHR, RoleTechManager, RoleEmployee, RoleIntern}

var roleNames = map[Role]string{
	RoleSuperAdmin:  "Super Admin",
	RoleHR:          "CXO / HR",
	RoleTechManager: "Tech Manager",
	RoleEmployee:    "Employee",
	RoleIntern:      "Intern",
}

var roleCodes = map[Role]string{
	RoleSuperAdmin:  "SUPER_ADMIN",
	RoleHR:          "CXO_HR",
	RoleTechManager: "TECH_MANAGER",
	RoleEmployee:    "EMPLOYEE",
	RoleIntern:      "INTERN",
}

// viewableRoles is the transitive closure of the "manages" relation.
var viewableRoles = map[Role][]Role{
	RoleSuperAdmin:  {RoleHR, RoleTechManager, RoleEmployee, RoleIntern},
	RoleHR:          {RoleTechManager, RoleEmployee, RoleIntern},
	RoleTechManager: {RoleEmployee, RoleIntern},
	RoleEmployee:    {RoleIntern},
	RoleIntern:      {},
}

// managerRoles holds the single role allowed to manage each role.
var managerRoles = map[Role][]Role{
	RoleSuperAdmin:  {},
	RoleHR:          {RoleSuperAdmin},
	RoleTechManager: {RoleHR},
	RoleEmployee:    {RoleTechManager},
	RoleIntern:      {RoleEmployee},
}

// ParseRole accepts the stored role tags plus the legacy "HR" alias.
func ParseRole(raw string) (Role, bool) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, "HR") || strings.EqualFold(trimmed, "CXO_HR") {
		return RoleHR, true
	}
	for _, role := range Roles {
		if string(role) == trimmed || roleCodes[role] == trimmed {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	_, ok := viewableRoles[r]
	return ok
}

// Name returns the display name of the role.
func (r Role) Name() string {
	return roleNames[r]
}

// Code returns the upper-case role code.
func (r Role) Code() string {
	return roleCodes[r]
}

// Seniority returns 0 for the most senior role; unknown roles sort last.
func (r Role) Seniority() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return len(Roles)
}

// ViewableRoles returns every role below r. The returned slice is a copy.
func ViewableRoles(r Role) []Role {
	return append([]Role{}, viewableRoles[r]...)
}

// ManagerRolesAllowedFor returns the roles that may be assigned as r's manager.
func ManagerRolesAllowedFor(r Role) []Role {
	return append([]Role{}, managerRoles[r]...)
}

// CanView reports whether actor may see, manage or approve records of subject.
func CanView(actor, subject Role) bool {
	return containsRole(viewableRoles[actor], subject)
}

// CanApprove is the approval rule: subject must be in actor's viewable set.
func CanApprove(actor, subject Role) bool {
	return CanView(actor, subject)
}

// ValidManager checks the strict one-level-up manager assignment rule.
func ValidManager(subject, manager Role) bool {
	return containsRole(managerRoles[subject], manager)
}

// RequiresManager reports whether accounts of role r must name a manager.
func RequiresManager(r Role) bool {
	return len(managerRoles[r]) > 0
}

// CanManageOthers reports whether r has at least one subordinate role.
func CanManageOthers(r Role) bool {
	return len(viewableRoles[r]) > 0
}

func containsRole(set []Role, r Role) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}
