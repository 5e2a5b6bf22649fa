package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewableRoles(t *testing.T) {
	assert.ElementsMatch(t, []Role{RoleHR, RoleTechManager, RoleEmployee, RoleIntern}, ViewableRoles(RoleSuperAdmin))
	assert.ElementsMatch(t, []Role{RoleTechManager, RoleEmployee, RoleIntern}, ViewableRoles(RoleHR))
	assert.ElementsMatch(t, []Role{RoleEmployee, RoleIntern}, ViewableRoles(RoleTechManager))
	assert.ElementsMatch(t, []Role{RoleIntern}, ViewableRoles(RoleEmployee))
	assert.Empty(t, ViewableRoles(RoleIntern))
	assert.Empty(t, ViewableRoles(Role("guest")))
}

func TestViewableRolesIsTransitive(t *testing.T) {
	assert.Contains(t, ViewableRoles(RoleSuperAdmin), RoleIntern)
	for _, role := range Roles {
		for _, sub := range ViewableRoles(role) {
			for _, subSub := range ViewableRoles(sub) {
				assert.Contains(t, ViewableRoles(role), subSub, "%s -> %s -> %s", role, sub, subSub)
			}
			assert.Less(t, role.Seniority(), sub.Seniority())
		}
	}
}

func TestViewableRolesReturnsCopy(t *testing.T) {
	roles := ViewableRoles(RoleSuperAdmin)
	roles[0] = RoleIntern
	assert.Equal(t, RoleHR, ViewableRoles(RoleSuperAdmin)[0])
}

func TestManagerRolesAllowedFor(t *testing.T) {
	assert.Empty(t, ManagerRolesAllowedFor(RoleSuperAdmin))
	assert.Equal(t, []Role{RoleSuperAdmin}, ManagerRolesAllowedFor(RoleHR))
	assert.Equal(t, []Role{RoleHR}, ManagerRolesAllowedFor(RoleTechManager))
	assert.Equal(t, []Role{RoleTechManager}, ManagerRolesAllowedFor(RoleEmployee))
	assert.Equal(t, []Role{RoleEmployee}, ManagerRolesAllowedFor(RoleIntern))
}

func TestValidManagerIsStrictOneLevel(t *testing.T) {
	assert.True(t, ValidManager(RoleIntern, RoleEmployee))
	assert.False(t, ValidManager(RoleIntern, RoleTechManager))
	assert.False(t, ValidManager(RoleEmployee, RoleSuperAdmin))
	assert.True(t, ValidManager(RoleEmployee, RoleTechManager))
	assert.False(t, ValidManager(RoleSuperAdmin, RoleSuperAdmin))

	// viewing is transitive while manager assignment is not
	assert.True(t, CanView(RoleTechManager, RoleIntern))
	assert.False(t, ValidManager(RoleIntern, RoleTechManager))
}

func TestCanApprove(t *testing.T) {
	assert.True(t, CanApprove(RoleSuperAdmin, RoleIntern))
	assert.True(t, CanApprove(RoleEmployee, RoleIntern))
	assert.False(t, CanApprove(RoleEmployee, RoleEmployee))
	assert.False(t, CanApprove(RoleHR, RoleSuperAdmin))
	assert.False(t, CanApprove(RoleIntern, RoleIntern))
	assert.False(t, CanApprove(RoleSuperAdmin, RoleSuperAdmin))
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"superAdmin":   RoleSuperAdmin,
		"CXO/HR":       RoleHR,
		"HR":           RoleHR,
		"CXO_HR":       RoleHR,
		"techManager":  RoleTechManager,
		"TECH_MANAGER": RoleTechManager,
		" employee ":   RoleEmployee,
		"intern":       RoleIntern,
	}
	for raw, want := range cases {
		got, ok := ParseRole(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseRole("manager")
	assert.False(t, ok)
}

func TestRoleFlags(t *testing.T) {
	assert.False(t, RequiresManager(RoleSuperAdmin))
	assert.True(t, RequiresManager(RoleIntern))
	assert.False(t, CanManageOthers(RoleIntern))
	assert.True(t, CanManageOthers(RoleEmployee))
	assert.Equal(t, "Tech Manager", RoleTechManager.Name())
	assert.Equal(t, "CXO_HR", RoleHR.Code())
	assert.True(t, RoleHR.Valid())
	assert.False(t, Role("HR").Valid())
}
