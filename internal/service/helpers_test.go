package service

import (
	"context"
	"strings"
	"time"

	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/config"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/repository"
)

var fixedNow = time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 15,
			PasswordResetURL:        "https://hr.example.com/reset/",
			BcryptCost:              4,
		},
	}
}

func addUser(users repository.UserRepository, first string, role domain.Role, empID, password string) *domain.User {
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		panic(err)
	}
	u := &domain.User{
		FirstName:    first,
		LastName:     "Test",
		Email:        strings.ToLower(first) + "@example.com",
		PasswordHash: hash,
		Role:         role,
		EmployeeID:   empID,
		DOB:          time.Date(1990, time.June, 12, 0, 0, 0, 0, time.UTC),
	}
	if err := users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// hierarchy holds one active user per role, chained by manager mappings.
type hierarchy struct {
	admin, hr, manager, employee, intern *domain.User
}

// seedHierarchy creates EMP1001 to EMP1005 and advances the employee id
// counter past them.
func seedHierarchy(store repository.Store) hierarchy {
	ctx := context.Background()
	h := hierarchy{
		admin:    addUser(store.Users, "Ada", domain.RoleSuperAdmin, "EMP1001", "secret1"),
		hr:       addUser(store.Users, "Hana", domain.RoleHR, "EMP1002", "secret2"),
		manager:  addUser(store.Users, "Milo", domain.RoleTechManager, "EMP1003", "secret3"),
		employee: addUser(store.Users, "Eve", domain.RoleEmployee, "EMP1004", "secret4"),
		intern:   addUser(store.Users, "Ivan", domain.RoleIntern, "EMP1005", "secret5"),
	}
	chain := []*domain.User{h.admin, h.hr, h.manager, h.employee, h.intern}
	for i := range chain {
		if _, err := store.Counters.Next(ctx, repository.EmployeeIDCounter, employeeIDStart); err != nil {
			panic(err)
		}
		if i == 0 {
			continue
		}
		if err := store.Mappings.Upsert(ctx, &domain.ManagerMapping{
			EmployeeEmpID: chain[i].EmployeeID,
			ManagerEmpID:  chain[i-1].EmployeeID,
			Role:          chain[i].Role,
		}); err != nil {
			panic(err)
		}
	}
	return h
}
