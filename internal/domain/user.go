package domain

import "time"

// User is an employee account at any level of the hierarchy.
type User struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	PasswordHash     string
	Role             Role
	EmployeeID       string
	DOB              time.Time
	ManagerID        *string
	CreatedBy        *string
	Address          string
	Mobile           string
	EmergencyContact string
	ResumeURL        string
	PhotoURL         string
	IsDeleted        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserSummary is the subset of user fields attached to attendance listings.
type UserSummary struct {
	ID         string
	FirstName  string
	LastName   string
	Role       Role
	EmployeeID string
}

// Summary projects the user to a UserSummary.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		EmployeeID: u.EmployeeID,
	}
}

// ManagerMapping links a subordinate's employee id to their manager's.
type ManagerMapping struct {
	ID            string
	EmployeeEmpID string
	ManagerEmpID  string
	Role          Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
