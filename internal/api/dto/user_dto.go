package dto

import (
	"time"

	"github.com/hrportal/attendance-service/internal/domain"
)

// UserResponse is the public view of a user; the password hash never
// leaves the service.
type UserResponse struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	EmployeeID       string    `json:"employeeId,omitempty"`
	DOB              string    `json:"dob"`
	ManagerID        *string   `json:"managerId"`
	CreatedBy        *string   `json:"createdBy,omitempty"`
	Address          string    `json:"address,omitempty"`
	Mobile           string    `json:"mobile,omitempty"`
	EmergencyContact string    `json:"emergencyContact,omitempty"`
	Resume           string    `json:"resume,omitempty"`
	PhotoID          string    `json:"photoId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Role:             string(u.Role),
		EmployeeID:       u.EmployeeID,
		DOB:              formatDate(u.DOB),
		ManagerID:        u.ManagerID,
		CreatedBy:        u.CreatedBy,
		Address:          u.Address,
		Mobile:           u.Mobile,
		EmergencyContact: u.EmergencyContact,
		Resume:           u.ResumeURL,
		PhotoID:          u.PhotoURL,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// NewUserResponses maps a slice, never returning nil.
func NewUserResponses(users []domain.User) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, NewUserResponse(&users[i]))
	}
	return result
}

// UserSummaryResponse is the compact user shape used in listings.
type UserSummaryResponse struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	EmployeeID string `json:"employeeId,omitempty"`
}

// NewUserSummaryResponse maps a summary.
func NewUserSummaryResponse(s domain.UserSummary) UserSummaryResponse {
	return UserSummaryResponse{
		ID:         s.ID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		Role:       string(s.Role),
		EmployeeID: s.EmployeeID,
	}
}

// OnboardResponse reports the generated credentials.
type OnboardResponse struct {
	Message         string       `json:"message"`
	EmployeeID      string       `json:"employeeId"`
	DefaultPassword string       `json:"defaultPassword"`
	User            UserResponse `json:"user"`
}

// WorkerUpdateRequest carries optional worker fields.
type WorkerUpdateRequest struct {
	FirstName        *string `json:"firstName"`
	LastName         *string `json:"lastName"`
	Email            *string `json:"email"`
	Role             *string `json:"role"`
	Mobile           *string `json:"mobile"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergencyContact"`
	ManagerEmpID     *string `json:"managerEmpId"`
	Resume           *string `json:"resume"`
	PhotoID          *string `json:"photoId"`
}

// BirthdayResponse is one entry of the birthday calendar.
type BirthdayResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	DOB       string `json:"dob"`
	Role      string `json:"role"`
}

// RoleResponse describes a role.
type RoleResponse struct {
	Role string `json:"role"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
