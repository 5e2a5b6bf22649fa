package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/hrportal/attendance-service/internal/api/dto"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/service"
)

// UsersHandler exposes onboarding and the worker directory.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Signup handles POST /api/signup (multipart form).
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	input := service.OnboardInput{
		FirstName:        c.FormValue("firstName"),
		LastName:         c.FormValue("lastName"),
		Email:            c.FormValue("email"),
		DOB:              c.FormValue("dob"),
		Role:             c.FormValue("role"),
		ManagerEmpID:     c.FormValue("managerEmpId"),
		Address:          c.FormValue("address"),
		Mobile:           c.FormValue("mobile"),
		EmergencyContact: c.FormValue("emergencyContact"),
		Resume:           optionalFile(c, "resume"),
		Photo:            optionalFile(c, "photoId"),
	}

	result, err := h.users.Onboard(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.OnboardResponse{
		Message:         "User created successfully",
		EmployeeID:      result.EmployeeID,
		DefaultPassword: result.DefaultPassword,
		User:            dto.NewUserResponse(result.User),
	}})
}

// Profile handles GET /api/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.Profile(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return data(c, dto.NewUserResponse(user))
}

// Workers handles GET /api/workers.
func (h *UsersHandler) Workers(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := h.users.ListWorkers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, dto.NewUserResponses(users))
}

// UpdateWorker handles PUT /api/workers/:id.
func (h *UsersHandler) UpdateWorker(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.WorkerUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateWorker(c.UserContext(), actor, c.Params("id"), service.WorkerPatch{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Role:             req.Role,
		Mobile:           req.Mobile,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		ManagerEmpID:     req.ManagerEmpID,
		ResumeURL:        req.Resume,
		PhotoURL:         req.PhotoID,
	})
	if err != nil {
		return err
	}
	return data(c, dto.NewUserResponse(user))
}

// DeleteWorker handles DELETE /api/workers/:id.
func (h *UsersHandler) DeleteWorker(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteWorker(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Managers handles GET /api/managers?forRole=.
func (h *UsersHandler) Managers(c *fiber.Ctx) error {
	users, err := h.users.ListManagers(c.UserContext(), c.Query("forRole"))
	if err != nil {
		return err
	}
	summaries := make([]dto.UserSummaryResponse, 0, len(users))
	for i := range users {
		summaries = append(summaries, dto.NewUserSummaryResponse(users[i].Summary()))
	}
	return data(c, summaries)
}

// Birthdays handles GET /api/birthdays?today=true.
func (h *UsersHandler) Birthdays(c *fiber.Ctx) error {
	users, err := h.users.Birthdays(c.UserContext(), c.QueryBool("today", false))
	if err != nil {
		return err
	}
	result := make([]dto.BirthdayResponse, 0, len(users))
	for _, u := range users {
		result = append(result, dto.BirthdayResponse{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			DOB:       u.DOB.Format(domain.DateLayout),
			Role:      string(u.Role),
		})
	}
	return data(c, result)
}

// Roles handles GET /api/roles.
func (h *UsersHandler) Roles(c *fiber.Ctx) error {
	roles := h.users.Roles()
	result := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		result = append(result, dto.RoleResponse{Role: string(r), Code: r.Code(), Name: r.Name()})
	}
	return data(c, result)
}

func optionalFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}
