package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/services"
)

// AdminUserController serves the admin-only account management endpoints.
type AdminUserController struct {
	userService *services.UserService
}

func NewAdminUserController(userService *services.UserService) *AdminUserController {
	return &AdminUserController{userService: userService}
}

// ListUsers returns every registered account without password hashes.
func (uc *AdminUserController) ListUsers(c *gin.Context) {
	users, err := uc.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	dtos := make([]models.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, services.ToUserDTO(&users[i]))
	}

	c.JSON(http.StatusOK, models.UserListResponse{Users: dtos, Count: len(dtos)})
}

// CreateStaff registers a staff or admin account.
func (uc *AdminUserController) CreateStaff(c *gin.Context) {
	var req models.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error()))
		return
	}

	if err := uc.userService.RegisterStaff(c.Request.Context(), &req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.GenericResponse{Message: "Staff user created successfully"})
}

// DeleteUser removes an account and its lookup projections.
func (uc *AdminUserController) DeleteUser(c *gin.Context) {
	userID := c.Param("user_id")

	if err := uc.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.GenericResponse{Message: "User deleted successfully"})
}
