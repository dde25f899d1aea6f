package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/services"
)

type AuthController struct {
	userService *services.UserService
	authService *services.AuthService
}

func NewAuthController(userService *services.UserService, authService *services.AuthService) *AuthController {
	return &AuthController{userService: userService, authService: authService}
}

// Register creates a customer account.
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error()))
		return
	}

	if err := ac.userService.RegisterUser(c.Request.Context(), &req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.GenericResponse{Message: "User registered successfully"})
}

// Login exchanges credentials for a bearer token.
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error()))
		return
	}

	resp, err := ac.authService.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
