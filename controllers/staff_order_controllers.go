package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/services"
)

// StaffOrderController serves the staff fulfilment and reporting endpoints.
type StaffOrderController struct {
	orderService *services.OrderService
}

func NewStaffOrderController(orderService *services.OrderService) *StaffOrderController {
	return &StaffOrderController{orderService: orderService}
}

// UpdateFulfilment advances or cancels fulfilment of a paid order.
func (sc *StaffOrderController) UpdateFulfilment(c *gin.Context) {
	orderID := c.Param("order_id")

	var req models.UpdateFulfilmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error()))
		return
	}

	var (
		order *models.Order
		err   error
	)
	switch req.Action {
	case "start":
		order, err = sc.orderService.StartFulfilment(c.Request.Context(), orderID)
	case "complete":
		order, err = sc.orderService.CompleteFulfilment(c.Request.Context(), orderID)
	case "cancel":
		order, err = sc.orderService.CancelFulfilment(c.Request.Context(), orderID)
	default:
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, "unknown action"))
		return
	}

	if err != nil {
		if errors.Is(err, services.ErrEventPublishFailed) {
			c.JSON(http.StatusOK, gin.H{
				"order":   order,
				"warning": "fulfilment updated but notification delivery failed",
			})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetAllOrders lists every order across all statuses.
func (sc *StaffOrderController) GetAllOrders(c *gin.Context) {
	orders, err := sc.orderService.GetOrdersByStatus(c.Request.Context(), nil)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders, TotalCount: len(orders)})
}

// GetOrdersByStatus lists orders currently in one status.
func (sc *StaffOrderController) GetOrdersByStatus(c *gin.Context) {
	status, err := models.ParseOrderStatus(c.Param("order_status"))
	if err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidOrderStatus, err.Error()))
		return
	}

	orders, err := sc.orderService.GetOrdersByStatus(c.Request.Context(), &status)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders, TotalCount: len(orders)})
}

// GetOrder returns any order by ID (no ownership scoping).
func (sc *StaffOrderController) GetOrder(c *gin.Context) {
	order, err := sc.orderService.GetOrderByID(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}
