package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/middleware"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/services"
)

// OrderController serves the customer-facing order endpoints. Every
// handler scopes reads and writes to the authenticated caller.
type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder places a new order in PAYMENT_PENDING.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, err := middleware.CallerID(c)
	if err != nil {
		c.Error(apperrors.New(apperrors.CodeUnauthorized))
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error()))
		return
	}

	order, err := oc.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrEventPublishFailed) {
			// The order is committed; report the degraded publish.
			c.JSON(http.StatusCreated, gin.H{
				"order":   order,
				"warning": "order created but notification delivery failed",
			})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrders lists the caller's orders, newest first.
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.CallerID(c)
	if err != nil {
		c.Error(apperrors.New(apperrors.CodeUnauthorized))
		return
	}

	orders, err := oc.orderService.GetUserOrders(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{Orders: orders, TotalCount: len(orders)})
}

// GetOrder returns one of the caller's orders with full detail.
func (oc *OrderController) GetOrder(c *gin.Context) {
	userID, err := middleware.CallerID(c)
	if err != nil {
		c.Error(apperrors.New(apperrors.CodeUnauthorized))
		return
	}
	orderID := c.Param("order_id")

	order, err := oc.orderService.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrderStatus returns the lightweight status view of one of the
// caller's orders.
func (oc *OrderController) GetOrderStatus(c *gin.Context) {
	userID, err := middleware.CallerID(c)
	if err != nil {
		c.Error(apperrors.New(apperrors.CodeUnauthorized))
		return
	}
	orderID := c.Param("order_id")

	// Ownership check first so another user's order reads as not found
	// rather than leaking its existence.
	if _, err := oc.orderService.GetOrder(c.Request.Context(), userID, orderID); err != nil {
		c.Error(err)
		return
	}

	status, err := oc.orderService.TrackOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// CancelOrder hard-deletes an order that has not yet been paid.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	userID, err := middleware.CallerID(c)
	if err != nil {
		c.Error(apperrors.New(apperrors.CodeUnauthorized))
		return
	}
	orderID := c.Param("order_id")

	if err := oc.orderService.CancelOrder(c.Request.Context(), userID, orderID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.GenericResponse{Message: "Order cancelled successfully"})
}

// ProcessPayment records the payment outcome for a pending order.
func (oc *OrderController) ProcessPayment(c *gin.Context) {
	userID, err := middleware.CallerID(c)
	if err != nil {
		c.Error(apperrors.New(apperrors.CodeUnauthorized))
		return
	}
	orderID := c.Param("order_id")

	var req models.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error()))
		return
	}

	order, err := oc.orderService.ProcessPayment(c.Request.Context(), userID, orderID, &req)
	if err != nil {
		if errors.Is(err, services.ErrEventPublishFailed) {
			c.JSON(http.StatusOK, gin.H{
				"order":   order,
				"warning": "payment recorded but notification delivery failed",
			})
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}
