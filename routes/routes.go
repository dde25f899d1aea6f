package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amangirdhar210/order-processing-system/controllers"
	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/logger"
	"github.com/amangirdhar210/order-processing-system/middleware"
	awspkg "github.com/amangirdhar210/order-processing-system/pkg/aws"
	"github.com/amangirdhar210/order-processing-system/services"
)

// Dependencies carries everything the router needs wired in.
type Dependencies struct {
	Logger      *zap.Logger
	JWTService  *services.JWTService
	Metrics     *awspkg.MetricsClient
	Auth        *controllers.AuthController
	AdminUsers  *controllers.AdminUserController
	Orders      *controllers.OrderController
	StaffOrders *controllers.StaffOrderController
}

// NewRouter builds the gin engine with all route groups registered.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(deps.Logger))
	r.Use(apperrors.ErrorMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(deps.Metrics, "order-api"))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
	}

	orders := r.Group("/orders")
	orders.Use(middleware.Authenticate(deps.JWTService))
	{
		orders.POST("", deps.Orders.CreateOrder)
		orders.GET("", deps.Orders.GetOrders)
		orders.GET("/:order_id", deps.Orders.GetOrder)
		orders.GET("/:order_id/status", deps.Orders.GetOrderStatus)
		orders.DELETE("/:order_id", deps.Orders.CancelOrder)
		orders.POST("/:order_id/payment", deps.Orders.ProcessPayment)
	}

	staff := r.Group("/staff/orders")
	staff.Use(middleware.Authenticate(deps.JWTService), middleware.RequireStaff())
	{
		staff.GET("/all", deps.StaffOrders.GetAllOrders)
		staff.GET("/status/:order_status", deps.StaffOrders.GetOrdersByStatus)
		staff.GET("/:order_id", deps.StaffOrders.GetOrder)
		staff.PATCH("/:order_id/fulfilment", deps.StaffOrders.UpdateFulfilment)
	}

	admin := r.Group("/admin/users")
	admin.Use(middleware.Authenticate(deps.JWTService), middleware.RequireAdmin())
	{
		admin.GET("", deps.AdminUsers.ListUsers)
		admin.POST("/staff", deps.AdminUsers.CreateStaff)
		admin.DELETE("/:user_id", deps.AdminUsers.DeleteUser)
	}

	return r
}
