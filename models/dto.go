package models

import "github.com/shopspring/decimal"

type RegisterUserRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=50"`
	LastName  string `json:"last_name" binding:"required,min=2,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=200"`
}

type CreateStaffRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=50"`
	LastName  string `json:"last_name" binding:"required,min=2,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=200"`
	Role      string `json:"role" binding:"required,oneof=staff admin"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=200"`
}

type UserDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type LoginUserResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserListResponse struct {
	Users []UserDTO `json:"users"`
	Count int       `json:"count"`
}

type OrderItemDTO struct {
	ProductID   string          `json:"product_id" binding:"required,max=100"`
	ProductName string          `json:"product_name" binding:"required,max=200"`
	Quantity    int             `json:"quantity" binding:"required,gt=0,lte=1000"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Subtotal    decimal.Decimal `json:"subtotal" binding:"required"`
}

type CreateOrderRequest struct {
	DeliveryAddress string         `json:"delivery_address" binding:"required,min=10,max=500"`
	Items           []OrderItemDTO `json:"items" binding:"required,min=1,dive"`
}

type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,max=50"`
	PaymentStatus string `json:"payment_status" binding:"required,oneof=success fail"`
}

type UpdateFulfilmentRequest struct {
	Action string `json:"action" binding:"required,oneof=start complete cancel"`
}

type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	TotalCount int     `json:"total_count"`
}

type OrderStatusResponse struct {
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	CreatedAt int64       `json:"created_at"`
	UpdatedAt int64       `json:"updated_at"`
}

type GenericResponse struct {
	Message string `json:"message"`
}
