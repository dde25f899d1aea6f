package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/amangirdhar210/order-processing-system/errors"
	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/repository"
)

// ErrEventPublishFailed marks an operation whose state change committed but
// whose notification could not be delivered. Callers must treat the
// transition as final; only the notification was lost.
var ErrEventPublishFailed = errors.New("notification publish failed")

// changedBySystem is recorded in the status history for staff-triggered
// fulfilment transitions.
const changedBySystem = "system"

// OrderService owns the order lifecycle state machine. Every mutating
// operation loads the order, checks the status precondition, appends a
// history record, persists through the repository using the pre-mutation
// status as the pivot, and publishes one event per transition.
type OrderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, publisher EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder places a new order for an existing user. The total is always
// recomputed from the item subtotals, never trusted from the caller.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.CodeUserNotFound)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, dto := range req.Items {
		item := models.OrderItem{
			ProductID:   dto.ProductID,
			ProductName: dto.ProductName,
			Quantity:    dto.Quantity,
			UnitPrice:   dto.UnitPrice,
			Subtotal:    dto.Subtotal,
		}
		items = append(items, item)
		total = total.Add(item.Subtotal)
	}

	now := time.Now().Unix()
	order := &models.Order{
		OrderID:         uuid.NewString(),
		UserID:          userID,
		DeliveryAddress: req.DeliveryAddress,
		Status:          models.StatusPaymentPending,
		Items:           items,
		TotalAmount:     total,
		StatusHistory:   []models.StatusChange{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := order.Validate(); err != nil {
		return nil, apperrors.WithDetails(apperrors.CodeInvalidInput, err.Error())
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", userID),
	)

	if err := s.publishEvent(ctx, models.EventOrderCreated, order); err != nil {
		// Committed; the caller gets the order plus the publish failure.
		return order, err
	}
	return order, nil
}

// CancelOrder deletes a cancellable order. Cancellation is a hard delete,
// not a transition, and publishes no event.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID string) error {
	order, err := s.orderRepo.GetByUserAndOrderID(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return apperrors.New(apperrors.CodeOrderNotFound)
	}

	if order.Status != models.StatusPaymentPending && order.Status != models.StatusPaymentFailed {
		return apperrors.New(apperrors.CodeOrderNotCancellable)
	}

	if err := s.orderRepo.Delete(ctx, userID, orderID, order.Status); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperrors.New(apperrors.CodeOrderStatusConflict)
		}
		return err
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", orderID),
		zap.String("user_id", userID),
	)
	return nil
}

// ProcessPayment records a payment attempt on a pending order. A successful
// attempt confirms the order, a failed one moves it to PAYMENT_FAILED; both
// outcomes attach payment details and publish the matching event.
func (s *OrderService) ProcessPayment(ctx context.Context, userID, orderID string, req *models.ProcessPaymentRequest) (*models.Order, error) {
	order, err := s.orderRepo.GetByUserAndOrderID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeOrderNotFound)
	}

	if order.Status != models.StatusPaymentPending {
		return nil, apperrors.New(apperrors.CodeInvalidOrderStatus)
	}

	newStatus := models.StatusPaymentConfirmed
	eventType := models.EventPaymentConfirmed
	if req.PaymentStatus == models.PaymentStatusFail {
		newStatus = models.StatusPaymentFailed
		eventType = models.EventPaymentFailed
	}

	order.PaymentDetails = &models.PaymentDetails{
		PaymentMethod: req.PaymentMethod,
		TransactionID: uuid.NewString(),
		PaymentStatus: req.PaymentStatus,
		ProcessedAt:   time.Now().Unix(),
	}

	if err := s.applyTransition(ctx, order, newStatus, userID, eventType); err != nil {
		if errors.Is(err, ErrEventPublishFailed) {
			return order, err
		}
		return nil, err
	}
	return order, nil
}

// StartFulfilment moves a paid order into fulfilment.
func (s *OrderService) StartFulfilment(ctx context.Context, orderID string) (*models.Order, error) {
	return s.fulfilmentTransition(ctx, orderID,
		models.StatusPaymentConfirmed, models.StatusFulfillmentInProgress, models.EventFulfillmentStarted)
}

// CompleteFulfilment finishes fulfilment. FULFILLED is terminal.
func (s *OrderService) CompleteFulfilment(ctx context.Context, orderID string) (*models.Order, error) {
	return s.fulfilmentTransition(ctx, orderID,
		models.StatusFulfillmentInProgress, models.StatusFulfilled, models.EventFulfilled)
}

// CancelFulfilment aborts fulfilment. FULFILLMENT_FAILED is terminal.
func (s *OrderService) CancelFulfilment(ctx context.Context, orderID string) (*models.Order, error) {
	return s.fulfilmentTransition(ctx, orderID,
		models.StatusFulfillmentInProgress, models.StatusFulfillmentFailed, models.EventFulfillmentCancelled)
}

func (s *OrderService) fulfilmentTransition(ctx context.Context, orderID string, required, next models.OrderStatus, eventType models.NotificationEventType) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeOrderNotFound)
	}

	if order.Status != required {
		return nil, apperrors.New(apperrors.CodeInvalidOrderStatus)
	}

	if err := s.applyTransition(ctx, order, next, changedBySystem, eventType); err != nil {
		if errors.Is(err, ErrEventPublishFailed) {
			return order, err
		}
		return nil, err
	}
	return order, nil
}

// applyTransition mutates the order in memory, commits all projections
// through the repository keyed on the pre-mutation status, then publishes
// the event. The publish happens strictly after the commit; its failure is
// surfaced but never rolls the transition back.
func (s *OrderService) applyTransition(ctx context.Context, order *models.Order, newStatus models.OrderStatus, changedBy string, eventType models.NotificationEventType) error {
	oldStatus := order.Status
	now := time.Now().Unix()

	order.StatusHistory = append(order.StatusHistory, models.StatusChange{
		FromStatus: oldStatus,
		ToStatus:   newStatus,
		ChangedAt:  now,
		ChangedBy:  changedBy,
	})
	order.Status = newStatus
	order.UpdatedAt = now

	if err := s.orderRepo.UpdateStatus(ctx, order, oldStatus); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperrors.New(apperrors.CodeOrderStatusConflict)
		}
		return err
	}

	s.logger.Info("Order transitioned",
		zap.String("order_id", order.OrderID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(newStatus)),
	)

	return s.publishEvent(ctx, eventType, order)
}

func (s *OrderService) publishEvent(ctx context.Context, eventType models.NotificationEventType, order *models.Order) error {
	event := &models.NotificationEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		OccurredAt: time.Now().Unix(),
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("Event publish failed after commit",
			zap.String("event_type", string(eventType)),
			zap.String("order_id", order.OrderID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s for order %s: %v", ErrEventPublishFailed, eventType, order.OrderID, err)
	}
	return nil
}

// GetOrderByID returns an order regardless of owner (staff lookups).
func (s *OrderService) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeOrderNotFound)
	}
	return order, nil
}

// GetOrder returns an order only if it belongs to the given user.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByUserAndOrderID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeOrderNotFound)
	}
	return order, nil
}

// TrackOrderStatus returns the lightweight status view of an order.
func (s *OrderService) TrackOrderStatus(ctx context.Context, orderID string) (*models.OrderStatusResponse, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeOrderNotFound)
	}
	return &models.OrderStatusResponse{
		OrderID:   order.OrderID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}, nil
}

// GetUserOrders lists a customer's own orders.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(ctx, userID)
}

// GetOrdersByStatus lists orders in one status, or across every status when
// status is nil.
func (s *OrderService) GetOrdersByStatus(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	if status == nil {
		return s.orderRepo.GetAll(ctx)
	}
	return s.orderRepo.GetByStatus(ctx, *status)
}
