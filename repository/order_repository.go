package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/amangirdhar210/order-processing-system/models"
)

// OrderRepository owns the physical layout and atomicity of order
// persistence. Every order lives in the table three times:
//
//	STATUS#<status> / <created-date>#ORDER#<id>   (staff listing by status)
//	ORDERS#<user>   / ORDER#<id>                  (customer orders)
//	ORDER#<id>      / DETAILS                     (canonical lookup)
//
// The three projections carry full copies of the business fields and are
// only ever written together in one transaction.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	GetByUserAndOrderID(ctx context.Context, userID, orderID string) (*models.Order, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error
	Delete(ctx context.Context, userID, orderID string, status models.OrderStatus) error
}

// DynamoOrderRepository implements OrderRepository on a single DynamoDB table.
type DynamoOrderRepository struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoOrderRepository(client DynamoDBAPI, table string) *DynamoOrderRepository {
	return &DynamoOrderRepository{client: client, table: table}
}

type ddbOrderItem struct {
	ProductID   string     `dynamodbav:"product_id"`
	ProductName string     `dynamodbav:"product_name"`
	Quantity    int        `dynamodbav:"quantity"`
	UnitPrice   ddbDecimal `dynamodbav:"unit_price"`
	Subtotal    ddbDecimal `dynamodbav:"subtotal"`
}

type ddbPaymentDetails struct {
	PaymentMethod string `dynamodbav:"payment_method"`
	TransactionID string `dynamodbav:"transaction_id"`
	PaymentStatus string `dynamodbav:"payment_status"`
	ProcessedAt   int64  `dynamodbav:"processed_at"`
}

type ddbStatusChange struct {
	FromStatus string `dynamodbav:"from_status"`
	ToStatus   string `dynamodbav:"to_status"`
	ChangedAt  int64  `dynamodbav:"changed_at"`
	ChangedBy  string `dynamodbav:"changed_by"`
}

type ddbOrder struct {
	PK              string             `dynamodbav:"PK"`
	SK              string             `dynamodbav:"SK"`
	OrderID         string             `dynamodbav:"order_id"`
	UserID          string             `dynamodbav:"user_id"`
	DeliveryAddress string             `dynamodbav:"delivery_address"`
	OrderStatus     string             `dynamodbav:"order_status"`
	Items           []ddbOrderItem     `dynamodbav:"items"`
	TotalAmount     ddbDecimal         `dynamodbav:"total_amount"`
	PaymentDetails  *ddbPaymentDetails `dynamodbav:"payment_details,omitempty"`
	StatusHistory   []ddbStatusChange  `dynamodbav:"status_history"`
	CreatedAt       int64              `dynamodbav:"created_at"`
	UpdatedAt       int64              `dynamodbav:"updated_at"`
}

func statusPK(status models.OrderStatus) string {
	return "STATUS#" + string(status)
}

// statusSK encodes the order's UTC creation date so a status partition sorts
// chronologically. Always derived from created_at, never updated_at, so the
// key stays stable across transitions.
func statusSK(createdAt int64, orderID string) string {
	date := time.Unix(createdAt, 0).UTC().Format("2006-01-02")
	return fmt.Sprintf("%s#ORDER#%s", date, orderID)
}

func userOrdersPK(userID string) string {
	return "ORDERS#" + userID
}

func userOrderSK(orderID string) string {
	return "ORDER#" + orderID
}

func orderPK(orderID string) string {
	return "ORDER#" + orderID
}

const orderDetailsSK = "DETAILS"

func toDDBOrder(order *models.Order, pk, sk string) ddbOrder {
	items := make([]ddbOrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, ddbOrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   ddbDecimal{it.UnitPrice},
			Subtotal:    ddbDecimal{it.Subtotal},
		})
	}

	history := make([]ddbStatusChange, 0, len(order.StatusHistory))
	for _, sc := range order.StatusHistory {
		history = append(history, ddbStatusChange{
			FromStatus: string(sc.FromStatus),
			ToStatus:   string(sc.ToStatus),
			ChangedAt:  sc.ChangedAt,
			ChangedBy:  sc.ChangedBy,
		})
	}

	item := ddbOrder{
		PK:              pk,
		SK:              sk,
		OrderID:         order.OrderID,
		UserID:          order.UserID,
		DeliveryAddress: order.DeliveryAddress,
		OrderStatus:     string(order.Status),
		Items:           items,
		TotalAmount:     ddbDecimal{order.TotalAmount},
		StatusHistory:   history,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.PaymentDetails != nil {
		item.PaymentDetails = &ddbPaymentDetails{
			PaymentMethod: order.PaymentDetails.PaymentMethod,
			TransactionID: order.PaymentDetails.TransactionID,
			PaymentStatus: order.PaymentDetails.PaymentStatus,
			ProcessedAt:   order.PaymentDetails.ProcessedAt,
		}
	}
	return item
}

func (d ddbOrder) toModel() models.Order {
	items := make([]models.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.Decimal,
			Subtotal:    it.Subtotal.Decimal,
		})
	}

	history := make([]models.StatusChange, 0, len(d.StatusHistory))
	for _, sc := range d.StatusHistory {
		history = append(history, models.StatusChange{
			FromStatus: models.OrderStatus(sc.FromStatus),
			ToStatus:   models.OrderStatus(sc.ToStatus),
			ChangedAt:  sc.ChangedAt,
			ChangedBy:  sc.ChangedBy,
		})
	}

	order := models.Order{
		OrderID:         d.OrderID,
		UserID:          d.UserID,
		DeliveryAddress: d.DeliveryAddress,
		Status:          models.OrderStatus(d.OrderStatus),
		Items:           items,
		TotalAmount:     d.TotalAmount.Decimal,
		StatusHistory:   history,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.PaymentDetails != nil {
		order.PaymentDetails = &models.PaymentDetails{
			PaymentMethod: d.PaymentDetails.PaymentMethod,
			TransactionID: d.PaymentDetails.TransactionID,
			PaymentStatus: d.PaymentDetails.PaymentStatus,
			ProcessedAt:   d.PaymentDetails.ProcessedAt,
		}
	}
	return order
}

// Create writes all three projections of a brand-new order in one
// transaction. Either every projection becomes visible or none does.
func (r *DynamoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	projections := []ddbOrder{
		toDDBOrder(order, statusPK(order.Status), statusSK(order.CreatedAt, order.OrderID)),
		toDDBOrder(order, userOrdersPK(order.UserID), userOrderSK(order.OrderID)),
		toDDBOrder(order, orderPK(order.OrderID), orderDetailsSK),
	}

	transactItems := make([]types.TransactWriteItem, 0, len(projections))
	for _, p := range projections {
		item, err := attributevalue.MarshalMap(p)
		if err != nil {
			return fmt.Errorf("marshal order projection: %w", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: &r.table,
				Item:      item,
			},
		})
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		return fmt.Errorf("transact create order %s: %w", order.OrderID, err)
	}
	return nil
}

// GetByOrderID looks up the canonical projection. Returns nil without error
// when the order does not exist.
func (r *DynamoOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return r.getItem(ctx, orderPK(orderID), orderDetailsSK)
}

// GetByUserAndOrderID looks up the customer projection, which only holds the
// order if it belongs to the given user.
func (r *DynamoOrderRepository) GetByUserAndOrderID(ctx context.Context, userID, orderID string) (*models.Order, error) {
	return r.getItem(ctx, userOrdersPK(userID), userOrderSK(orderID))
}

func (r *DynamoOrderRepository) getItem(ctx context.Context, pk, sk string) (*models.Order, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": pk, "SK": sk})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.table,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item ddbOrder
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal order item: %w", err)
	}
	order := item.toModel()
	return &order, nil
}

// GetByUser returns every order in the customer's partition.
func (r *DynamoOrderRepository) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              &r.table,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userOrdersPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: "ORDER#"},
		},
	})
}

// GetByStatus returns the status partition newest-first. The sort key starts
// with the creation date, so reverse order is reverse chronological.
func (r *DynamoOrderRepository) GetByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              &r.table,
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: statusPK(status)},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

// GetAll concatenates the status partitions. The status enum is small and
// fixed, so this is a bounded number of range queries, not a table scan.
func (r *DynamoOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var all []models.Order
	for _, status := range models.AllOrderStatuses {
		orders, err := r.GetByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		all = append(all, orders...)
	}
	return all, nil
}

func (r *DynamoOrderRepository) query(ctx context.Context, input *dynamodb.QueryInput) ([]models.Order, error) {
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("dynamodb Query failed: %w", err)
	}

	orders := make([]models.Order, 0, len(out.Items))
	for _, raw := range out.Items {
		var item ddbOrder
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal order item: %w", err)
		}
		orders = append(orders, item.toModel())
	}
	return orders, nil
}

// UpdateStatus commits one transition atomically across all three
// projections. The status projection's partition key encodes the status, so
// the stale item is deleted and a fresh one written; the user and canonical
// projections are updated in place. Both in-place updates are guarded on the
// pivot status so a racing transition surfaces as ErrStatusConflict instead
// of silently corrupting the status partition.
func (r *DynamoOrderRepository) UpdateStatus(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error {
	statusItem, err := attributevalue.MarshalMap(
		toDDBOrder(order, statusPK(order.Status), statusSK(order.CreatedAt, order.OrderID)))
	if err != nil {
		return fmt.Errorf("marshal status projection: %w", err)
	}

	oldStatusKey, err := attributevalue.MarshalMap(map[string]string{
		"PK": statusPK(oldStatus),
		"SK": statusSK(order.CreatedAt, order.OrderID),
	})
	if err != nil {
		return fmt.Errorf("marshal old status key: %w", err)
	}

	updateExpr := "SET order_status = :status, updated_at = :updated, status_history = :history"
	exprValues := map[string]types.AttributeValue{
		":status":  &types.AttributeValueMemberS{Value: string(order.Status)},
		":old":     &types.AttributeValueMemberS{Value: string(oldStatus)},
		":updated": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", order.UpdatedAt)},
	}

	history := make([]ddbStatusChange, 0, len(order.StatusHistory))
	for _, sc := range order.StatusHistory {
		history = append(history, ddbStatusChange{
			FromStatus: string(sc.FromStatus),
			ToStatus:   string(sc.ToStatus),
			ChangedAt:  sc.ChangedAt,
			ChangedBy:  sc.ChangedBy,
		})
	}
	historyAV, err := attributevalue.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal status history: %w", err)
	}
	exprValues[":history"] = historyAV

	if order.PaymentDetails != nil {
		paymentAV, err := attributevalue.Marshal(&ddbPaymentDetails{
			PaymentMethod: order.PaymentDetails.PaymentMethod,
			TransactionID: order.PaymentDetails.TransactionID,
			PaymentStatus: order.PaymentDetails.PaymentStatus,
			ProcessedAt:   order.PaymentDetails.ProcessedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal payment details: %w", err)
		}
		updateExpr += ", payment_details = :payment"
		exprValues[":payment"] = paymentAV
	}

	updateProjection := func(pk, sk string) (*types.Update, error) {
		key, err := attributevalue.MarshalMap(map[string]string{"PK": pk, "SK": sk})
		if err != nil {
			return nil, fmt.Errorf("marshal key: %w", err)
		}
		return &types.Update{
			TableName:                 &r.table,
			Key:                       key,
			UpdateExpression:          aws.String(updateExpr),
			ConditionExpression:       aws.String("order_status = :old"),
			ExpressionAttributeValues: exprValues,
		}, nil
	}

	userUpdate, err := updateProjection(userOrdersPK(order.UserID), userOrderSK(order.OrderID))
	if err != nil {
		return err
	}
	detailsUpdate, err := updateProjection(orderPK(order.OrderID), orderDetailsSK)
	if err != nil {
		return err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           &r.table,
				Key:                 oldStatusKey,
				ConditionExpression: aws.String("attribute_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName: &r.table,
				Item:      statusItem,
			}},
			{Update: userUpdate},
			{Update: detailsUpdate},
		},
	})
	if err != nil {
		if isConditionalCancellation(err) {
			return ErrStatusConflict
		}
		return fmt.Errorf("transact update order %s: %w", order.OrderID, err)
	}
	return nil
}

// Delete removes all three projections of a cancellable order. The caller
// supplies the current status, which determines the status-partition key;
// the canonical delete is guarded on that status so a concurrent transition
// cancels the whole transaction.
func (r *DynamoOrderRepository) Delete(ctx context.Context, userID, orderID string, status models.OrderStatus) error {
	order, err := r.GetByUserAndOrderID(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	keys := []map[string]string{
		{"PK": statusPK(status), "SK": statusSK(order.CreatedAt, orderID)},
		{"PK": userOrdersPK(userID), "SK": userOrderSK(orderID)},
		{"PK": orderPK(orderID), "SK": orderDetailsSK},
	}

	transactItems := make([]types.TransactWriteItem, 0, len(keys))
	for i, k := range keys {
		key, err := attributevalue.MarshalMap(k)
		if err != nil {
			return fmt.Errorf("marshal key: %w", err)
		}
		del := &types.Delete{
			TableName: &r.table,
			Key:       key,
		}
		// Guard the canonical projection on the expected status.
		if i == len(keys)-1 {
			del.ConditionExpression = aws.String("order_status = :status")
			del.ExpressionAttributeValues = map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(status)},
			}
		}
		transactItems = append(transactItems, types.TransactWriteItem{Delete: del})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if isConditionalCancellation(err) {
			return ErrStatusConflict
		}
		return fmt.Errorf("transact delete order %s: %w", orderID, err)
	}
	return nil
}
