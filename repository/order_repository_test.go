package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amangirdhar210/order-processing-system/models"
)

type MockDynamoDBAPI struct {
	mock.Mock
}

func (m *MockDynamoDBAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.GetItemOutput), args.Error(1)
}

func (m *MockDynamoDBAPI) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func (m *MockDynamoDBAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.ScanOutput), args.Error(1)
}

func (m *MockDynamoDBAPI) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.TransactWriteItemsOutput), args.Error(1)
}

const testTable = "orders-test"

// createdAt 2023-11-14T22:13:20Z, so the status sort key date is 2023-11-14.
func sampleOrder() *models.Order {
	return &models.Order{
		OrderID:         "order-1",
		UserID:          "user-1",
		DeliveryAddress: "221B Baker Street, London",
		Status:          models.StatusPaymentPending,
		Items: []models.OrderItem{{
			ProductID:   "prod-1",
			ProductName: "Widget",
			Quantity:    2,
			UnitPrice:   decimal.NewFromFloat(10.00),
			Subtotal:    decimal.NewFromFloat(20.00),
		}},
		TotalAmount:   decimal.NewFromFloat(20.00),
		StatusHistory: []models.StatusChange{},
		CreatedAt:     1700000000,
		UpdatedAt:     1700000000,
	}
}

func itemString(item map[string]types.AttributeValue, attr string) string {
	av, ok := item[attr]
	if !ok {
		return ""
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return s.Value
}

func conditionCancelled() error {
	return &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}
}

func TestOrderRepositoryCreate(t *testing.T) {
	t.Run("writes all three projections in one transaction", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		var captured *dynamodb.TransactWriteItemsInput
		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*dynamodb.TransactWriteItemsInput)
			}).
			Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		err := repo.Create(context.Background(), sampleOrder())

		require.NoError(t, err)
		require.NotNil(t, captured)
		require.Len(t, captured.TransactItems, 3)
		for _, ti := range captured.TransactItems {
			require.NotNil(t, ti.Put)
			assert.Equal(t, testTable, *ti.Put.TableName)
		}

		statusItem := captured.TransactItems[0].Put.Item
		assert.Equal(t, "STATUS#PAYMENT_PENDING", itemString(statusItem, "PK"))
		assert.Equal(t, "2023-11-14#ORDER#order-1", itemString(statusItem, "SK"))

		userItem := captured.TransactItems[1].Put.Item
		assert.Equal(t, "ORDERS#user-1", itemString(userItem, "PK"))
		assert.Equal(t, "ORDER#order-1", itemString(userItem, "SK"))

		detailsItem := captured.TransactItems[2].Put.Item
		assert.Equal(t, "ORDER#order-1", itemString(detailsItem, "PK"))
		assert.Equal(t, "DETAILS", itemString(detailsItem, "SK"))

		// Money attributes are stored as fixed two-decimal numbers.
		total, ok := detailsItem["total_amount"].(*types.AttributeValueMemberN)
		require.True(t, ok)
		assert.Equal(t, "20.00", total.Value)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Return(nil, errors.New("throttled")).Once()

		err := repo.Create(context.Background(), sampleOrder())
		assert.Error(t, err)
	})
}

func TestOrderRepositoryUpdateStatus(t *testing.T) {
	transitioned := func() *models.Order {
		o := sampleOrder()
		o.Status = models.StatusPaymentConfirmed
		o.UpdatedAt = 1700000100
		o.StatusHistory = []models.StatusChange{{
			FromStatus: models.StatusPaymentPending,
			ToStatus:   models.StatusPaymentConfirmed,
			ChangedAt:  1700000100,
			ChangedBy:  "user-1",
		}}
		o.PaymentDetails = &models.PaymentDetails{
			PaymentMethod: "card",
			TransactionID: "txn-1",
			PaymentStatus: models.PaymentStatusSuccess,
			ProcessedAt:   1700000100,
		}
		return o
	}

	t.Run("relocates status item and guards in-place updates", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		var captured *dynamodb.TransactWriteItemsInput
		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*dynamodb.TransactWriteItemsInput)
			}).
			Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		err := repo.UpdateStatus(context.Background(), transitioned(), models.StatusPaymentPending)

		require.NoError(t, err)
		require.NotNil(t, captured)
		require.Len(t, captured.TransactItems, 4)

		del := captured.TransactItems[0].Delete
		require.NotNil(t, del)
		assert.Equal(t, "STATUS#PAYMENT_PENDING", itemString(del.Key, "PK"))
		assert.Equal(t, "2023-11-14#ORDER#order-1", itemString(del.Key, "SK"))
		assert.Equal(t, "attribute_exists(PK)", *del.ConditionExpression)

		put := captured.TransactItems[1].Put
		require.NotNil(t, put)
		assert.Equal(t, "STATUS#PAYMENT_CONFIRMED", itemString(put.Item, "PK"))
		assert.Equal(t, "2023-11-14#ORDER#order-1", itemString(put.Item, "SK"))

		for _, idx := range []int{2, 3} {
			upd := captured.TransactItems[idx].Update
			require.NotNil(t, upd)
			assert.Equal(t, "order_status = :old", *upd.ConditionExpression)
			assert.Contains(t, *upd.UpdateExpression, "order_status = :status")
			assert.Contains(t, *upd.UpdateExpression, "payment_details = :payment")
			old, ok := upd.ExpressionAttributeValues[":old"].(*types.AttributeValueMemberS)
			require.True(t, ok)
			assert.Equal(t, "PAYMENT_PENDING", old.Value)
		}

		userUpdate := captured.TransactItems[2].Update
		assert.Equal(t, "ORDERS#user-1", itemString(userUpdate.Key, "PK"))
		detailsUpdate := captured.TransactItems[3].Update
		assert.Equal(t, "ORDER#order-1", itemString(detailsUpdate.Key, "PK"))
	})

	t.Run("omits payment details clause when absent", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		order := transitioned()
		order.PaymentDetails = nil

		var captured *dynamodb.TransactWriteItemsInput
		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*dynamodb.TransactWriteItemsInput)
			}).
			Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		err := repo.UpdateStatus(context.Background(), order, models.StatusPaymentPending)

		require.NoError(t, err)
		upd := captured.TransactItems[2].Update
		assert.NotContains(t, *upd.UpdateExpression, "payment_details")
	})

	t.Run("condition failure maps to ErrStatusConflict", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Return(nil, conditionCancelled()).Once()

		err := repo.UpdateStatus(context.Background(), transitioned(), models.StatusPaymentPending)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})
}

func TestOrderRepositoryDelete(t *testing.T) {
	storedItem := func(t *testing.T) map[string]types.AttributeValue {
		t.Helper()
		item, err := attributevalue.MarshalMap(
			toDDBOrder(sampleOrder(), userOrdersPK("user-1"), userOrderSK("order-1")))
		require.NoError(t, err)
		return item
	}

	t.Run("deletes all projections with guarded canonical delete", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("GetItem", mock.Anything, mock.Anything).
			Return(&dynamodb.GetItemOutput{Item: storedItem(t)}, nil).Once()

		var captured *dynamodb.TransactWriteItemsInput
		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*dynamodb.TransactWriteItemsInput)
			}).
			Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		err := repo.Delete(context.Background(), "user-1", "order-1", models.StatusPaymentPending)

		require.NoError(t, err)
		require.Len(t, captured.TransactItems, 3)

		assert.Equal(t, "STATUS#PAYMENT_PENDING", itemString(captured.TransactItems[0].Delete.Key, "PK"))
		assert.Equal(t, "ORDERS#user-1", itemString(captured.TransactItems[1].Delete.Key, "PK"))

		canonical := captured.TransactItems[2].Delete
		assert.Equal(t, "ORDER#order-1", itemString(canonical.Key, "PK"))
		require.NotNil(t, canonical.ConditionExpression)
		assert.Equal(t, "order_status = :status", *canonical.ConditionExpression)
	})

	t.Run("missing order is a no-op", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("GetItem", mock.Anything, mock.Anything).
			Return(&dynamodb.GetItemOutput{}, nil).Once()

		err := repo.Delete(context.Background(), "user-1", "missing", models.StatusPaymentPending)

		require.NoError(t, err)
		client.AssertNotCalled(t, "TransactWriteItems")
	})

	t.Run("condition failure maps to ErrStatusConflict", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("GetItem", mock.Anything, mock.Anything).
			Return(&dynamodb.GetItemOutput{Item: storedItem(t)}, nil).Once()
		client.On("TransactWriteItems", mock.Anything, mock.Anything).
			Return(nil, conditionCancelled()).Once()

		err := repo.Delete(context.Background(), "user-1", "order-1", models.StatusPaymentPending)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})
}

func TestOrderRepositoryReads(t *testing.T) {
	t.Run("GetByOrderID round-trips the stored item", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		stored, err := attributevalue.MarshalMap(
			toDDBOrder(sampleOrder(), orderPK("order-1"), orderDetailsSK))
		require.NoError(t, err)

		client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			return itemString(in.Key, "PK") == "ORDER#order-1" && itemString(in.Key, "SK") == "DETAILS"
		})).Return(&dynamodb.GetItemOutput{Item: stored}, nil).Once()

		order, err := repo.GetByOrderID(context.Background(), "order-1")

		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, "order-1", order.OrderID)
		assert.Equal(t, models.StatusPaymentPending, order.Status)
		require.Len(t, order.Items, 1)
		assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromFloat(10.00)))
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(20.00)))
	})

	t.Run("GetByOrderID returns nil for missing order", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("GetItem", mock.Anything, mock.Anything).
			Return(&dynamodb.GetItemOutput{}, nil).Once()

		order, err := repo.GetByOrderID(context.Background(), "missing")

		require.NoError(t, err)
		assert.Nil(t, order)
	})

	t.Run("GetByUser queries the customer partition", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			pk, ok := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
			return ok && pk.Value == "ORDERS#user-1"
		})).Return(&dynamodb.QueryOutput{}, nil).Once()

		orders, err := repo.GetByUser(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Empty(t, orders)
		client.AssertExpectations(t)
	})

	t.Run("GetByStatus reads newest first", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			pk, ok := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
			return ok && pk.Value == "STATUS#FULFILLED" &&
				in.ScanIndexForward != nil && !*in.ScanIndexForward
		})).Return(&dynamodb.QueryOutput{}, nil).Once()

		_, err := repo.GetByStatus(context.Background(), models.StatusFulfilled)

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("GetAll fans out one query per status", func(t *testing.T) {
		client := new(MockDynamoDBAPI)
		repo := NewDynamoOrderRepository(client, testTable)

		client.On("Query", mock.Anything, mock.Anything).
			Return(&dynamodb.QueryOutput{}, nil).Times(len(models.AllOrderStatuses))

		_, err := repo.GetAll(context.Background())

		require.NoError(t, err)
		client.AssertExpectations(t)
	})
}
