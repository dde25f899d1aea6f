package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/amangirdhar210/order-processing-system/models"
)

// UserRepository persists accounts under two projections:
//
//	EMAIL#<email> / USER#<id>   (login and uniqueness lookups)
//	USER#<id>     / PROFILE     (canonical lookup)
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, userID, email string) error
}

type DynamoUserRepository struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoUserRepository(client DynamoDBAPI, table string) *DynamoUserRepository {
	return &DynamoUserRepository{client: client, table: table}
}

type ddbUser struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	UserID    string `dynamodbav:"user_id"`
	FirstName string `dynamodbav:"first_name"`
	LastName  string `dynamodbav:"last_name"`
	Email     string `dynamodbav:"email"`
	Password  string `dynamodbav:"password"`
	Role      string `dynamodbav:"role"`
	CreatedAt int64  `dynamodbav:"created_at"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

func emailPK(email string) string {
	return "EMAIL#" + email
}

func userPK(userID string) string {
	return "USER#" + userID
}

func userSK(userID string) string {
	return "USER#" + userID
}

const userProfileSK = "PROFILE"

func toDDBUser(user *models.User, pk, sk string) ddbUser {
	return ddbUser{
		PK:        pk,
		SK:        sk,
		UserID:    user.UserID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Password:  user.Password,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (d ddbUser) toModel() models.User {
	role := d.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.User{
		UserID:    d.UserID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Password:  d.Password,
		Role:      role,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Create writes both projections in one transaction. The email projection is
// guarded with attribute_not_exists so two registrations racing on the same
// email cannot both commit.
func (r *DynamoUserRepository) Create(ctx context.Context, user *models.User) error {
	emailItem, err := attributevalue.MarshalMap(toDDBUser(user, emailPK(user.Email), userSK(user.UserID)))
	if err != nil {
		return fmt.Errorf("marshal user email projection: %w", err)
	}
	profileItem, err := attributevalue.MarshalMap(toDDBUser(user, userPK(user.UserID), userProfileSK))
	if err != nil {
		return fmt.Errorf("marshal user profile projection: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           &r.table,
				Item:                emailItem,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName: &r.table,
				Item:      profileItem,
			}},
		},
	})
	if err != nil {
		if isConditionalCancellation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("transact create user %s: %w", user.UserID, err)
	}
	return nil
}

// GetByEmail queries the email partition. Returns nil without error when no
// account uses the address.
func (r *DynamoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.table,
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: emailPK(email)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb Query failed: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var item ddbUser
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("unmarshal user item: %w", err)
	}
	user := item.toModel()
	return &user, nil
}

func (r *DynamoUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": userProfileSK,
	})
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

	var item ddbUser
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal user item: %w", err)
	}
	user := item.toModel()
	return &user, nil
}

// GetAll scans the profile projections. Admin-only listing; user cardinality
// is operator-controlled, orders never go through a scan.
func (r *DynamoUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	input := &dynamodb.ScanInput{
		TableName:        &r.table,
		FilterExpression: aws.String("SK = :profile"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":profile": &types.AttributeValueMemberS{Value: userProfileSK},
		},
	}

	var users []models.User
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, raw := range page.Items {
			var item ddbUser
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshal user item: %w", err)
			}
			users = append(users, item.toModel())
		}
	}
	return users, nil
}

// Delete removes both projections atomically.
func (r *DynamoUserRepository) Delete(ctx context.Context, userID, email string) error {
	emailKey, err := attributevalue.MarshalMap(map[string]string{
		"PK": emailPK(email),
		"SK": userSK(userID),
	})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	profileKey, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": userProfileSK,
	})
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: &r.table, Key: emailKey}},
			{Delete: &types.Delete{TableName: &r.table, Key: profileKey}},
		},
	})
	if err != nil {
		return fmt.Errorf("transact delete user %s: %w", userID, err)
	}
	return nil
}
