// Package dynamodb stores users and friendships in a single DynamoDB table.
//
// Item layout:
//
//	USER#<id>       PROFILE              user profile
//	EMAIL#<email>   EMAIL                email reservation
//	USER#<owner>    FRIEND#<friend>      friend is a friend of owner
//	USER#<friend>   FRIEND_OF#<owner>    reverse of the edge above
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"friendship-backend/application/ports"
	"friendship-backend/domain/core/valueobjects"
)

const (
	userPrefix     = "USER#"
	emailPrefix    = "EMAIL#"
	friendPrefix   = "FRIEND#"
	friendOfPrefix = "FRIEND_OF#"
	profileSK      = "PROFILE"
	emailSK        = "EMAIL"

	entityUser     = "USER"
	entityEmail    = "EMAIL"
	entityFriend   = "FRIEND"
	entityFriendOf = "FRIEND_OF"

	// maxTransactItems is the TransactWriteItems limit
	maxTransactItems = 100
	// maxBatchGetKeys is the BatchGetItem limit
	maxBatchGetKeys = 100
	// queryConcurrency bounds the per-node queries of one frontier expansion
	queryConcurrency = 8
)

// API is the subset of the DynamoDB client the store uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Compile-time interface checks
var _ API = (*dynamodb.Client)(nil)
var _ ports.Store = (*Store)(nil)

// Store implements ports.Store on DynamoDB
type Store struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewStore creates a store over an existing table
func NewStore(client API, tableName string, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// NewClient creates a DynamoDB client. A non-empty endpoint targets a local
// emulator such as DynamoDB Local.
func NewClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// Ping checks that the table exists and is reachable
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return s.translate("ping", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// userItem represents the DynamoDB item structure for a user profile
type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	Name       string `dynamodbav:"Name"`
	Email      string `dynamodbav:"Email"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// emailItem reserves an email for one user
type emailItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

// edgeItem represents one side of a directed edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	FriendID   string `dynamodbav:"FriendID"`
	FriendOfID string `dynamodbav:"FriendOfID"`
}

func userPK(id valueobjects.UserID) string {
	return userPrefix + id.String()
}

func emailPK(email string) string {
	return emailPrefix + email
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func profileKey(id valueobjects.UserID) map[string]types.AttributeValue {
	return key(userPK(id), profileSK)
}

func emailKey(email string) map[string]types.AttributeValue {
	return key(emailPK(email), emailSK)
}

func marshal(v any) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	return av, nil
}
