package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// Create writes the profile and the email reservation in one transaction
func (s *Store) Create(ctx context.Context, user *entities.User) error {
	profile, err := marshal(toUserItem(user))
	if err != nil {
		return pkgerrors.NewInternalError(err.Error())
	}
	reservation, err := marshal(emailItem{
		PK:         emailPK(user.Email()),
		SK:         emailSK,
		EntityType: entityEmail,
		UserID:     user.ID().String(),
	})
	if err != nil {
		return pkgerrors.NewInternalError(err.Error())
	}

	tx := newTransaction(s.tableName)
	tx.put(profile, "attribute_not_exists(PK)", pkgerrors.NewConflictError("user already exists").
		WithDetails(map[string]interface{}{"userId": user.ID().String()}))
	tx.put(reservation, "attribute_not_exists(PK)", pkgerrors.NewUniqueConstraintError("email"))

	if err := s.commit(ctx, "create_user", tx); err != nil {
		return err
	}

	s.logger.Debug("User saved to DynamoDB", zap.String("userID", user.ID().String()))
	return nil
}

// List scans the table for user profiles ordered by creation time, then id
func (s *Store) List(ctx context.Context) ([]*entities.User, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityUser))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	users := []*entities.User{}
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.translate("list_users", err)
		}
		batch, err := unmarshalUsers(page.Items)
		if err != nil {
			return nil, s.translate("list_users", err)
		}
		users = append(users, batch...)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt().Equal(users[j].CreatedAt()) {
			return users[i].CreatedAt().Before(users[j].CreatedAt())
		}
		return users[i].ID().String() < users[j].ID().String()
	})
	return users, nil
}

// GetByID retrieves a user profile
func (s *Store) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            profileKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.translate("get_user", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewUserNotFoundError(id.String())
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, s.translate("get_user", err)
	}
	return fromUserItem(item)
}

// Update rewrites the profile. An email change moves the reservation in the
// same transaction.
func (s *Store) Update(ctx context.Context, user *entities.User) error {
	current, err := s.GetByID(ctx, user.ID())
	if err != nil {
		return err
	}

	notFound := pkgerrors.NewUserNotFoundError(user.ID().String())
	update := expression.Set(expression.Name("Name"), expression.Value(user.Name())).
		Set(expression.Name("Email"), expression.Value(user.Email())).
		Set(expression.Name("UpdatedAt"), expression.Value(formatTime(user.UpdatedAt())))

	if current.Email() == user.Email() {
		expr, err := expression.NewBuilder().
			WithUpdate(update).
			WithCondition(expression.AttributeExists(expression.Name("PK"))).
			Build()
		if err != nil {
			return pkgerrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
		}

		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.tableName),
			Key:                       profileKey(user.ID()),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if isConditionalCheckFailed(err) {
			return notFound
		}
		if err != nil {
			return s.translate("update_user", err)
		}
		return nil
	}

	// The profile must still hold the email the reservation is moved from.
	cond := expression.AttributeExists(expression.Name("PK")).
		And(expression.Name("Email").Equal(expression.Value(current.Email())))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	reservation, err := marshal(emailItem{
		PK:         emailPK(user.Email()),
		SK:         emailSK,
		EntityType: entityEmail,
		UserID:     user.ID().String(),
	})
	if err != nil {
		return pkgerrors.NewInternalError(err.Error())
	}

	tx := newTransaction(s.tableName)
	tx.add(types.TransactWriteItem{Update: &types.Update{
		TableName:                 aws.String(s.tableName),
		Key:                       profileKey(user.ID()),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}}, pkgerrors.NewConflictError("user was modified concurrently"))
	tx.delete(emailKey(current.Email()), "", nil)
	tx.put(reservation, "attribute_not_exists(PK)", pkgerrors.NewUniqueConstraintError("email"))

	return s.commit(ctx, "update_user", tx)
}

// Delete removes the user's edges, then the profile and email reservation.
// Edges are removed in transactions of at most maxTransactItems items, so a
// user with very many edges is deleted in several steps; the profile goes last.
func (s *Store) Delete(ctx context.Context, id valueobjects.UserID) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	items, err := s.queryPartition(ctx, userPK(id), "")
	if err != nil {
		return s.translate("delete_user", err)
	}

	var keys []map[string]types.AttributeValue
	seen := make(map[[2]string]bool)
	addKey := func(pk, sk string) {
		if seen[[2]string{pk, sk}] {
			return
		}
		seen[[2]string{pk, sk}] = true
		keys = append(keys, key(pk, sk))
	}
	for _, item := range items {
		addKey(item.PK, item.SK)
		switch item.EntityType {
		case entityFriend:
			// id owns the edge; the reverse side lives under the friend
			addKey(userPrefix+item.FriendID, friendOfPrefix+id.String())
		case entityFriendOf:
			// id is the friend; the forward side lives under the owner
			addKey(userPrefix+item.FriendOfID, friendPrefix+id.String())
		}
	}

	for start := 0; start < len(keys); start += maxTransactItems {
		end := start + maxTransactItems
		if end > len(keys) {
			end = len(keys)
		}
		tx := newTransaction(s.tableName)
		for _, k := range keys[start:end] {
			tx.delete(k, "", nil)
		}
		if err := s.commit(ctx, "delete_user", tx); err != nil {
			return err
		}
	}

	tx := newTransaction(s.tableName)
	tx.delete(profileKey(id), "attribute_exists(PK)", pkgerrors.NewUserNotFoundError(id.String()))
	tx.delete(emailKey(current.Email()), "", nil)
	if err := s.commit(ctx, "delete_user", tx); err != nil {
		return err
	}

	s.logger.Debug("User deleted from DynamoDB",
		zap.String("userID", id.String()),
		zap.Int("edgeItems", len(keys)),
	)
	return nil
}

// UsersByIDs batch-loads profiles, ascending by id
func (s *Store) UsersByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.User, error) {
	users := []*entities.User{}
	seen := make(map[string]bool, len(ids))

	var keys []map[string]types.AttributeValue
	for _, id := range ids {
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true
		keys = append(keys, profileKey(id))
	}

	for start := 0; start < len(keys); start += maxBatchGetKeys {
		end := start + maxBatchGetKeys
		if end > len(keys) {
			end = len(keys)
		}

		request := map[string]types.KeysAndAttributes{
			s.tableName: {Keys: keys[start:end], ConsistentRead: aws.Bool(true)},
		}
		for len(request) > 0 {
			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, s.translate("users_by_ids", err)
			}
			batch, err := unmarshalUsers(out.Responses[s.tableName])
			if err != nil {
				return nil, s.translate("users_by_ids", err)
			}
			users = append(users, batch...)
			request = out.UnprocessedKeys
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID().String() < users[j].ID().String() })
	return users, nil
}

func toUserItem(user *entities.User) userItem {
	return userItem{
		PK:         userPK(user.ID()),
		SK:         profileSK,
		EntityType: entityUser,
		UserID:     user.ID().String(),
		Name:       user.Name(),
		Email:      user.Email(),
		CreatedAt:  formatTime(user.CreatedAt()),
		UpdatedAt:  formatTime(user.UpdatedAt()),
	}
}

func fromUserItem(item userItem) (*entities.User, error) {
	id, err := valueobjects.NewUserIDFromString(item.UserID)
	if err != nil {
		return nil, fmt.Errorf("stored user id %q: %w", item.UserID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing CreatedAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing UpdatedAt: %w", err)
	}
	return entities.ReconstructUser(id, item.Name, item.Email, createdAt, updatedAt), nil
}

func unmarshalUsers(items []map[string]types.AttributeValue) ([]*entities.User, error) {
	var raw []userItem
	if err := attributevalue.UnmarshalListOfMaps(items, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}

	users := make([]*entities.User, 0, len(raw))
	for _, item := range raw {
		user, err := fromUserItem(item)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
