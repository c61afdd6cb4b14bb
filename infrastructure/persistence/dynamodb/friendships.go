package dynamodb

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"friendship-backend/domain/core/entities"
	"friendship-backend/domain/core/valueobjects"
	pkgerrors "friendship-backend/pkg/errors"
)

// SaveEdges writes both items of every edge in one transaction, guarded by
// condition checks on the endpoint profiles
func (s *Store) SaveEdges(ctx context.Context, edges ...entities.Friendship) error {
	if len(edges) == 0 {
		return nil
	}

	tx := newTransaction(s.tableName)

	// A transaction may touch each item once, so endpoints shared by several
	// edges are checked once.
	checked := make(map[string]bool)
	for _, e := range edges {
		for _, endpoint := range []valueobjects.UserID{e.FriendOfID(), e.FriendID()} {
			if checked[endpoint.String()] {
				continue
			}
			checked[endpoint.String()] = true
			tx.conditionCheck(profileKey(endpoint), "attribute_exists(PK)",
				pkgerrors.NewUserNotFoundError(endpoint.String()))
		}
	}

	for _, e := range edges {
		forward, reverse := edgeItems(e)
		forwardAV, err := marshal(forward)
		if err != nil {
			return pkgerrors.NewInternalError(err.Error())
		}
		reverseAV, err := marshal(reverse)
		if err != nil {
			return pkgerrors.NewInternalError(err.Error())
		}
		exists := pkgerrors.NewConflictError("friendship already exists").
			WithCode(pkgerrors.CodeFriendshipExists).
			WithDetails(map[string]interface{}{
				"friendId":   e.FriendID().String(),
				"friendOfId": e.FriendOfID().String(),
			})
		tx.put(forwardAV, "attribute_not_exists(PK)", exists)
		tx.put(reverseAV, "", nil)
	}

	if err := s.commit(ctx, "save_friendship", tx); err != nil {
		return err
	}

	s.logger.Debug("Friendship edges saved to DynamoDB", zap.Int("edges", len(edges)))
	return nil
}

// DeleteEdges removes both items of every edge in one transaction
func (s *Store) DeleteEdges(ctx context.Context, edges ...entities.Friendship) error {
	if len(edges) == 0 {
		return nil
	}

	tx := newTransaction(s.tableName)
	for _, e := range edges {
		forward, reverse := edgeItems(e)
		tx.delete(key(forward.PK, forward.SK), "attribute_exists(PK)",
			pkgerrors.NewFriendshipNotFoundError(e.FriendID().String(), e.FriendOfID().String()))
		tx.delete(key(reverse.PK, reverse.SK), "", nil)
	}

	return s.commit(ctx, "delete_friendship", tx)
}

// FriendIDsOf queries the forward edges of every id concurrently
func (s *Store) FriendIDsOf(ctx context.Context, ids []valueobjects.UserID) ([]valueobjects.UserID, error) {
	var (
		mu  sync.Mutex
		out []valueobjects.UserID
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(queryConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			items, err := s.queryPartition(gctx, userPK(id), friendPrefix)
			if err != nil {
				return err
			}

			found := make([]valueobjects.UserID, 0, len(items))
			for _, item := range items {
				friend, err := valueobjects.NewUserIDFromString(item.FriendID)
				if err != nil {
					continue
				}
				found = append(found, friend)
			}

			mu.Lock()
			out = append(out, found...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, s.translate("friend_ids_of", err)
	}
	return out, nil
}

// queryPartition returns the edge items under pk whose sort key starts with
// prefix. The profile item is skipped.
func (s *Store) queryPartition(ctx context.Context, pk, prefix string) ([]edgeItem, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(pk))
	if prefix != "" {
		keyCond = keyCond.And(expression.Key("SK").BeginsWith(prefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []edgeItem
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, av := range page.Items {
			var item edgeItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return nil, err
			}
			if item.EntityType == entityFriend || item.EntityType == entityFriendOf {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func edgeItems(e entities.Friendship) (forward, reverse edgeItem) {
	forward = edgeItem{
		PK:         userPK(e.FriendOfID()),
		SK:         friendPrefix + e.FriendID().String(),
		EntityType: entityFriend,
		FriendID:   e.FriendID().String(),
		FriendOfID: e.FriendOfID().String(),
	}
	reverse = edgeItem{
		PK:         userPK(e.FriendID()),
		SK:         friendOfPrefix + e.FriendOfID().String(),
		EntityType: entityFriendOf,
		FriendID:   e.FriendID().String(),
		FriendOfID: e.FriendOfID().String(),
	}
	return forward, reverse
}
