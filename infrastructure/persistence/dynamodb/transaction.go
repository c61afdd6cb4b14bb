package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	pkgerrors "friendship-backend/pkg/errors"
)

// transaction collects TransactWriteItems entries together with the error
// each one stands for when its condition fails
type transaction struct {
	tableName string
	items     []types.TransactWriteItem
	onFail    []error
}

func newTransaction(tableName string) *transaction {
	return &transaction{tableName: tableName}
}

func (t *transaction) add(item types.TransactWriteItem, onFail error) {
	t.items = append(t.items, item)
	t.onFail = append(t.onFail, onFail)
}

func (t *transaction) put(item map[string]types.AttributeValue, condition string, onFail error) {
	put := &types.Put{TableName: aws.String(t.tableName), Item: item}
	if condition != "" {
		put.ConditionExpression = aws.String(condition)
	}
	t.add(types.TransactWriteItem{Put: put}, onFail)
}

func (t *transaction) delete(k map[string]types.AttributeValue, condition string, onFail error) {
	del := &types.Delete{TableName: aws.String(t.tableName), Key: k}
	if condition != "" {
		del.ConditionExpression = aws.String(condition)
	}
	t.add(types.TransactWriteItem{Delete: del}, onFail)
}

func (t *transaction) conditionCheck(k map[string]types.AttributeValue, condition string, onFail error) {
	t.add(types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
		TableName:           aws.String(t.tableName),
		Key:                 k,
		ConditionExpression: aws.String(condition),
	}}, onFail)
}

// commit runs the transaction and maps a cancellation onto the error of the
// first item whose condition failed
func (s *Store) commit(ctx context.Context, operation string, tx *transaction) error {
	if len(tx.items) == 0 {
		return nil
	}
	if len(tx.items) > maxTransactItems {
		return pkgerrors.NewBadRequestError("too many items in one transaction")
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx.items,
	})
	if err == nil {
		return nil
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for i, reason := range tce.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			if i < len(tx.onFail) && tx.onFail[i] != nil {
				return tx.onFail[i]
			}
		}
	}
	return s.translate(operation, err)
}

// translate maps SDK errors onto the application error taxonomy
func (s *Store) translate(operation string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		s.logger.Error("DynamoDB operation failed",
			zap.String("operation", operation),
			zap.String("errorCode", ae.ErrorCode()),
			zap.String("errorMessage", ae.ErrorMessage()),
		)

		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException", "ServiceUnavailable":
			return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
		case "TransactionCanceledException", "TransactionConflictException":
			return pkgerrors.NewConflictError("transaction was cancelled by a concurrent write").WithCause(err)
		}
		return pkgerrors.NewDatabaseError(operation, err)
	}

	return pkgerrors.FromStorage(operation, err)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
