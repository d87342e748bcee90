package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

const tradeDateIndex = "trade_date-index"

// retention is how long an audit copy is kept before the table TTL removes it.
const retention = 400 * 24 * time.Hour

type mirrorItem struct {
	models.BankTransaction
	FetchedAt string `dynamodbav:"fetched_at"`
	TTL       int64  `dynamodbav:"ttl"`
}

// MirrorTransaction writes tx unless an item with the same tid already exists.
func (s *Store) MirrorTransaction(ctx context.Context, tx models.BankTransaction) (bool, error) {
	if tx.TID == "" {
		return false, errors.New("transaction has no tid")
	}

	now := time.Now().UTC()
	item, err := attributevalue.MarshalMap(mirrorItem{
		BankTransaction: tx,
		FetchedAt:       now.Format(time.RFC3339),
		TTL:             now.Add(retention).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(tid)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return false, nil
		}
		return false, fmt.Errorf("failed to put transaction: %w", err)
	}
	return true, nil
}

// GetTransaction returns the audit copy of the transaction with the given tid.
func (s *Store) GetTransaction(ctx context.Context, tid string) (*models.BankTransaction, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"tid": tid})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tid: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.TableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("transaction %s: %w", tid, storage.ErrNotFound)
	}

	var tx models.BankTransaction
	if err := attributevalue.UnmarshalMap(result.Item, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

// ListTransactionsByDate returns the audit copies for one trade date (YYYYMMDD).
func (s *Store) ListTransactionsByDate(ctx context.Context, tradeDate string) ([]models.BankTransaction, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.TableName),
		IndexName:              aws.String(tradeDateIndex),
		KeyConditionExpression: aws.String("trade_date = :date"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: tradeDate},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by date: %w", err)
	}

	var txs []models.BankTransaction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &txs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}
	return txs, nil
}
