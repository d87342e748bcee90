package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMirrorTransaction(t *testing.T) {
	tx := models.BankTransaction{TID: "T1", TradeDate: "20240501", TradeType: models.TradeDeposit, Amount: 50000, Briefs: "Kim Minsu"}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "bank_transactions_audit")

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			tid, ok := in.Item["tid"].(*types.AttributeValueMemberS)
			return ok && tid.Value == "T1" &&
				*in.ConditionExpression == "attribute_not_exists(tid)" &&
				in.Item["fetched_at"] != nil && in.Item["ttl"] != nil
		})).Return(&dynamodb.PutItemOutput{}, nil)

		written, err := store.MirrorTransaction(context.Background(), tx)

		assert.NoError(t, err)
		assert.True(t, written)
		mockClient.AssertExpectations(t)
	})

	t.Run("Existing copy is left alone", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "bank_transactions_audit")

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		written, err := store.MirrorTransaction(context.Background(), tx)

		assert.NoError(t, err)
		assert.False(t, written)
		mockClient.AssertExpectations(t)
	})

	t.Run("PutItem Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "bank_transactions_audit")

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		_, err := store.MirrorTransaction(context.Background(), tx)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put transaction")
	})

	t.Run("Missing tid", func(t *testing.T) {
		store := New(new(mocks.DynamoDBAPI), "bank_transactions_audit")

		_, err := store.MirrorTransaction(context.Background(), models.BankTransaction{})

		assert.Error(t, err)
	})
}

func TestGetTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "bank_transactions_audit")

		item, _ := attributevalue.MarshalMap(models.BankTransaction{TID: "T1", Amount: 50000})
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

		got, err := store.GetTransaction(context.Background(), "T1")

		require.NoError(t, err)
		assert.Equal(t, int64(50000), got.Amount)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := New(mockClient, "bank_transactions_audit")

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.GetTransaction(context.Background(), "T1")

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestListTransactionsByDate(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := New(mockClient, "bank_transactions_audit")

	a, _ := attributevalue.MarshalMap(models.BankTransaction{TID: "T1", TradeDate: "20240501"})
	b, _ := attributevalue.MarshalMap(models.BankTransaction{TID: "T2", TradeDate: "20240501"})
	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == tradeDateIndex
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{a, b}}, nil)

	txs, err := store.ListTransactionsByDate(context.Background(), "20240501")

	require.NoError(t, err)
	assert.Len(t, txs, 2)
	mockClient.AssertExpectations(t)
}
