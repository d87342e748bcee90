package storage

import (
	"context"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
)

// TransactionMirror keeps an audit copy of fetched bank transactions.
type TransactionMirror interface {
	// MirrorTransaction stores tx unless a copy with the same tid exists.
	// It reports whether a new copy was written.
	MirrorTransaction(ctx context.Context, tx models.BankTransaction) (bool, error)
}

// NoOpMirror is used when no audit table is configured.
type NoOpMirror struct{}

func (NoOpMirror) MirrorTransaction(ctx context.Context, tx models.BankTransaction) (bool, error) {
	return false, nil
}

var _ TransactionMirror = NoOpMirror{}
