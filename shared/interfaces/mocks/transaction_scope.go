package mocks

import (
	"context"

	"museo-server/shared/interfaces"

	"github.com/stretchr/testify/mock"
)

// TransactionScope records RunAtomically calls. Unless the expectation returns
// an error, fn is executed with Querier, and its error is returned.
type TransactionScope struct {
	mock.Mock
	Querier interfaces.DBTX
}

var _ interfaces.TransactionScope = (*TransactionScope)(nil)

func (m *TransactionScope) RunAtomically(ctx context.Context, fn interfaces.TxFunc) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Querier)
}
