package database

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardTx() *Transaction {
	return &Transaction{logger: ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})}
}

// A caller that joined a context-bound transaction must not close it: the
// opener commits or rolls back with its own pre-transaction context.
func TestCommitSkipsJoinedTransaction(t *testing.T) {
	tx := newGuardTx()
	ctx := context.WithValue(context.Background(), txStatusKey, "open")

	require.NoError(t, tx.Commit(ctx))
	assert.True(t, tx.IsOpen())
}

func TestRollbackSkipsJoinedTransaction(t *testing.T) {
	tx := newGuardTx()
	ctx := context.WithValue(context.Background(), txStatusKey, "open")

	require.NoError(t, tx.Rollback(ctx))
	assert.True(t, tx.IsOpen())
}

func TestClosedTransactionIsNoop(t *testing.T) {
	tx := newGuardTx()
	tx.isClosed = true

	assert.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, tx.Rollback(context.Background()))
	assert.False(t, tx.IsOpen())
}
