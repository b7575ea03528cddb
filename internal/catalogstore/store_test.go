package catalogstore

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunigo/sprout/pkg/database"
	"github.com/edunigo/sprout/pkg/reconcile"
)

func newTestFactory() *Factory {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewFactory(logger, nil, Repositories{})
}

func TestForScope(t *testing.T) {
	factory := newTestFactory()

	store, err := factory.ForScope(reconcile.KindCampus, []string{"uni1", "country1"})

	require.NoError(t, err)
	require.NotNil(t, store)
}

func TestForScope_UnknownKind(t *testing.T) {
	factory := newTestFactory()

	_, err := factory.ForScope("faculty", []string{"country1"})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestForScope_ScopeArityMismatch(t *testing.T) {
	factory := newTestFactory()

	_, err := factory.ForScope(reconcile.KindCity, []string{"country1", "extra"})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

// Batch imports rely on the store handing out transactions so every write in
// a batch lands in one commit.
func TestScopedStoreOffersTransactions(t *testing.T) {
	factory := newTestFactory()

	store, err := factory.ForScope(reconcile.KindCity, []string{"country1"})
	require.NoError(t, err)

	_, ok := store.(interface {
		GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
	})
	assert.True(t, ok)
}
