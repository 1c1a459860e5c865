package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/adforge/internal/product"
)

func newMockStore(t *testing.T) (*ProductStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewProductStoreWithPool(mock, "products")
	require.NoError(t, err)
	return store, mock
}

func TestInsertWritesRow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	p := &product.Product{
		ID:        "p-1",
		Title:     "Mug",
		Category:  "Kitchen",
		AmazonURL: "https://www.amazon.com/dp/B0MUG",
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.AmazonURL, p.Title, p.Category, now, now, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Insert(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUniqueViolationIsDuplicate(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO products").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := store.Insert(context.Background(), &product.Product{ID: "p-1", AmazonURL: "https://www.amazon.com/dp/B0"})
	require.ErrorIs(t, err, product.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDecodesDocument(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT doc FROM products WHERE id").
		WithArgs("p-7").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).
			AddRow([]byte(`{"_id":"p-7","title":"Lamp","category":"Home","price":"19.99","currency":"USD"}`)))

	got, err := store.Get(context.Background(), "p-7")
	require.NoError(t, err)
	require.Equal(t, "Lamp", got.Title)
	require.InDelta(t, 19.99, got.Price.Float64(), 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT doc FROM products WHERE id").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}))

	_, err := store.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestListAppliesDefaultLimit(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT doc FROM products").
		WithArgs("Home", product.DefaultLimit).
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).
			AddRow([]byte(`{"_id":"b","title":"Newer"}`)).
			AddRow([]byte(`{"_id":"a","title":"Older"}`)))

	got, err := store.List(context.Background(), product.Filter{Category: "Home"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceWithoutRowIsNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE products SET").
		WithArgs("ghost", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Replace(context.Background(), product.Product{ID: "ghost"})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestReplaceUpdatesRow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE products SET").
		WithArgs("p-1", pgxmock.AnyArg(), "Mug v2", "Kitchen", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.Replace(context.Background(), product.Product{ID: "p-1", Title: "Mug v2", Category: "Kitchen"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS products").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewProductStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewProductStoreWithPool(nil, "products")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewProductStoreWithPool(mock, "bad-name;")
	require.Error(t, err)

	store, err := NewProductStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "products", store.table)
}

func TestNewProductStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewProductStore(context.Background(), Config{})
	require.Error(t, err)
}
