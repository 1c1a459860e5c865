package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/JakeFAU/adforge/internal/product"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestProductStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("list decodes documents", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "p-2"},
				{Key: "title", Value: "Desk Lamp"},
				{Key: "category", Value: "Home"},
				{Key: "price", Value: 24.5},
				{Key: "createdAt", Value: created},
			},
			bson.D{
				{Key: "_id", Value: "p-1"},
				{Key: "title", Value: "Floor Lamp"},
				{Key: "category", Value: "Home"},
			},
		))

		got, err := store.List(context.Background(), product.Filter{Category: "Home"})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		require.Equal(mt, "p-2", got[0].ID)
		require.InDelta(mt, 24.5, got[0].Price.Float64(), 0.0001)
		require.True(mt, created.Equal(got[0].CreatedAt))
		require.Nil(mt, got[1].Price)
	})

	mt.Run("get missing maps to ErrNotFound", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err = store.Get(context.Background(), "missing")
		require.ErrorIs(mt, err, product.ErrNotFound)
	})

	mt.Run("find by source url", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "p-9"},
				{Key: "title", Value: "Kettle"},
				{Key: "amazonUrl", Value: "https://www.amazon.com/dp/B0KETTLE"},
			},
		))

		got, err := store.FindBySourceURL(context.Background(), "https://www.amazon.com/dp/B0KETTLE")
		require.NoError(mt, err)
		require.Equal(mt, "p-9", got.ID)
		require.Equal(mt, "Kettle", got.Title)
	})

	mt.Run("insert succeeds", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, store.Insert(context.Background(), &product.Product{ID: "p-1", Title: "Mug"}))
	})

	mt.Run("insert duplicate maps to ErrDuplicate", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: adforge.products index: amazonUrl_unique",
		}))
		err = store.Insert(context.Background(), &product.Product{ID: "p-1", AmazonURL: "https://www.amazon.com/dp/B0"})
		require.ErrorIs(mt, err, product.ErrDuplicate)
	})

	mt.Run("insert requires id", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)
		require.Error(mt, store.Insert(context.Background(), &product.Product{}))
	})

	mt.Run("replace unmatched maps to ErrNotFound", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err = store.Replace(context.Background(), product.Product{ID: "ghost"})
		require.True(mt, errors.Is(err, product.ErrNotFound), "got %v", err)
	})

	mt.Run("replace matched", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		require.NoError(mt, store.Replace(context.Background(), product.Product{ID: "p-1", Title: "Mug v2"}))
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, store.EnsureIndexes(context.Background()))
	})

	mt.Run("ping and close", func(mt *mtest.T) {
		store, err := NewProductStoreWithCollection(mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, store.Ping(context.Background()))
		require.NoError(mt, store.Close(context.Background()))
	})
}

func TestNewProductStoreWithCollectionRequiresCollection(t *testing.T) {
	t.Parallel()

	_, err := NewProductStoreWithCollection(nil)
	require.Error(t, err)
}

func TestOpenRequiresURI(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}
