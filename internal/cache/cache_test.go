package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore() (*RedisStore, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewRedisStore(db), mock
}

func TestRedisStore_GetHit(t *testing.T) {
	store, mock := setupMockStore()
	ctx := context.Background()

	mock.ExpectGet("dashboard:summary").SetVal(`{"by_status":[]}`)

	val, ok, err := store.Get(ctx, "dashboard:summary")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"by_status":[]}`, string(val))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetMiss(t *testing.T) {
	store, mock := setupMockStore()

	mock.ExpectGet("dashboard:summary").RedisNil()

	val, ok, err := store.Get(context.Background(), "dashboard:summary")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetError(t *testing.T) {
	store, mock := setupMockStore()

	mock.ExpectGet("dashboard:summary").SetErr(errors.New("connection refused"))

	_, ok, err := store.Get(context.Background(), "dashboard:summary")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_SetWithTTL(t *testing.T) {
	store, mock := setupMockStore()
	value := []byte(`{"by_status":[],"by_priority":[]}`)

	mock.ExpectSet("dashboard:summary", value, 60*time.Second).SetVal("OK")

	err := store.Set(context.Background(), "dashboard:summary", value, 60*time.Second)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Delete(t *testing.T) {
	store, mock := setupMockStore()

	mock.ExpectDel("dashboard:summary").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), "dashboard:summary"))
	require.NoError(t, mock.ExpectationsWereMet())
}
