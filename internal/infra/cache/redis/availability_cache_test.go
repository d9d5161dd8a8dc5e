package rediscache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "homestay/internal/infra/cache/redis"
)

const key = "availability:unavailable:lst-1"

func TestAvailabilityCache_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := rediscache.NewAvailabilityCache(db, time.Minute)

	mock.ExpectGet(key).SetVal(`["2026-09-10","2026-09-11"]`)

	days, hit, err := cache.Get(context.Background(), "lst-1")
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, days, 2)
	assert.Equal(t, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), days[1])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := rediscache.NewAvailabilityCache(db, time.Minute)

	mock.ExpectGet(key).RedisNil()

	days, hit, err := cache.Get(context.Background(), "lst-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, days)
}

func TestAvailabilityCache_UnreachableDegradesToMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := rediscache.NewAvailabilityCache(db, time.Minute)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))

	_, hit, err := cache.Get(context.Background(), "lst-1")
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestAvailabilityCache_CorruptPayloadDegradesToMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := rediscache.NewAvailabilityCache(db, time.Minute)

	mock.ExpectGet(key).SetVal(`{"not":"an array"}`)

	_, hit, err := cache.Get(context.Background(), "lst-1")
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestAvailabilityCache_SetStoresDateStrings(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := rediscache.NewAvailabilityCache(db, time.Minute)

	mock.ExpectSet(key, []byte(`["2026-09-10","2026-09-11"]`), time.Minute).SetVal("OK")

	err := cache.Set(context.Background(), "lst-1", []time.Time{
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCache_Invalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := rediscache.NewAvailabilityCache(db, time.Minute)

	mock.ExpectDel(key).SetVal(1)

	require.NoError(t, cache.Invalidate(context.Background(), "lst-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCache_NilClientIsNoop(t *testing.T) {
	cache := &rediscache.AvailabilityCache{}

	_, hit, err := cache.Get(context.Background(), "lst-1")
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Set(context.Background(), "lst-1", nil))
	assert.NoError(t, cache.Invalidate(context.Background(), "lst-1"))
}
