package settings

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Get(ctx, KeyQuietStart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyQuietStart, "21"))
	v, err := s.Get(ctx, KeyQuietStart)
	require.NoError(t, err)
	assert.Equal(t, "21", v)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, KeyBatchDelay)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyBatchDelay, "120"))
	assert.Equal(t, "120", mr.HGet(DefaultRedisHash, KeyBatchDelay))

	v, err := s.Get(ctx, KeyBatchDelay)
	require.NoError(t, err)
	assert.Equal(t, "120", v)
}

func TestRedisStoreBacksManager(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, "test:settings")
	defer s.Close()

	m := NewManager(s)
	require.NoError(t, m.SetPeakHours(ctx, 19, 23))

	fresh := NewManager(s)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, 19, fresh.Schedule().PeakStart)
	assert.Equal(t, 23, fresh.Schedule().PeakEnd)
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT value FROM notify_settings").WithArgs(KeyQuietEnd).
		WillReturnRows(pgxmock.NewRows([]string{"value"}))
	mock.ExpectQuery("SELECT value FROM notify_settings").WithArgs(KeyQuietStart).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("21"))
	mock.ExpectExec("INSERT INTO notify_settings").WithArgs(KeyQuietStart, "20").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("SELECT pg_notify").WithArgs("notify_settings_changed", KeyQuietStart).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	s := NewPostgresStore(mock)

	_, err = s.Get(ctx, KeyQuietEnd)
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := s.Get(ctx, KeyQuietStart)
	require.NoError(t, err)
	assert.Equal(t, "21", v)

	require.NoError(t, s.Set(ctx, KeyQuietStart, "20"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
