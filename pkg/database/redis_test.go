package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nggaadaotak/kintari-be/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewRedisPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}
