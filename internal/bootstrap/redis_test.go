package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameup/gameup-web/config"
)

func TestConnectRedis_Direct(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), RedisConnConfig{
		Redis:  config.RedisConfig{URI: mr.Addr()},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestConnectRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), RedisConnConfig{
		Redis: config.RedisConfig{URI: "redis://" + mr.Addr() + "/0"},
	})
	require.NoError(t, err)
	_ = client.Close()
}

func TestConnectRedis_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectRedis(context.Background(), RedisConnConfig{Redis: config.RedisConfig{URI: addr}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestConnectRedis_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RedisConfig
		want string
	}{
		{name: "empty uri", cfg: config.RedisConfig{}, want: "requires a URI"},
		{name: "cluster without nodes", cfg: config.RedisConfig{UseCluster: true}, want: "at least one address"},
		{name: "sentinel without nodes", cfg: config.RedisConfig{UseSentinel: true, SentinelNodes: []string{" "}}, want: "at least one sentinel node"},
		{name: "bad url", cfg: config.RedisConfig{URI: "redis://:bad:port"}, want: "parse redis url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConnectRedis(context.Background(), RedisConnConfig{Redis: tt.cfg})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRedactAddr(t *testing.T) {
	assert.Equal(t, "cache:6379", redactAddr("cache:6379"))
	assert.Equal(t, "cache:6379", redactAddr("secret@cache:6379"))
}
