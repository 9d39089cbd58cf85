package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRedis_RequiresAddr(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "addr is required")
}

func TestRedisConfig_Defaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379", PoolSize: 7}.withDefaults()
	assert.Equal(t, 7, cfg.PoolSize)
	assert.Equal(t, 3*time.Second, cfg.DialTimeout)
	assert.Equal(t, 2*time.Second, cfg.PingTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.WriteTimeout)

	assert.Equal(t, 10, RedisConfig{}.withDefaults().PoolSize)
}
