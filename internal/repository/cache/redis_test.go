package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spatial-summarize/internal/config"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(&config.RedisConfig{Host: "cache", Port: 6380, Password: "secret", DB: 2})

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, clientName, opts.ClientName)
	assert.Equal(t, writeTimeout, opts.WriteTimeout)
}

func TestNewRedis_Unreachable(t *testing.T) {
	// port 1 is reserved and refuses connections
	_, err := NewRedis(&config.RedisConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
