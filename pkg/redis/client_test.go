package redis

import (
	"testing"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromConfigRequiresAddress(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:      "redis://:secret@redis.internal:6380/2",
		PoolSize: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 15, opts.PoolSize)
}

func TestOptionsFromConfigUsesAddressFallback(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		Address:  "localhost:6379",
		Password: "pw",
		DB:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "ni:lock:escalation-worker", c.LockKey("escalation-worker"))
	assert.Equal(t, "ni:counter:leads", c.CounterKey("leads"))
}
