package workload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 20_000_000, cfg.Capacity)
	assert.Equal(t, 20_000, cfg.BurstSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Interval)
	assert.Equal(t, 1, cfg.Workers)
	assert.Zero(t, cfg.MaxBursts)
	assert.Equal(t, KeysUint64, cfg.Keys)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"negative capacity", func(c *Config) { c.Capacity = -5 }},
		{"zero burst", func(c *Config) { c.BurstSize = 0 }},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"more workers than puts", func(c *Config) { c.BurstSize = 2; c.Workers = 3 }},
		{"negative max bursts", func(c *Config) { c.MaxBursts = -1 }},
		{"unknown key mode", func(c *Config) { c.Keys = "uuid" }},
		{"empty key mode", func(c *Config) { c.Keys = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := DefaultConfig()
	cfg.Interval = 0
	assert.NoError(t, cfg.Validate(), "zero interval means back-to-back bursts")

	cfg.Keys = KeysReadState
	assert.NoError(t, cfg.Validate())
}
