package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		port:            8080,
		minPlayers:      3,
		maxDraws:        64,
		sendBuffer:      16,
		pingInterval:    15 * time.Second,
		livenessTimeout: 45 * time.Second,
	}
}

func TestNewCmd_Defaults(t *testing.T) {
	cfg := &Config{}
	_ = newCmd(cfg)

	assert.Equal(t, "0.0.0.0", cfg.bind)
	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, 3, cfg.minPlayers)
	assert.Equal(t, 64, cfg.maxDraws)
	assert.Equal(t, 16, cfg.sendBuffer)
	assert.Equal(t, 15*time.Second, cfg.pingInterval)
	assert.Equal(t, 45*time.Second, cfg.livenessTimeout)
	assert.NoError(t, cfg.validate())
}

func TestNewCmd_Environment(t *testing.T) {
	t.Setenv("OUTLIER_MIN_PLAYERS", "5")
	t.Setenv("OUTLIER_PING_INTERVAL", "5s")
	t.Setenv("OUTLIER_VALUES_FILE", "/tmp/values.json")

	cfg := &Config{}
	_ = newCmd(cfg)

	assert.Equal(t, 5, cfg.minPlayers)
	assert.Equal(t, 5*time.Second, cfg.pingInterval)
	assert.Equal(t, "/tmp/values.json", cfg.valuesFile)
}

func TestNewCmd_Flags(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)

	require.NoError(t, cmd.ParseFlags([]string{"--min-players", "4", "-p", "9000", "--max_draws", "8"}))

	assert.Equal(t, 4, cfg.minPlayers)
	assert.Equal(t, 9000, cfg.port)
	assert.Equal(t, 8, cfg.maxDraws)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "tls cert without key", mutate: func(c *Config) { c.tlsCert = "cert.pem" }, errMsg: "tls-key"},
		{name: "port out of range", mutate: func(c *Config) { c.port = 70000 }, errMsg: "invalid port"},
		{name: "one player", mutate: func(c *Config) { c.minPlayers = 1 }, errMsg: "minimum players"},
		{name: "no draws", mutate: func(c *Config) { c.maxDraws = 0 }, errMsg: "draw ceiling"},
		{name: "no send buffer", mutate: func(c *Config) { c.sendBuffer = 0 }, errMsg: "send buffer"},
		{name: "zero ping interval", mutate: func(c *Config) { c.pingInterval = 0 }, errMsg: "ping interval"},
		{name: "liveness shorter than ping", mutate: func(c *Config) { c.livenessTimeout = 10 * time.Second }, errMsg: "liveness timeout"},
		{name: "two value sources", mutate: func(c *Config) {
			c.valuesFile = "values.json"
			c.databaseURL = "postgres://localhost/outlier"
		}, errMsg: "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_Scheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}
