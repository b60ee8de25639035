package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadAppConfig(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.App.IndexerEnable = true
	cfg.App.IndexerListen = "0.0.0.0:9999"
	cfg.App.IndexerPollInterval = 5 * time.Second
	WriteConfigFile(cfg)

	v := viper.New()
	v.SetConfigFile(filepath.Join(home, "config", "config.toml"))
	require.NoError(t, v.ReadInConfig())
	v.SetConfigFile(cfg.AppConfigFile())
	require.NoError(t, v.MergeInConfig())

	loaded := DefaultConfig(home)
	require.NoError(t, v.Unmarshal(loaded))
	loaded.SetRoot(home)

	assert.True(t, loaded.App.IndexerEnable)
	assert.Equal(t, "0.0.0.0:9999", loaded.App.IndexerListen)
	assert.Equal(t, 5*time.Second, loaded.App.IndexerPollInterval)
	assert.Equal(t, filepath.Join(home, DefaultIndexerDB), loaded.App.IndexerDBFile())
	assert.NoError(t, loaded.ValidateBasic())
}

func TestAppConfigValidateBasic(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *BallotAppConfig)
		ok     bool
	}{
		{"disabled indexer skips checks", func(c *BallotAppConfig) { c.IndexerListen = "" }, true},
		{"empty listen", func(c *BallotAppConfig) { c.IndexerEnable = true; c.IndexerListen = "" }, false},
		{"empty db", func(c *BallotAppConfig) { c.IndexerEnable = true; c.IndexerDB = "" }, false},
		{"zero interval", func(c *BallotAppConfig) { c.IndexerEnable = true; c.IndexerPollInterval = 0 }, false},
		{"defaults", func(c *BallotAppConfig) { c.IndexerEnable = true }, true},
	}
	for _, tc := range tests {
		c := NewBallotAppConfig(t.TempDir())
		tc.mutate(c)
		if tc.ok {
			assert.NoError(t, c.ValidateBasic(), tc.name)
		} else {
			assert.Error(t, c.ValidateBasic(), tc.name)
		}
	}
}
