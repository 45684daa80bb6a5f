package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"zether/internal/prover"
	"zether/internal/rangecheck"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "zetherd.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	_, err = os.Stat(path)
	require.NoError(t, err)

	cfg.Scheme = "plonk"
	cfg.DiscloseAmount = true
	require.NoError(t, SaveConfig(cfg, path))

	again, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, prover.Plonk, again.ProofScheme())
	require.True(t, again.TransferOptions().DiscloseAmount)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zetherd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"range_check": "lookup"}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, rangecheck.Lookup, cfg.TransferOptions().RangeCheck)
	require.Equal(t, DefaultConfig().TreeHeight, cfg.TreeHeight)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zetherd.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(*Config){
		"no data dir": func(c *Config) { c.DataDir = "" },
		"backend":     func(c *Config) { c.StoreBackend = "sqlite" },
		"memory":      func(c *Config) { c.StoreBackend = "memory" },
		"cache":       func(c *Config) { c.CacheSize = -1 },
		"tree height": func(c *Config) { c.TreeHeight = 0 },
		"tall tree":   func(c *Config) { c.TreeHeight = 33 },
		"scheme":      func(c *Config) { c.Scheme = "stark" },
		"range check": func(c *Config) { c.RangeCheck = "table" },
		"concurrency": func(c *Config) { c.MaxConcurrency = 0 },
		"timeout":     func(c *Config) { c.TimeoutSeconds = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Path(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/zether"
	require.Equal(t, "/var/lib/zether/ledger.json", cfg.Path(cfg.LedgerPath))
	require.Equal(t, "/tmp/keys", cfg.Path("/tmp/keys"))
	require.Equal(t, "", cfg.Path(""))
}
