// config.go - Configuration management for the zetherd node
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"zether/internal/prover"
	"zether/internal/rangecheck"
	"zether/internal/transfer"
)

// Store backends accepted in Config.StoreBackend.
const (
	BackendLevelDB = "leveldb"
	BackendJSON    = "json"
)

// Config represents the node configuration. Relative paths are resolved
// against DataDir.
type Config struct {
	DataDir string `json:"data_dir"`

	// State
	LedgerPath   string `json:"ledger_path"`
	WalletDir    string `json:"wallet_dir"`
	KeyDir       string `json:"key_dir"`
	StoreBackend string `json:"store_backend"`
	StorePath    string `json:"store_path"`
	CacheSize    int    `json:"cache_size"`
	TreeHeight   int    `json:"tree_height"`
	MetricsPath  string `json:"metrics_path"`

	// Proving
	Scheme         string `json:"scheme"`
	RangeCheck     string `json:"range_check"`
	DiscloseAmount bool   `json:"disclose_amount"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Performance
	MaxConcurrency int `json:"max_concurrency"`
	TimeoutSeconds int `json:"timeout_seconds"`

	// Security
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:        "zether-data",
		LedgerPath:     "ledger.json",
		WalletDir:      "wallets",
		KeyDir:         "keys",
		StoreBackend:   BackendLevelDB,
		StorePath:      "accounts",
		CacheSize:      1024,
		TreeHeight:     16,
		MetricsPath:    "metrics.json",
		Scheme:         prover.Groth16.String(),
		RangeCheck:     rangecheck.Bits.String(),
		LogLevel:       "info",
		LogFile:        "zetherd.log",
		MaxConcurrency: 4,
		TimeoutSeconds: 600,
		EnableAudit:    true,
		AuditLogPath:   "audit.log",
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		config := DefaultConfig()
		if err := json.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	switch c.StoreBackend {
	case BackendLevelDB, BackendJSON:
	case "memory":
		return fmt.Errorf("store_backend memory does not outlive the process; only the demo runs in memory")
	default:
		return fmt.Errorf("store_backend must be one of leveldb, json; got %q", c.StoreBackend)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	if c.TreeHeight <= 0 || c.TreeHeight > 32 {
		return fmt.Errorf("tree_height must be in [1, 32]")
	}
	if _, err := prover.ParseScheme(c.Scheme); err != nil {
		return err
	}
	if _, err := rangecheck.ParseMode(c.RangeCheck); err != nil {
		return err
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	return nil
}

// Path resolves p against DataDir. Empty stays empty.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// ProofScheme returns the parsed proof backend.
func (c *Config) ProofScheme() prover.Scheme {
	s, _ := prover.ParseScheme(c.Scheme)
	return s
}

// TransferOptions returns the circuit options derived from the config.
func (c *Config) TransferOptions() transfer.Options {
	mode, _ := rangecheck.ParseMode(c.RangeCheck)
	return transfer.Options{DiscloseAmount: c.DiscloseAmount, RangeCheck: mode}
}
