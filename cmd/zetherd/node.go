// node.go - Opens the ledger, account store and proving system for a command
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zether/internal/accounts"
	"zether/internal/babyjub"
	"zether/internal/ledger"
	"zether/internal/prover"
	"zether/internal/transfer"
	"zether/internal/wallet"
)

type node struct {
	cfg     *Config
	log     *Logger
	metrics *MetricsCollector
	params  *babyjub.Params
	store   accounts.Store
	sys     *prover.System
	ledger  *ledger.Ledger
}

// openNode prepares everything a command needs. The transfer circuit is only
// compiled when withProver is set.
func openNode(cfg *Config, withProver bool) (*node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.Path(cfg.WalletDir), cfg.Path(cfg.KeyDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	audit := ""
	if cfg.EnableAudit {
		audit = cfg.Path(cfg.AuditLogPath)
	}
	log, err := NewLogger(cfg.LogLevel, cfg.Path(cfg.LogFile), audit)
	if err != nil {
		return nil, err
	}
	log.RouteGnark()

	n := &node{
		cfg:     cfg,
		log:     log,
		metrics: NewMetricsCollector(),
		params:  babyjub.DefaultParams(),
	}
	if err := n.metrics.Load(cfg.Path(cfg.MetricsPath)); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable metrics")
	}

	store, err := openStore(cfg)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.store = store
	if withProver {
		if err := n.loadProver(); err != nil {
			n.Close()
			return nil, err
		}
	}

	n.ledger, err = ledger.LoadLedgerFromFile(cfg.Path(cfg.LedgerPath), ledger.Config{
		Params:     n.params,
		Store:      n.store,
		TreeHeight: cfg.TreeHeight,
		Verifier:   n.sys,
		Logger:     &log.Logger,
	})
	if err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func openStore(cfg *Config) (accounts.Store, error) {
	var (
		s   accounts.Store
		err error
	)
	switch cfg.StoreBackend {
	case BackendLevelDB:
		s, err = accounts.OpenLevelDB(cfg.Path(cfg.StorePath))
	case BackendJSON:
		s, err = accounts.OpenJSONFile(cfg.Path(cfg.StorePath))
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreBackend, err)
	}
	if cfg.CacheSize <= 0 {
		return s, nil
	}
	cached, err := accounts.NewCachedStore(s, cfg.CacheSize)
	if err != nil {
		s.Close()
		return nil, err
	}
	return cached, nil
}

// circuitName identifies the key files of one circuit configuration.
func circuitName(opts transfer.Options) string {
	name := "transfer_" + opts.RangeCheck.String()
	if opts.DiscloseAmount {
		name += "_disclosed"
	}
	return name
}

func (n *node) loadProver() error {
	opts := n.cfg.TransferOptions()
	scheme := n.cfg.ProofScheme()

	start := time.Now()
	sys, err := prover.Compile(transfer.NewCircuit(n.params, opts), scheme)
	if err != nil {
		n.metrics.RecordError("compile")
		return err
	}
	n.metrics.RecordCircuitCompile(scheme.String(), time.Since(start), sys.NbConstraints())

	if err := sys.SetupOrLoadKeys(n.cfg.Path(n.cfg.KeyDir), circuitName(opts)); err != nil {
		n.metrics.RecordError("setup")
		return err
	}
	n.log.Info().
		Str("scheme", scheme.String()).
		Str("range_check", opts.RangeCheck.String()).
		Int("constraints", sys.NbConstraints()).
		Msg("proving system ready")
	n.sys = sys
	return nil
}

func (n *node) keyPaths() []string {
	sys := &prover.System{Scheme: n.cfg.ProofScheme()}
	pk, vk := sys.KeyPaths(n.cfg.Path(n.cfg.KeyDir), circuitName(n.cfg.TransferOptions()))
	return []string{pk, vk}
}

func (n *node) walletPath(name string) string {
	return filepath.Join(n.cfg.Path(n.cfg.WalletDir), name+"_wallet.json")
}

func (n *node) loadWallet(name string) (*wallet.Wallet, error) {
	if name == "" {
		return nil, errors.New("a wallet name is required")
	}
	return wallet.LoadWallet(n.walletPath(name), n.params)
}

// resolveAccount accepts a wallet name or a hex account ID.
func (n *node) resolveAccount(ref string) (*accounts.Account, error) {
	if _, err := os.Stat(n.walletPath(ref)); err == nil {
		w, err := n.loadWallet(ref)
		if err != nil {
			return nil, err
		}
		return n.ledger.Account(w.ID())
	}
	id, err := accounts.ParseID(strings.TrimPrefix(ref, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%q is neither a wallet nor an account ID: %w", ref, err)
	}
	return n.ledger.Account(id)
}

// commit persists the ledger history.
func (n *node) commit() error {
	return n.ledger.SaveToFile(n.cfg.Path(n.cfg.LedgerPath))
}

// Close saves metrics and releases the store and log files.
func (n *node) Close() error {
	var errs []error
	if err := n.metrics.Save(n.cfg.Path(n.cfg.MetricsPath)); err != nil {
		errs = append(errs, err)
	}
	if n.store != nil {
		errs = append(errs, n.store.Close())
	}
	errs = append(errs, n.log.Close())
	return errors.Join(errs...)
}
