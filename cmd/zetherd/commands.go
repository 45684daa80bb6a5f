package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"zether/internal/accumulator"
	"zether/internal/rangecheck"
	"zether/internal/transfer"
	"zether/internal/wallet"
)

var (
	walletFlag = &cli.StringFlag{
		Name:     "wallet",
		Usage:    "wallet name",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "amount in base units (at most 2^32-1)",
		Required: true,
	}
)

// withNode loads the config, opens a node for the command and closes it
// afterwards.
func withNode(withProver bool, fn func(ctx *cli.Context, n *node) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		n, err := openNode(cfg, withProver)
		if err != nil {
			return err
		}
		if err = fn(ctx, n); err != nil {
			n.metrics.RecordError(ctx.Command.Name)
			n.log.Error().Err(err).Str("command", ctx.Command.Name).Msg("command failed")
		}
		return errors.Join(err, n.Close())
	}
}

func amountArg(ctx *cli.Context) (uint32, error) {
	v := ctx.Uint64(amountFlag.Name)
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("amount %d: %w", v, rangecheck.ErrRangeExceeded)
	}
	return uint32(v), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var commandSetup = &cli.Command{
	Name:  "setup",
	Usage: "compile the transfer circuit and generate or load its keys",
	Action: withNode(true, func(ctx *cli.Context, n *node) error {
		paths := n.keyPaths()
		fmt.Printf("scheme:      %s\n", n.sys.Scheme)
		fmt.Printf("constraints: %d\n", n.sys.NbConstraints())
		fmt.Printf("proving key: %s\nverify key:  %s\n", paths[0], paths[1])
		return nil
	}),
}

var commandKeygen = &cli.Command{
	Name:  "keygen",
	Usage: "create a wallet with a fresh key pair",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "wallet name", Required: true},
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing wallet"},
	},
	Action: withNode(false, func(ctx *cli.Context, n *node) error {
		name := ctx.String("name")
		path := n.walletPath(name)
		if _, err := os.Stat(path); err == nil && !ctx.Bool("force") {
			return fmt.Errorf("wallet %s already exists at %s", name, path)
		}
		w, err := wallet.New(name, n.params)
		if err != nil {
			return err
		}
		if err := w.Save(path); err != nil {
			return err
		}
		n.log.Audit("keygen", map[string]interface{}{"wallet": name, "account": w.ID().String()})
		fmt.Printf("wallet:  %s\naccount: %s\n", path, w.ID())
		return nil
	}),
}

var commandRegister = &cli.Command{
	Name:  "register",
	Usage: "open a ledger account for a wallet with a zero balance",
	Flags: []cli.Flag{walletFlag},
	Action: withNode(false, func(ctx *cli.Context, n *node) error {
		w, err := n.loadWallet(ctx.String(walletFlag.Name))
		if err != nil {
			return err
		}
		a, err := n.ledger.Register(w.Pub)
		if err != nil {
			return err
		}
		if err := n.commit(); err != nil {
			return err
		}
		n.metrics.RecordRegistration()
		n.log.Audit("register", map[string]interface{}{"account": a.ID.String(), "slot": a.Index})
		fmt.Printf("account %s registered in slot %d\n", a.ID, a.Index)
		return nil
	}),
}

var commandDeposit = &cli.Command{
	Name:  "deposit",
	Usage: "credit a public amount to a wallet's encrypted balance",
	Flags: []cli.Flag{walletFlag, amountFlag},
	Action: withNode(false, func(ctx *cli.Context, n *node) error {
		amount, err := amountArg(ctx)
		if err != nil {
			return err
		}
		w, err := n.loadWallet(ctx.String(walletFlag.Name))
		if err != nil {
			return err
		}
		r, err := n.params.RandomScalar()
		if err != nil {
			return err
		}
		a, err := n.ledger.Deposit(w.ID(), amount, r)
		if err != nil {
			return err
		}
		if err := n.commit(); err != nil {
			return err
		}
		n.metrics.RecordDeposit()
		n.log.Audit("deposit", map[string]interface{}{"account": a.ID.String(), "amount": amount, "version": a.Version})
		fmt.Printf("deposited %d to %s (version %d)\n", amount, a.ID, a.Version)
		return nil
	}),
}

var commandTransfer = &cli.Command{
	Name:  "transfer",
	Usage: "prove a confidential transfer and apply it to the ledger",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "sending wallet", Required: true},
		&cli.StringFlag{Name: "to", Usage: "recipient wallet name or account ID", Required: true},
		amountFlag,
		&cli.StringFlag{Name: "out", Usage: "also write the transaction to this file"},
	},
	Action: withNode(true, func(ctx *cli.Context, n *node) error {
		amount, err := amountArg(ctx)
		if err != nil {
			return err
		}
		w, err := n.loadWallet(ctx.String("from"))
		if err != nil {
			return err
		}
		sender, err := n.ledger.Account(w.ID())
		if err != nil {
			return fmt.Errorf("sender: %w", err)
		}
		recipient, err := n.resolveAccount(ctx.String("to"))
		if err != nil {
			return fmt.Errorf("recipient: %w", err)
		}

		start := time.Now()
		tx, err := w.Transfer(n.sys, sender, recipient, amount, n.cfg.TransferOptions())
		if err != nil {
			return err
		}
		n.metrics.RecordProofGeneration(n.sys.Scheme.String(), time.Since(start))

		if out := ctx.String("out"); out != "" {
			if err := writeTx(out, tx); err != nil {
				return err
			}
		}
		if err := n.ledger.ApplyTransfer(tx); err != nil {
			return err
		}
		if err := n.commit(); err != nil {
			return err
		}

		accts, err := n.ledger.Accounts()
		if err != nil {
			return err
		}
		n.metrics.RecordTransfer(len(accts))
		n.log.Audit("transfer", map[string]interface{}{
			"sender":    sender.ID.String(),
			"recipient": recipient.ID.String(),
			"disclosed": tx.DisclosedAmount,
		})
		root := n.ledger.Root()
		fmt.Printf("transfer applied, new root %s\n", root.String())
		return nil
	}),
}

var commandVerify = &cli.Command{
	Name:      "verify",
	Usage:     "verify the proof of a transaction file",
	ArgsUsage: "<tx.json>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "apply", Usage: "apply the transaction to the ledger once verified"},
	},
	Action: withNode(true, func(ctx *cli.Context, n *node) error {
		path := ctx.Args().First()
		if path == "" {
			return errors.New("usage: zetherd verify <tx.json>")
		}
		tx, err := readTx(path)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := transfer.VerifyTx(n.sys, tx); err != nil {
			return err
		}
		n.metrics.RecordProofVerification(n.sys.Scheme.String(), time.Since(start))
		fmt.Println("proof valid")

		if !ctx.Bool("apply") {
			return nil
		}
		if err := n.ledger.ApplyTransfer(tx); err != nil {
			return err
		}
		fmt.Println("transfer applied")
		return n.commit()
	}),
}

type balanceOutput struct {
	Account  string `json:"account"`
	Slot     uint64 `json:"slot"`
	Balance  uint32 `json:"balance"`
	Version  uint64 `json:"version"`
	Root     string `json:"root"`
	Included bool   `json:"included"`
}

var commandBalance = &cli.Command{
	Name:  "balance",
	Usage: "decrypt a wallet's balance and check its inclusion in the state root",
	Flags: []cli.Flag{walletFlag, jsonFlag},
	Action: withNode(false, func(ctx *cli.Context, n *node) error {
		w, err := n.loadWallet(ctx.String(walletFlag.Name))
		if err != nil {
			return err
		}
		a, proof, err := n.ledger.ProveAccount(w.ID())
		if err != nil {
			return err
		}
		bal, err := w.Balance(a.Balance)
		if err != nil {
			return err
		}
		root := n.ledger.Root()
		out := balanceOutput{
			Account:  a.ID.String(),
			Slot:     a.Index,
			Balance:  bal,
			Version:  a.Version,
			Root:     root.String(),
			Included: accumulator.VerifyInclusion(root, proof),
		}
		if ctx.Bool(jsonFlag.Name) {
			return printJSON(out)
		}
		fmt.Printf("account:  %s (slot %d, version %d)\n", out.Account, out.Slot, out.Version)
		fmt.Printf("balance:  %d\n", out.Balance)
		fmt.Printf("root:     %s (included: %t)\n", out.Root, out.Included)
		return nil
	}),
}

var commandStatus = &cli.Command{
	Name:  "status",
	Usage: "report component health and collected metrics",
	Flags: []cli.Flag{jsonFlag},
	Action: withNode(false, func(ctx *cli.Context, n *node) error {
		hc := NewHealthChecker(version)
		hc.RegisterComponent("account_store", StoreCheck(n.store))
		hc.RegisterComponent("ledger", LedgerCheck(n.ledger))
		hc.RegisterComponent("proving_keys", FilesCheck(n.keyPaths()...))
		health := hc.CheckHealth()
		summary := n.metrics.GetMetricsSummary()

		if ctx.Bool(jsonFlag.Name) {
			return printJSON(map[string]interface{}{"health": health, "metrics": summary})
		}

		fmt.Printf("zetherd %s: %s\n", health.Version, statusColor(health.OverallStatus))
		for _, c := range health.Components {
			fmt.Printf("  %-14s %s  %s\n", c.Name, statusColor(c.Status), c.Message)
		}
		root := n.ledger.Root()
		fmt.Printf("records: %d  root: %s\n", len(n.ledger.Records()), root.String())
		return renderMetrics(os.Stdout, summary)
	}),
}

func renderMetrics(w io.Writer, s Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("metric", "value")
	for _, k := range sortedKeys(s.Counters) {
		table.Append([]string{k, strconv.FormatInt(s.Counters[k], 10)})
	}
	for _, k := range sortedKeys(s.Gauges) {
		table.Append([]string{k, strconv.FormatFloat(s.Gauges[k], 'f', -1, 64)})
	}
	for _, k := range sortedKeys(s.Histograms) {
		h := s.Histograms[k]
		table.Append([]string{k, fmt.Sprintf("n=%d avg=%.3fs max=%.3fs", h.Count, h.Avg, h.Max)})
	}
	return table.Render()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func statusColor(s HealthStatus) string {
	switch s {
	case Healthy:
		return color.GreenString(string(s))
	case Degraded:
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}

func writeTx(path string, tx *transfer.Tx) error {
	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readTx(path string) (*transfer.Tx, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tx transfer.Tx
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &tx, nil
}
