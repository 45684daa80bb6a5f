// demo.go - Runs N accounts through register, deposit and parallel transfers.
//
// Wallets 2i send to 2i+1, so no two transfers in the batch share an account
// and all of them can be proved at once. The demo uses a fresh in-memory
// ledger; the configured store and ledger file are left untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"zether/internal/accounts"
	"zether/internal/ledger"
	"zether/internal/transfer"
	"zether/internal/wallet"
)

var commandDemo = &cli.Command{
	Name:  "demo",
	Usage: "prove a batch of transfers between fresh accounts in parallel",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "accounts", Usage: "number of accounts (even)", Value: 4},
		&cli.Uint64Flag{Name: "deposit", Usage: "initial balance of each account", Value: 100},
		&cli.Uint64Flag{Name: "amount", Usage: "amount each sender transfers", Value: 30},
	},
	Action: withNode(true, func(ctx *cli.Context, n *node) error {
		count := ctx.Int("accounts")
		if count < 2 || count%2 != 0 {
			return errors.New("--accounts must be an even number of at least 2")
		}
		deposit, amount := ctx.Uint64("deposit"), ctx.Uint64("amount")
		if deposit > 1<<32-1 || amount > 1<<32-1 {
			return errors.New("--deposit and --amount must fit in 32 bits")
		}

		timeout := time.Duration(n.cfg.TimeoutSeconds) * time.Second
		runCtx, cancel := context.WithTimeout(ctx.Context, timeout)
		defer cancel()

		res, err := runDemo(runCtx, n, demoConfig{
			Accounts: count,
			Deposit:  uint32(deposit),
			Amount:   uint32(amount),
		})
		if err != nil {
			return err
		}
		for i, a := range res.Accounts {
			fmt.Printf("%-8s %s  balance %d\n", res.Wallets[i].Name, a.ID, res.Balances[i])
		}
		fmt.Printf("%d transfers proved in %s, root %s\n", len(res.Txs), res.ProveTime.Round(time.Millisecond), res.Root)
		return nil
	}),
}

type demoConfig struct {
	Accounts int
	Deposit  uint32
	Amount   uint32
}

type demoResult struct {
	Wallets   []*wallet.Wallet
	Accounts  []*accounts.Account
	Balances  []uint32
	Txs       []*transfer.Tx
	ProveTime time.Duration
	Root      string
}

func runDemo(ctx context.Context, n *node, cfg demoConfig) (*demoResult, error) {
	l, err := ledger.New(ledger.Config{
		Params:     n.params,
		Store:      accounts.NewMemoryStore(),
		TreeHeight: n.cfg.TreeHeight,
		Verifier:   n.sys,
		Logger:     &n.log.Logger,
	})
	if err != nil {
		return nil, err
	}

	res := &demoResult{}
	for i := 0; i < cfg.Accounts; i++ {
		w, err := wallet.New(fmt.Sprintf("user%d", i), n.params)
		if err != nil {
			return nil, err
		}
		if _, err := l.Register(w.Pub); err != nil {
			return nil, err
		}
		r, err := n.params.RandomScalar()
		if err != nil {
			return nil, err
		}
		a, err := l.Deposit(w.ID(), cfg.Deposit, r)
		if err != nil {
			return nil, err
		}
		res.Wallets = append(res.Wallets, w)
		res.Accounts = append(res.Accounts, a)
	}

	opts := n.cfg.TransferOptions()
	stmts := make([]*transfer.Statement, 0, cfg.Accounts/2)
	for i := 0; i < cfg.Accounts; i += 2 {
		st, err := res.Wallets[i].PrepareTransfer(res.Accounts[i], res.Accounts[i+1], cfg.Amount, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res.Wallets[i].Name, err)
		}
		stmts = append(stmts, st)
	}

	bar := progressbar.Default(int64(len(stmts)), "proving transfers")
	start := time.Now()
	txs, err := transfer.ProveBatch(ctx, n.sys, stmts, transfer.BatchOptions{
		Workers:  n.cfg.MaxConcurrency,
		OnProved: func(int) { bar.Add(1) },
	})
	if err != nil {
		return nil, err
	}
	res.ProveTime = time.Since(start)
	for range txs {
		n.metrics.RecordProofGeneration(n.sys.Scheme.String(), res.ProveTime/time.Duration(len(txs)))
	}

	for i, tx := range txs {
		sender, recipient := res.Accounts[2*i], res.Accounts[2*i+1]
		tx.SenderVersion, tx.RecipientVersion = sender.Version, recipient.Version
		if err := l.ApplyTransfer(tx); err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i, err)
		}
		n.metrics.RecordTransfer(cfg.Accounts)
	}
	res.Txs = txs

	for i, w := range res.Wallets {
		a, err := l.Account(w.ID())
		if err != nil {
			return nil, err
		}
		bal, err := w.Balance(a.Balance)
		if err != nil {
			return nil, err
		}
		res.Accounts[i] = a
		res.Balances = append(res.Balances, bal)
	}
	root := l.Root()
	res.Root = root.String()
	return res, nil
}
