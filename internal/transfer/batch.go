package transfer

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"zether/internal/prover"
)

// BatchOptions tune ProveBatch.
type BatchOptions struct {
	// Workers bounds the number of proofs in flight. Zero means GOMAXPROCS.
	Workers int
	// OnProved is called after each proof, possibly concurrently.
	OnProved func(i int)
}

// ProveBatch proves independent statements in parallel. The statements must
// not share an account: each one consumes a ciphertext the others could
// replace. The first failure cancels the remaining work.
func ProveBatch(ctx context.Context, sys *prover.System, stmts []*Statement, opts BatchOptions) ([]*Tx, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	txs := make([]*Tx, len(stmts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, st := range stmts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tx, err := CreateTx(sys, st)
			if err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
			txs[i] = tx
			if opts.OnProved != nil {
				opts.OnProved(i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return txs, nil
}
