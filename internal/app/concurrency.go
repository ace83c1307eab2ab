package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

type snapshotFunc func(ctx context.Context) ([]domain.Quote, error)

// collectSnapshots reads the remote and local collections concurrently.
// The first failure cancels the context handed to the other read, and no
// partial snapshot pair is returned.
func collectSnapshots(ctx context.Context, fetchRemote, readLocal snapshotFunc) (snapshots, error) {
	g, gctx := errgroup.WithContext(ctx)

	var remote, local []domain.Quote

	g.Go(func() error {
		var err error

		remote, err = fetchRemote(gctx)

		return err
	})

	g.Go(func() error {
		var err error

		local, err = readLocal(gctx)
		if err != nil {
			return fmt.Errorf("reading local snapshot: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return snapshots{}, err
	}

	return snapshots{local: local, remote: remote}, nil
}
