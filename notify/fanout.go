// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// Fanout publishes each event to every publisher concurrently. One failing
// sink does not stop the others; all failures are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev election.Event) error {
	errs := make([]error, len(f))
	var g errgroup.Group
	for i, p := range f {
		g.Go(func() error {
			errs[i] = p.Publish(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
