package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/mindwork/pkg/model"
)

// SaveAll writes records to every store concurrently. The first failure
// cancels the context passed to the remaining saves and is returned.
func SaveAll(ctx context.Context, records []model.Record, stores ...Store) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range stores {
		g.Go(func() error {
			if err := s.Save(ctx, records); err != nil {
				return fmt.Errorf("save %s: %w", s, err)
			}
			return nil
		})
	}
	return g.Wait()
}
