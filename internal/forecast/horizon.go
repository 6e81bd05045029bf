package forecast

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"uk-forecast-lab/internal/observability"
)

// Horizon predicts steps consecutive instants starting at start, step apart.
// Steps run concurrently against one snapshot; results keep step order and the
// first failure cancels the rest. Horizon results are not recorded.
func (s *Service) Horizon(ctx context.Context, start time.Time, steps int, step time.Duration, model, version string) ([]*Result, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive", ErrInvalidRequest)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive", ErrInvalidRequest)
	}
	observability.RecordHorizon(steps)

	hist := s.snapshot.Load()
	results := make([]*Result, steps)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.horizonLimit)

	for i := 0; i < steps; i++ {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			at := start.Add(time.Duration(i) * step)
			res, err := s.predict(Request{Time: at, Model: model, Version: version}, hist)
			if err != nil {
				return fmt.Errorf("step %d (%s): %w", i, at.Format(time.RFC3339), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
