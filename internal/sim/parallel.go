package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/path"
	"golang.org/x/sync/errgroup"
)

// Job is one closed-loop run of a batch. Simulators must not be shared
// between jobs: the car, the controller and the metrics all carry state
// between ticks.
type Job struct {
	Name      string
	Simulator *Simulator
	Path      path.Path
	Config    dynamo.Config
}

// RunBatch runs jobs concurrently, at most GOMAXPROCS at a time. Results
// keep the order of jobs. The first failing job cancels the rest.
func RunBatch(ctx context.Context, jobs []Job) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, job := range jobs {
		g.Go(func() error {
			res, err := job.Simulator.Run(ctx, job.Path, job.Config)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
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
