package transfer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

// Result is the outcome of one job in a batch.
type Result struct {
	Job     Job
	Metrics *Metrics
	Err     error

	// Skipped is true when BatchOptions.Skip excluded the job.
	Skipped bool
}

// BatchOptions configures TransferBatch.
type BatchOptions struct {
	// Parallelism bounds concurrent uploads. Values below 1 mean 1.
	Parallelism int

	// Skip, if set, is consulted before each job; returning true skips it.
	Skip func(Job) bool
}

// TransferBatch runs jobs with bounded concurrency. A failing job does not
// cancel the others. Results are returned in job order.
func (c *Client) TransferBatch(ctx context.Context, jobs []Job, opts BatchOptions) []Result {
	limit := max(opts.Parallelism, 1)
	results := make([]Result, len(jobs))

	c.logState(journal.StateEntityBatch, "", "STARTED", fmt.Sprintf("%d jobs", len(jobs)))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		results[i].Job = job
		if opts.Skip != nil && opts.Skip(job) {
			results[i].Skipped = true
			continue
		}
		g.Go(func() error {
			m, err := c.SecureTransfer(ctx, job)
			results[i].Metrics = m
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.logState(journal.StateEntityBatch, "STARTED", "FINISHED", fmt.Sprintf("%d failed", failed))
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
