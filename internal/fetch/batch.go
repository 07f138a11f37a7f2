package fetch

import (
	"context"
	"slices"
	"time"
)

type BatchOptions struct {
	BatchSize int
	Page      PageOptions
	// Delay is the pause between two batches.
	Delay time.Duration
}

type BatchReport struct {
	Batches int
	Partial int
	Pages   int
	Items   int
}

// Partition splits ids into consecutive chunks of at most size elements.
func Partition(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	batches := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

// ResolveBatches fetches the entities behind ids, batch by batch, and merges
// them by key. A batch that ends partially is counted in the report and the
// remaining batches still run.
func ResolveBatches[T any](
	ctx context.Context,
	p *Pager,
	ids []int64,
	opts BatchOptions,
	query func(batch []int64) Query[T],
	key func(T) int64,
) (map[int64]T, BatchReport, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	batches := Partition(sorted, opts.BatchSize)
	lookup := make(map[int64]T, len(sorted))
	report := BatchReport{}

	for i, batch := range batches {
		if i > 0 {
			if err := p.sleep(ctx, opts.Delay); err != nil {
				return lookup, report, err
			}
		}

		p.log.Info().Int("batch", i+1).Int("batches", len(batches)).Int("ids", len(batch)).Msg("resolving batch")

		q := query(batch)
		res, err := Fetch(ctx, p, q, opts.Page)
		report.Batches++
		report.Pages += res.Pages
		report.Items += len(res.Items)
		for _, item := range res.Items {
			lookup[key(item)] = item
		}
		if err != nil {
			return lookup, report, err
		}
		if res.Status == StatusPartial {
			report.Partial++
		}
	}

	return lookup, report, nil
}
