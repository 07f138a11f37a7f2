package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/rs/zerolog"
)

// Query describes one paginated GraphQL selection. Filter holds the
// variables besides the cursor; Cursor extracts the resume-after id.
type Query[T any] struct {
	Name   string
	Text   string
	Field  string
	Filter map[string]any
	Cursor func(T) int64
}

func (q Query[T]) variables(after *int64, limit int) map[string]any {
	vars := make(map[string]any, len(q.Filter)+2)
	maps.Copy(vars, q.Filter)
	vars["limit"] = limit
	if after == nil {
		vars["after"] = nil
	} else {
		vars["after"] = *after
	}
	return vars
}

type PageOptions struct {
	PageSize int
	// MaxPages caps the number of pages read; zero means unlimited.
	MaxPages int
	// Delay is the pause between two successful pages.
	Delay time.Duration
	// StopOnShortPage ends pagination on a page smaller than PageSize
	// instead of asking for the empty page that follows it.
	StopOnShortPage bool
}

type Status string

const (
	StatusComplete  Status = "complete"
	StatusTruncated Status = "truncated"
	StatusPartial   Status = "partial"
)

// Result is the outcome of one pagination loop. On StatusPartial, Cause
// holds a *SourceError and Items is what was read before it.
type Result[T any] struct {
	Items  []T
	Pages  int
	Status Status
	Cause  error
}

type Pager struct {
	exec   Executor
	policy RetryPolicy
	sleep  Sleeper
	log    zerolog.Logger
}

func NewPager(exec Executor, policy RetryPolicy, log zerolog.Logger) *Pager {
	return &Pager{
		exec:   exec,
		policy: policy,
		sleep:  Sleep,
		log:    log,
	}
}

// WithSleeper replaces the blocking delay used for retries and page pauses.
func (p *Pager) WithSleeper(sleep Sleeper) *Pager {
	p.sleep = sleep
	return p
}

// Fetch reads pages until the source returns an empty page, the page cap
// is reached, or the source fails. Source failures end the loop with a
// partial result and a nil error; only exhausted retries and context
// cancellation are returned as errors.
func Fetch[T any](ctx context.Context, p *Pager, q Query[T], opts PageOptions) (Result[T], error) {
	var (
		res   Result[T]
		after *int64
		page  = 1
	)

	for {
		if opts.MaxPages > 0 && page > opts.MaxPages {
			p.log.Warn().Str("query", q.Name).Int("max_pages", opts.MaxPages).Msg("page limit reached")
			res.Status = StatusTruncated
			return res, nil
		}
		if page > 1 {
			if err := p.sleep(ctx, opts.Delay); err != nil {
				return res, err
			}
		}

		items, err := fetchPage(ctx, p, q, q.variables(after, opts.PageSize), page)
		if err != nil {
			var srcErr *SourceError
			if errors.As(err, &srcErr) {
				p.log.Warn().Err(err).Str("query", q.Name).Int("page", page).Int("total", len(res.Items)).
					Msg("fetch stopped, keeping partial result")
				res.Status = StatusPartial
				res.Cause = err
				return res, nil
			}
			return res, err
		}

		if len(items) == 0 {
			res.Status = StatusComplete
			return res, nil
		}

		res.Items = append(res.Items, items...)
		res.Pages++
		p.log.Info().Str("query", q.Name).Int("page", page).Int("received", len(items)).Int("total", len(res.Items)).
			Msg("page fetched")

		if opts.StopOnShortPage && len(items) < opts.PageSize {
			res.Status = StatusComplete
			return res, nil
		}

		last := q.Cursor(items[len(items)-1])
		after = &last
		page++
	}
}

func fetchPage[T any](ctx context.Context, p *Pager, q Query[T], vars map[string]any, page int) ([]T, error) {
	req := Request{Query: q.Text, Variables: vars}
	state := newRetry(p.policy)

	for {
		resp, err := p.exec.Execute(ctx, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		kind := classify(resp, err)
		switch kind {
		case failureNone:
			items, decodeErr := decodePage[T](resp, q.Field)
			if decodeErr != nil {
				return nil, sourceError(resp, decodeErr)
			}
			state.succeed()
			return items, nil
		case failureTerminal:
			return nil, sourceError(resp, err)
		}

		delay, ok := state.next(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s page %d after %d attempts: %v", ErrRetriesExhausted, q.Name, page, state.attempts, err)
		}

		event := p.log.Warn().Str("query", q.Name).Int("page", page).Str("kind", kind.String()).Dur("delay", delay)
		if kind != failureRateLimit {
			event = event.Int("attempt", state.attempts)
		}
		event.Msg("retrying page")

		if err := p.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func decodePage[T any](resp *Response, field string) ([]T, error) {
	raw, ok := resp.Data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", field, err)
	}
	return items, nil
}
