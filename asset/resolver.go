package asset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// ErrNilCache is returned by a Task started without a cache to fill.
var ErrNilCache = errors.New("asset: nil cache")

// DefaultConcurrency caps simultaneous fetches when Options.Concurrency is
// zero.
const DefaultConcurrency = 8

// Fetcher loads the raw bytes behind an image source.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, src string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, src string) ([]byte, error) {
	return f(ctx, src)
}

// Options configures a Resolver.
type Options struct {
	Concurrency int
	Fetcher     Fetcher
	Logger      *slog.Logger
}

// Resolver fetches and decodes images into a Cache. Concurrent requests for
// the same source, across batches and caches, share one fetch.
type Resolver struct {
	concurrency int64
	fetcher     Fetcher
	log         *slog.Logger
	group       singleflight.Group
}

// NewResolver returns a Resolver. A nil Fetcher defaults to an HTTPFetcher
// with default settings.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		concurrency: int64(opts.Concurrency),
		fetcher:     opts.Fetcher,
		log:         opts.Logger,
	}
	if r.concurrency <= 0 {
		r.concurrency = DefaultConcurrency
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.fetcher == nil {
		r.fetcher = NewHTTPFetcher(HTTPOptions{Logger: r.log})
	}
	return r
}

// Resolve starts resolving sources into cache and returns immediately.
// Sources that already have a final entry are not fetched again. When ctx
// ends, no new fetches start and every source still unresolved is recorded
// as Failed with ReasonCancelled; resolved entries stay intact. A nil cache
// finishes the task at once with ErrNilCache.
func (r *Resolver) Resolve(ctx context.Context, cache *Cache, sources []string) *Task {
	task := newTask()
	distinct := dedupe(sources)
	if cache == nil {
		task.finish(Summary{Requested: len(distinct)}, ErrNilCache)
		return task
	}
	go func() {
		start := time.Now()
		summary := Summary{Requested: len(distinct)}
		sem := semaphore.NewWeighted(r.concurrency)
		var wg sync.WaitGroup
		for _, src := range distinct {
			if cache.Lookup(src).State != StatePending {
				summary.Cached++
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				cache.Put(Entry{Source: src, State: StateFailed, Reason: ReasonCancelled})
				continue
			}
			wg.Add(1)
			go func(src string) {
				defer wg.Done()
				defer sem.Release(1)
				r.resolveOne(ctx, cache, src)
			}(src)
		}
		wg.Wait()

		for _, src := range distinct {
			e := cache.Lookup(src)
			switch {
			case e.State == StateResolved:
				summary.Resolved++
			case e.Cancelled():
				summary.Cancelled++
				summary.Failed++
			case e.State == StateFailed:
				summary.Failed++
			}
		}
		r.log.Debug("image batch finished",
			"requested", summary.Requested,
			"resolved", summary.Resolved,
			"failed", summary.Failed,
			"cancelled", summary.Cancelled,
			"duration_ms", time.Since(start).Milliseconds())
		task.finish(summary, ctx.Err())
	}()
	return task
}

func (r *Resolver) resolveOne(ctx context.Context, cache *Cache, src string) {
	for attempt := 0; attempt < 2; attempt++ {
		ch := r.group.DoChan(src, func() (any, error) {
			// A flight that starts just after another one stored its result
			// must not fetch again.
			if e := cache.Lookup(src); e.State != StatePending {
				return e, nil
			}
			e, err := r.load(ctx, src)
			if err != nil {
				if !isContextErr(err) {
					cache.Put(Entry{Source: src, State: StateFailed, Reason: err.Error()})
				}
				return nil, err
			}
			cache.Put(e)
			return e, nil
		})
		select {
		case <-ctx.Done():
			cache.Put(Entry{Source: src, State: StateFailed, Reason: ReasonCancelled})
			return
		case res := <-ch:
			if res.Err != nil {
				// A shared flight started by a cancelled batch must not fail
				// a batch that is still live.
				if isContextErr(res.Err) && ctx.Err() == nil && attempt == 0 {
					continue
				}
				reason := res.Err.Error()
				if isContextErr(res.Err) {
					reason = ReasonCancelled
				}
				r.log.Warn("image resolution failed", "src", src, "error", res.Err)
				cache.Put(Entry{Source: src, State: StateFailed, Reason: reason})
				return
			}
			e := res.Val.(Entry)
			cache.Put(e)
			return
		}
	}
}

func (r *Resolver) load(ctx context.Context, src string) (Entry, error) {
	data, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return Entry{}, err
	}
	info, err := Decode(data)
	if err != nil {
		return Entry{}, err
	}
	r.log.Debug("image resolved", "src", src, "bytes", len(data), "mime", info.MIME)
	return Entry{
		Source: src,
		State:  StateResolved,
		MIME:   info.MIME,
		Bytes:  data,
		Width:  info.Width,
		Height: info.Height,
	}, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func dedupe(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
