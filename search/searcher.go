package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sift/core"
)

// Searcher ranks collections of T, evaluating large collections on a
// worker pool. Results are identical to Items and Rank.
type Searcher[T any] struct {
	config  *Config
	pool    *ants.Pool
	logger  *slog.Logger
	monitor SearchMonitor
}

type settings struct {
	config  *Config
	logger  *slog.Logger
	monitor SearchMonitor
}

// Option configures a Searcher.
type Option func(*settings) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig replaces the default Config.
func WithConfig(cfg *Config) Option {
	return func(s *settings) error {
		if cfg == nil {
			cfg = DefaultConfig()
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.config = cfg
		return nil
	}
}

// WithMonitor installs a monitor that observes every search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *settings) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// antsLoggerAdapter adapts slog.Logger to the ants.Logger interface.
type antsLoggerAdapter struct {
	logger *slog.Logger
}

var _ ants.Logger = (*antsLoggerAdapter)(nil)

func (al *antsLoggerAdapter) Printf(format string, args ...any) {
	al.logger.Warn(fmt.Sprintf(format, args...))
}

// NewSearcher creates a new searcher. Call Release when done.
func NewSearcher[T any](opts ...Option) (*Searcher[T], error) {
	s := &settings{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		monitor: &noopMonitor{},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	searcher := &Searcher[T]{
		config:  s.config,
		logger:  s.logger,
		monitor: s.monitor,
	}

	if s.config.PoolSize > 0 {
		pool, err := ants.NewPool(s.config.PoolSize, ants.WithLogger(&antsLoggerAdapter{logger: s.logger}))
		if err != nil {
			return nil, err
		}
		searcher.pool = pool
	}

	return searcher, nil
}

// Release frees the worker pool.
func (s *Searcher[T]) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Search filters and orders items. See Items for the ranking rules.
func (s *Searcher[T]) Search(ctx context.Context, items []T, opts *Options[T]) ([]T, error) {
	if _, active := queryKeywords(opts); !active {
		return items, nil
	}
	results, err := s.Rank(ctx, items, opts)
	if err != nil {
		return nil, err
	}
	return unwrap(results), nil
}

// Rank filters and orders items, keeping match details.
func (s *Searcher[T]) Rank(ctx context.Context, items []T, opts *Options[T]) ([]Result[T], error) {
	keywords, active := queryKeywords(opts)
	if !active {
		return passThrough(items), nil
	}

	mode := opts.Mode
	if mode == "" {
		mode = s.config.DefaultMode
	}
	mode = mode.OrDefault()
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidMode, mode)
	}

	s.monitor.Start(opts.Text, keywords, len(items))

	var (
		slots []*Result[T]
		err   error
	)
	if s.pool != nil && len(items) >= s.config.ParallelThreshold {
		slots, err = s.evaluatePooled(ctx, items, keywords, mode, opts.Fields)
	} else {
		slots, err = s.evaluateSequential(ctx, items, keywords, mode, opts.Fields)
	}
	if err != nil {
		s.logger.Error("search aborted", "query", opts.Text, "err", err)
		return nil, err
	}

	for i, slot := range slots {
		if slot == nil {
			s.monitor.Rejected(i)
			continue
		}
		s.monitor.Matched(i, slot.Hits)
	}

	results := collect(slots)
	s.monitor.Finish(len(results), len(items))
	s.logger.Debug("search complete",
		"query", opts.Text,
		"mode", string(mode),
		"keywords", len(keywords),
		"matched", len(results),
		"total", len(items))
	return results, nil
}

func (s *Searcher[T]) evaluateSequential(ctx context.Context, items []T, keywords []string, mode core.Mode, provider FieldsProvider[T]) ([]*Result[T], error) {
	slots := make([]*Result[T], len(items))
	for i, item := range items {
		if i%s.config.ParallelThreshold == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		slots[i] = evaluate(i, item, keywords, mode, provider)
	}
	return slots, nil
}

// evaluatePooled runs the per-item map step on the pool. Each task writes
// only its own slot, so ordering is restored by index before sorting.
func (s *Searcher[T]) evaluatePooled(ctx context.Context, items []T, keywords []string, mode core.Mode, provider FieldsProvider[T]) ([]*Result[T], error) {
	slots := make([]*Result[T], len(items))

	var (
		wg        sync.WaitGroup
		panicOnce sync.Once
		panicVal  any
	)

	var submitErr error
	for i := range items {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicVal = r })
				}
			}()
			slots[i] = evaluate(i, items[i], keywords, mode, provider)
		})
		if err != nil {
			wg.Done()
			submitErr = fmt.Errorf("%w: %w", ErrPoolSubmit, err)
			break
		}
	}

	wg.Wait()

	// Provider panics are programmer errors; surface them to the caller.
	if panicVal != nil {
		panic(panicVal)
	}
	if submitErr != nil {
		return nil, submitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}
