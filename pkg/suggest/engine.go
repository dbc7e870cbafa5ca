package suggest

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/parsisolution/autocomplete/internal/logger"
	"github.com/parsisolution/autocomplete/pkg/word"
	"golang.org/x/sync/errgroup"
)

// Engine matches the word under the cursor against its triggers.
// It is immutable once built and safe for concurrent use.
type Engine struct {
	defs     []Trigger
	triggers []*compiled
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the default "suggest" logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine for triggers. Every malformed trigger (empty trigger,
// missing source, bad pattern) is reported in the returned error.
func New(triggers []Trigger, opts ...Option) (*Engine, error) {
	compiledTriggers, err := compileAll(triggers)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		defs:     slices.Clone(triggers),
		triggers: compiledTriggers,
		logger:   logger.New(logger.Suggest),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Triggers returns the configured triggers in declaration order.
func (e *Engine) Triggers() []Trigger {
	return slices.Clone(e.defs)
}

// Suggest resolves every trigger matching the word that ends at position.
// Resolvers run concurrently; the result keeps declaration order and then
// the order each resolver returned. The first resolver error is returned as is.
func (e *Engine) Suggest(ctx context.Context, text string, position int) ([]Suggestion, error) {
	current := word.Current(text, position)

	type job struct {
		trigger *compiled
		query   Query
	}
	var jobs []job
	for _, c := range e.triggers {
		if q, ok := c.match(current); ok {
			jobs = append(jobs, job{c, q})
		}
	}

	if len(jobs) == 0 {
		e.logger.Debug("No trigger matched", "word", current)
		return nil, ErrNotFound
	}

	start := time.Now()
	results := make([]resolved, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			r, err := j.trigger.resolve(gctx, j.query)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Debug("Resolver failed", "word", current, "err", err)
		return nil, err
	}

	suggestions := make([]Suggestion, 0)
	for _, r := range results {
		for _, item := range r.items {
			suggestions = append(suggestions, Suggestion{
				Trigger: r.trigger,
				Color:   r.color,
				Display: item,
			})
		}
	}

	e.logger.Debugf("Took [ %v ] for word '%s': %d triggers, %d suggestions",
		time.Since(start), current, len(jobs), len(suggestions))
	return suggestions, nil
}
