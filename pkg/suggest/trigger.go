package suggest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrNotFound is returned by Suggest when the word under the cursor matches
// none of the configured triggers. A trigger that matches but yields no items
// is not an error: Suggest returns an empty slice instead.
var ErrNotFound = errors.New("suggest: no trigger matched")

// Source is one of List, *Tree or ResolverFunc.
type Source interface {
	source()
}

// List is a static, ordered candidate list filtered by literal prefix.
type List []string

// ResolverFunc produces candidates for a query. It may block and should
// honor ctx cancellation.
type ResolverFunc func(ctx context.Context, q Query) ([]string, error)

func (List) source()         {}
func (ResolverFunc) source() {}
func (*Tree) source()        {}

// Query is what a resolver gets to work with.
type Query struct {
	// Search is the text typed after the trigger. For pattern triggers it is
	// the first capture group, or the whole match minus the trigger when the
	// pattern has no groups.
	Search string
	// Match holds the submatches of a pattern trigger, nil otherwise.
	Match []string
	// Path is the tree prefix consumed before reaching a resolver node.
	Path string
}

// Trigger configures one autocomplete source.
type Trigger struct {
	// Trigger is the literal prefix that opens the completion context.
	Trigger string
	// Pattern is an optional RE2 expression appended to the quoted trigger.
	// Leading inline flags such as (?i) apply to the whole expression.
	Pattern string
	// Color is attached to every suggestion of this trigger.
	Color  string
	Source Source

	// Mode and OnSelect are carried for UI consumers and never read here.
	Mode     string
	OnSelect func(item string) string
}

// Suggestion is a single completion candidate.
type Suggestion struct {
	Trigger string `msgpack:"t" json:"t"`
	Color   string `msgpack:"c,omitempty" json:"c,omitempty"`
	Display string `msgpack:"d" json:"d"`
}

// resolved is the output of one trigger, with the trigger and color in
// effect at the tree level the items came from.
type resolved struct {
	trigger string
	color   string
	items   []string
}

type compiled struct {
	def     Trigger
	pattern *regexp.Regexp
	resolve func(ctx context.Context, q Query) (resolved, error)
}

var leadingFlags = regexp.MustCompile(`^\(\?[imsU]+\)`)

// CompilePattern builds the expression a pattern trigger matches with: the
// quoted trigger followed by pattern, with the pattern's leading flags in front.
func CompilePattern(trigger, pattern string) (*regexp.Regexp, error) {
	flags := leadingFlags.FindString(pattern)
	return regexp.Compile(flags + regexp.QuoteMeta(trigger) + pattern[len(flags):])
}

func compile(def Trigger) (*compiled, error) {
	if def.Trigger == "" {
		return nil, errors.New("empty trigger")
	}

	c := &compiled{def: def}
	if def.Pattern != "" {
		re, err := CompilePattern(def.Trigger, def.Pattern)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: invalid pattern: %w", def.Trigger, err)
		}
		c.pattern = re
	}

	switch src := def.Source.(type) {
	case List:
		index := newListIndex(src)
		c.resolve = func(_ context.Context, q Query) (resolved, error) {
			return resolved{def.Trigger, def.Color, index.Search(q.Search)}, nil
		}
	case *Tree:
		if src == nil {
			return nil, fmt.Errorf("trigger %q: nil tree", def.Trigger)
		}
		c.resolve = func(ctx context.Context, q Query) (resolved, error) {
			return src.resolve(ctx, def.Trigger, def.Color, q)
		}
	case ResolverFunc:
		if src == nil {
			return nil, fmt.Errorf("trigger %q: nil resolver", def.Trigger)
		}
		c.resolve = func(ctx context.Context, q Query) (resolved, error) {
			items, err := src(ctx, q)
			return resolved{def.Trigger, def.Color, items}, err
		}
	default:
		return nil, fmt.Errorf("trigger %q: no source", def.Trigger)
	}
	return c, nil
}

func compileAll(defs []Trigger) ([]*compiled, error) {
	var result *multierror.Error
	triggers := make([]*compiled, 0, len(defs))
	for i, def := range defs {
		c, err := compile(def)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("trigger #%d: %w", i, err))
			continue
		}
		triggers = append(triggers, c)
	}
	return triggers, result.ErrorOrNil()
}

// match tests the current word against the trigger.
func (c *compiled) match(current string) (Query, bool) {
	if c.pattern == nil {
		if !strings.HasPrefix(current, c.def.Trigger) {
			return Query{}, false
		}
		return Query{Search: current[len(c.def.Trigger):]}, true
	}

	m := c.pattern.FindStringSubmatch(current)
	if m == nil {
		return Query{}, false
	}
	q := Query{Match: m, Search: strings.TrimPrefix(m[0], c.def.Trigger)}
	if len(m) > 1 {
		q.Search = m[1]
	}
	return q, true
}
