package suggest

import (
	"context"
	"strings"
)

// Keys that carry tree defaults in map-shaped data. They never show up as
// candidates.
const (
	ReservedTrigger = "__trigger__"
	ReservedColor   = "__color__"
)

// Tree is a hierarchy of named steps. Typing an entry key followed by the
// entry's trigger descends into that entry, so "$Sheet1:" reaches the
// children of Sheet1 when the root trigger is "$" and Sheet1 uses ":".
type Tree struct {
	// DefaultTrigger and DefaultColor apply to direct children that do not
	// set their own.
	DefaultTrigger string
	DefaultColor   string
	Entries        []Entry
}

// Entry is a named child of a Tree. A nil Node marks a terminal leaf.
type Entry struct {
	Key  string
	Node *Node
}

// Node is a step below a tree entry. A Node without a Source is terminal.
type Node struct {
	Trigger string
	Color   string
	Source  Source
}

// Keys returns the entry keys in declaration order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		if IsReserved(e.Key) {
			continue
		}
		keys = append(keys, e.Key)
	}
	return keys
}

// IsReserved reports whether key is one of the reserved default keys.
func IsReserved(key string) bool {
	return key == ReservedTrigger || key == ReservedColor
}

// next finds the first entry that search walks into past the consumed prefix.
func (t *Tree) next(search, start string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Node == nil || e.Node.Source == nil || IsReserved(e.Key) {
			continue
		}
		if strings.HasPrefix(search, start+e.Key) {
			return e, true
		}
	}
	return Entry{}, false
}

// resolve walks the tree as far as search allows and filters the candidates
// found there. Inherited triggers and colors live in local state only, the
// tree itself is never written to.
func (t *Tree) resolve(ctx context.Context, trigger, color string, q Query) (resolved, error) {
	search := q.Search
	start := ""

	var (
		items []string
		fn    ResolverFunc
	)

	tree := t
	for tree != nil {
		e, ok := tree.next(search, start)
		if !ok {
			items = tree.Keys()
			break
		}

		childTrigger := e.Node.Trigger
		if childTrigger == "" {
			childTrigger = tree.DefaultTrigger
		}
		// every step has to consume input or a cyclic tree never ends
		if e.Key+childTrigger == "" {
			items = tree.Keys()
			break
		}
		color = e.Node.Color
		if color == "" {
			color = tree.DefaultColor
		}
		start += e.Key + childTrigger

		tree = nil
		switch src := e.Node.Source.(type) {
		case *Tree:
			tree = src
		case List:
			items = src
		case ResolverFunc:
			fn = src
		}
	}

	if fn != nil {
		found, err := fn(ctx, Query{Search: search, Match: q.Match, Path: start})
		if err != nil {
			return resolved{}, err
		}
		return resolved{trigger + start, color, found}, nil
	}

	search = strings.TrimPrefix(search, start)
	return resolved{trigger + start, color, filterPrefix(items, search)}, nil
}

// filterPrefix keeps the non-reserved items starting with search.
func filterPrefix(items []string, search string) []string {
	filtered := make([]string, 0, len(items))
	for _, item := range items {
		if IsReserved(item) || !strings.HasPrefix(item, search) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}
