package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/parsisolution/autocomplete/pkg/suggest"
)

// Validate reports every malformed trigger in the config at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	for i, t := range c.Triggers {
		name := fmt.Sprintf("trigger #%d (%q)", i, t.Trigger)
		if t.Trigger == "" {
			result = multierror.Append(result, fmt.Errorf("%s: empty trigger", name))
		}
		if t.Pattern != "" {
			if _, err := suggest.CompilePattern(t.Trigger, t.Pattern); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: invalid pattern: %w", name, err))
			}
		}
		switch {
		case t.List == nil && t.Tree == nil:
			result = multierror.Append(result, fmt.Errorf("%s: needs a list or a tree", name))
		case t.List != nil && t.Tree != nil:
			result = multierror.Append(result, fmt.Errorf("%s: has both a list and a tree", name))
		case t.Tree != nil:
			result = validateTree(result, name, t.Tree)
		}
	}
	return result.ErrorOrNil()
}

func validateTree(result *multierror.Error, path string, tree *TreeConfig) *multierror.Error {
	seen := make(map[string]bool, len(tree.Entries))
	for _, e := range tree.Entries {
		switch {
		case e.Key == "":
			result = multierror.Append(result, fmt.Errorf("%s: entry with empty key", path))
			continue
		case suggest.IsReserved(e.Key):
			result = multierror.Append(result, fmt.Errorf("%s: %q is reserved, use default_trigger/default_color", path, e.Key))
			continue
		case seen[e.Key]:
			result = multierror.Append(result, fmt.Errorf("%s: duplicate key %q", path, e.Key))
		}
		seen[e.Key] = true

		if e.List != nil && e.Tree != nil {
			result = multierror.Append(result, fmt.Errorf("%s/%s: has both a list and a tree", path, e.Key))
		}
		if e.Tree != nil {
			result = validateTree(result, path+"/"+e.Key, e.Tree)
		}
	}
	return result
}

// SuggestTriggers converts the configured triggers for suggest.New.
func (c *Config) SuggestTriggers() []suggest.Trigger {
	triggers := make([]suggest.Trigger, 0, len(c.Triggers))
	for _, t := range c.Triggers {
		trigger := suggest.Trigger{
			Trigger: t.Trigger,
			Pattern: t.Pattern,
			Color:   t.Color,
			Mode:    t.Mode,
		}
		if t.Tree != nil {
			trigger.Source = t.Tree.toTree()
		} else if t.List != nil {
			trigger.Source = suggest.List(t.List)
		}
		triggers = append(triggers, trigger)
	}
	return triggers
}

func (tc *TreeConfig) toTree() *suggest.Tree {
	tree := &suggest.Tree{
		DefaultTrigger: tc.DefaultTrigger,
		DefaultColor:   tc.DefaultColor,
		Entries:        make([]suggest.Entry, 0, len(tc.Entries)),
	}
	for _, e := range tc.Entries {
		entry := suggest.Entry{Key: e.Key}
		switch {
		case e.Tree != nil:
			entry.Node = &suggest.Node{Trigger: e.Trigger, Color: e.Color, Source: e.Tree.toTree()}
		case e.List != nil:
			entry.Node = &suggest.Node{Trigger: e.Trigger, Color: e.Color, Source: suggest.List(e.List)}
		case e.Trigger != "" || e.Color != "":
			entry.Node = &suggest.Node{Trigger: e.Trigger, Color: e.Color}
		}
		tree.Entries = append(tree.Entries, entry)
	}
	return tree
}
