// Package suggest resolves trigger-based completions for the word under the cursor.
package suggest

import "context"

// ISuggester defines the interface for trigger completion engines
type ISuggester interface {
	// Suggest returns the merged suggestions of every trigger matching the
	// word that ends at position, or ErrNotFound when none matches.
	Suggest(ctx context.Context, text string, position int) ([]Suggestion, error)

	// Triggers returns the configured triggers in declaration order
	Triggers() []Trigger
}
