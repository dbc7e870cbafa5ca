package suggest

import (
	"slices"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// listIndex answers prefix queries over a static list. The trie stores the
// positions of every item so results come back in list order, duplicates
// included.
type listIndex struct {
	items []string
	trie  *patricia.Trie
}

func newListIndex(items List) *listIndex {
	index := &listIndex{
		items: slices.Clone([]string(items)),
		trie:  patricia.NewTrie(),
	}

	for i, item := range index.items {
		// the empty item only matches the empty search, which never hits the trie
		if item == "" {
			continue
		}
		key := patricia.Prefix(item)
		if existing := index.trie.Get(key); existing != nil {
			index.trie.Set(key, append(existing.([]int), i))
			continue
		}
		index.trie.Insert(key, []int{i})
	}
	return index
}

// Search returns the items starting with prefix, in list order.
// The empty prefix returns the whole list.
func (x *listIndex) Search(prefix string) []string {
	if prefix == "" {
		return slices.Clone(x.items)
	}

	var positions []int
	err := x.trie.VisitSubtree(patricia.Prefix(prefix), func(_ patricia.Prefix, item patricia.Item) error {
		positions = append(positions, item.([]int)...)
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting list subtree: %v", err)
		return []string{}
	}

	slices.Sort(positions)
	found := make([]string, len(positions))
	for i, p := range positions {
		found[i] = x.items[p]
	}
	return found
}
