package suggest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var people = []string{"Ali", "Alireza", "Hassan", "Hossein", "Reza"}

// sheets mirrors a spreadsheet reference tree: "$Sheet1:column2.field1".
func sheets() *Tree {
	return &Tree{
		DefaultTrigger: ":",
		DefaultColor:   "#ffa247",
		Entries: []Entry{
			{Key: "Sheet1", Node: &Node{
				Color: "#6db9fd",
				Source: &Tree{Entries: []Entry{
					{Key: "column1"},
					{Key: "column2", Node: &Node{Trigger: ".", Source: List{"field1", "field2"}}},
					{Key: "column3"},
					{Key: "column4"},
				}},
			}},
			{Key: "Sheet2", Node: &Node{}},
			{Key: "Sheet3"},
			{Key: "Sheet4", Node: &Node{}},
			{Key: "Hello", Node: &Node{Trigger: "#", Source: List{"there", "how R U"}}},
		},
	}
}

func mentions(_ context.Context, q Query) ([]string, error) {
	var found []string
	if len(q.Match) > 1 {
		for _, p := range people {
			if strings.HasPrefix(p, q.Match[1]) {
				found = append(found, p)
			}
		}
	}
	return found, nil
}

func fixture(t *testing.T) *Engine {
	t.Helper()
	e, err := New([]Trigger{
		{Trigger: "$", Color: "blue", Source: sheets()},
		{Trigger: "$#", Color: "#0f0", Source: List{"Hash1", "Hash2", "Hash3"}},
		{Trigger: "@", Pattern: `(?i)([A-Za-z]+[_A-Za-z0-9]*)`, Source: ResolverFunc(mentions), Mode: "replace"},
	})
	require.NoError(t, err)
	return e
}

func displays(suggestions []Suggestion) []string {
	d := make([]string, len(suggestions))
	for i, s := range suggestions {
		d[i] = s.Display
	}
	return d
}

func TestSuggest(t *testing.T) {
	e := fixture(t)

	testCases := []struct {
		text        string
		position    int
		expected    []Suggestion
		description string
	}{
		{"$Sheet", 1, []Suggestion{
			{"$", "blue", "Sheet1"},
			{"$", "blue", "Sheet2"},
			{"$", "blue", "Sheet3"},
			{"$", "blue", "Sheet4"},
			{"$", "blue", "Hello"},
		}, "Bare trigger lists the tree root"},
		{"$#", 2, []Suggestion{
			{"$#", "#0f0", "Hash1"},
			{"$#", "#0f0", "Hash2"},
			{"$#", "#0f0", "Hash3"},
		}, "Longer trigger on the same word"},
		{"$Sheet", 2, []Suggestion{
			{"$", "blue", "Sheet1"},
			{"$", "blue", "Sheet2"},
			{"$", "blue", "Sheet3"},
			{"$", "blue", "Sheet4"},
		}, "Root keys filtered by prefix"},
		{"$Sheet1:co", 9, []Suggestion{
			{"$Sheet1:", "#6db9fd", "column1"},
			{"$Sheet1:", "#6db9fd", "column2"},
			{"$Sheet1:", "#6db9fd", "column3"},
			{"$Sheet1:", "#6db9fd", "column4"},
		}, "Descend with inherited trigger"},
		{"$Sheet1:column2.", 16, []Suggestion{
			{"$Sheet1:column2.", "", "field1"},
			{"$Sheet1:column2.", "", "field2"},
		}, "Nested list without inherited color"},
		{"$Sheet1:column2.field2", 22, []Suggestion{
			{"$Sheet1:column2.", "", "field2"},
		}, "Nested list filtered"},
		{"@Ali", 4, []Suggestion{
			{"@", "", "Ali"},
			{"@", "", "Alireza"},
		}, "Pattern trigger"},
		{"Hello @Ali", 10, []Suggestion{
			{"@", "", "Ali"},
			{"@", "", "Alireza"},
		}, "Pattern trigger in the middle of text"},
		{"Hello @Hossein", 8, []Suggestion{
			{"@", "", "Hassan"},
			{"@", "", "Hossein"},
		}, "Cursor inside the word"},
		{"@ $Hello#", 9, []Suggestion{
			{"$Hello#", "#ffa247", "there"},
			{"$Hello#", "#ffa247", "how R U"},
		}, "Tree default color"},
		{"line\n$Hello#th", 14, []Suggestion{
			{"$Hello#", "#ffa247", "there"},
		}, "Line break boundary"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got, err := e.Suggest(context.Background(), tc.text, tc.position)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSuggestNotFound(t *testing.T) {
	e := fixture(t)

	for _, tc := range []struct {
		text     string
		position int
	}{
		{"@Ali", 0},
		{"Hello", 5},
		{"Hello @", 6},
		{"@", 1},
	} {
		_, err := e.Suggest(context.Background(), tc.text, tc.position)
		assert.ErrorIs(t, err, ErrNotFound, "%q at %d", tc.text, tc.position)
	}
}

func TestSuggestMatchedButEmpty(t *testing.T) {
	e := fixture(t)

	got, err := e.Suggest(context.Background(), "$Nope", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// "$Sheet1" descends into Sheet1 but the search lacks its ":" trigger
	got, err = e.Suggest(context.Background(), "$Sheet1", 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStaticListFiltering(t *testing.T) {
	e, err := New([]Trigger{{Trigger: "@", Color: "red", Source: List(people)}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "@Ali", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ali", "Alireza"}, displays(got))

	got, err = e.Suggest(context.Background(), "@", 1)
	require.NoError(t, err)
	assert.Equal(t, people, displays(got))
	for _, s := range got {
		assert.Equal(t, "@", s.Trigger)
		assert.Equal(t, "red", s.Color)
	}

	got, err = e.Suggest(context.Background(), "@ali", 4)
	require.NoError(t, err)
	assert.Empty(t, got, "filtering is case-sensitive")
}

func TestStaticListKeepsDuplicatesAndOrder(t *testing.T) {
	e, err := New([]Trigger{{Trigger: "#", Source: List{"beta", "alpha", "be", "beta", ""}}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "#be", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "be", "beta"}, displays(got))

	got, err = e.Suggest(context.Background(), "#", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha", "be", "beta", ""}, displays(got))
}

func TestPatternWithoutGroups(t *testing.T) {
	var seen Query
	e, err := New([]Trigger{{
		Trigger: ":",
		Pattern: `[a-z]+`,
		Source: ResolverFunc(func(_ context.Context, q Query) ([]string, error) {
			seen = q
			return []string{"smile"}, nil
		}),
	}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "hi :sm", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"smile"}, displays(got))
	assert.Equal(t, "sm", seen.Search)
	assert.Equal(t, []string{":sm"}, seen.Match)
}

func TestPatternTriggerIsLiteral(t *testing.T) {
	e, err := New([]Trigger{{Trigger: "$", Pattern: `(\w+)`, Source: List{"amount", "total"}}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "$to", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, displays(got))
}

func TestTreeResolverNode(t *testing.T) {
	var seen Query
	tree := &Tree{
		DefaultTrigger: "/",
		Entries: []Entry{
			{Key: "users", Node: &Node{Color: "green", Source: ResolverFunc(func(_ context.Context, q Query) ([]string, error) {
				seen = q
				return []string{"zed", "amy"}, nil
			})}},
			{Key: "groups"},
		},
	}
	e, err := New([]Trigger{{Trigger: "~", Source: tree}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "~users/a", 8)
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{"~users/", "green", "zed"}, {"~users/", "green", "amy"}}, got)
	assert.Equal(t, "users/a", seen.Search)
	assert.Equal(t, "users/", seen.Path)
}

func TestTreeSkipsReservedKeys(t *testing.T) {
	tree := &Tree{Entries: []Entry{
		{Key: ReservedTrigger},
		{Key: "a"},
		{Key: ReservedColor},
		{Key: "b", Node: &Node{Trigger: ".", Source: List{ReservedColor, "x"}}},
	}}
	e, err := New([]Trigger{{Trigger: "$", Source: tree}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "$", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, displays(got))

	got, err = e.Suggest(context.Background(), "$b.", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, displays(got))
}

func TestTreeEmptyStepDoesNotLoop(t *testing.T) {
	root := &Tree{}
	root.Entries = []Entry{
		{Key: "", Node: &Node{Source: root}},
		{Key: "Sheet1"},
	}
	e, err := New([]Trigger{{Trigger: "$", Source: root}})
	require.NoError(t, err)

	done := make(chan []Suggestion, 1)
	go func() {
		got, err := e.Suggest(context.Background(), "$Sh", 3)
		assert.NoError(t, err)
		done <- got
	}()

	select {
	case got := <-done:
		assert.Equal(t, []Suggestion{{Trigger: "$", Display: "Sheet1"}}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("tree walk did not terminate")
	}
}

func TestPatternFlagsAndQuantifiers(t *testing.T) {
	// "+" alone is not a valid expression but applies to the quoted trigger
	e, err := New([]Trigger{{Trigger: "@", Pattern: "+", Source: List{"x"}}})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "@", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, displays(got))

	_, err = CompilePattern("@", "(?i)(")
	assert.Error(t, err)
}

func TestSuggestOrderFollowsDeclaration(t *testing.T) {
	slow := ResolverFunc(func(ctx context.Context, _ Query) ([]string, error) {
		time.Sleep(20 * time.Millisecond)
		return []string{"slow1", "slow2"}, nil
	})
	fast := ResolverFunc(func(context.Context, Query) ([]string, error) {
		return []string{"fast"}, nil
	})
	e, err := New([]Trigger{
		{Trigger: "!", Source: slow},
		{Trigger: "!", Source: fast},
	})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "!", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"slow1", "slow2", "fast"}, displays(got))
}

func TestSuggestResolverFailure(t *testing.T) {
	boom := errors.New("boom")
	var cancelled bool
	var mu sync.Mutex

	e, err := New([]Trigger{
		{Trigger: "!", Source: ResolverFunc(func(ctx context.Context, _ Query) ([]string, error) {
			select {
			case <-ctx.Done():
				mu.Lock()
				cancelled = true
				mu.Unlock()
				return nil, ctx.Err()
			case <-time.After(time.Second):
				return []string{"late"}, nil
			}
		})},
		{Trigger: "!", Source: ResolverFunc(func(context.Context, Query) ([]string, error) {
			return nil, boom
		})},
	})
	require.NoError(t, err)

	got, err := e.Suggest(context.Background(), "!", 1)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, cancelled, "siblings see the group context cancelled")
}

func TestSuggestIsIdempotent(t *testing.T) {
	tree := sheets()
	e, err := New([]Trigger{{Trigger: "$", Color: "blue", Source: tree}})
	require.NoError(t, err)

	first, err := e.Suggest(context.Background(), "$Sheet1:column2.", 16)
	require.NoError(t, err)
	second, err := e.Suggest(context.Background(), "$Sheet1:column2.", 16)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, sheets(), tree, "configuration is left untouched")
}

func TestSuggestConcurrent(t *testing.T) {
	e := fixture(t)
	want, err := e.Suggest(context.Background(), "$Sheet1:co", 9)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Suggest(context.Background(), "$Sheet1:co", 9)
			if err != nil {
				errs <- err
				return
			}
			if len(got) != len(want) {
				errs <- errors.New("result length differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNewRejectsMalformedTriggers(t *testing.T) {
	_, err := New([]Trigger{
		{Trigger: "", Source: List{"a"}},
		{Trigger: "@"},
		{Trigger: "#", Pattern: "(", Source: List{"a"}},
		{Trigger: "!", Source: List{"ok"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trigger #0")
	assert.Contains(t, err.Error(), "trigger #1")
	assert.Contains(t, err.Error(), "trigger #2")
	assert.NotContains(t, err.Error(), "trigger #3")
}

func TestTriggersReturnsCopy(t *testing.T) {
	e := fixture(t)
	triggers := e.Triggers()
	require.Len(t, triggers, 3)
	assert.Equal(t, "replace", triggers[2].Mode)

	triggers[0].Trigger = "changed"
	assert.Equal(t, "$", e.Triggers()[0].Trigger)
}
