/*
Package word locates the word under the cursor and splices replacements into text.

All offsets are rune offsets, the unit editors report for cursor positions,
so multi-byte text keeps the same arithmetic as plain ASCII.

A word starts right after the last space or line break before the cursor:

	word.Boundary("Hello @Ali", 10) // 5
	word.Current("Hello @Ali", 10)  // "@Ali"

Replace swaps the current word for a chosen suggestion and reports how far the
replacement reaches before and after the cursor:

	word.Replace("Hello @A", 8, "@Ali", false, true)
	// Result{Before: 2, After: -1, Text: "Hello @Ali "}
*/
package word

// Result describes a replacement. Before is the number of runes removed
// in front of the cursor, After the number of runes consumed behind it.
// After is negative when characters were inserted behind the cursor.
type Result struct {
	Before int    `msgpack:"b" json:"before"`
	After  int    `msgpack:"a" json:"after"`
	Text   string `msgpack:"x" json:"text"`
}

// IsBoundary reports whether r separates words.
func IsBoundary(r rune) bool {
	return r == ' ' || r == '\n'
}

// Boundary returns the index of the last space or line break in text[:offset],
// or -1 when the word starts at the beginning of text.
func Boundary(text string, offset int) int {
	runes := []rune(text)
	return boundary(runes, clamp(offset, len(runes)))
}

// Current returns the word that ends at position.
func Current(text string, position int) string {
	runes := []rune(text)
	position = clamp(position, len(runes))
	return string(runes[boundary(runes, position)+1 : position])
}

// Replace substitutes the word ending at position with value.
// With removeTrailing set, the rest of the word behind the cursor is dropped
// up to the next space. With spaceAfter set, a single space follows value
// unless one is already there.
func Replace(text string, position int, value string, removeTrailing, spaceAfter bool) Result {
	runes := []rune(text)
	position = clamp(position, len(runes))

	head, tail := runes[:position], runes[position:]
	start := head[:boundary(head, len(head))+1]

	keep := tail
	if removeTrailing {
		keep = nil
		for i, r := range tail {
			if r == ' ' {
				keep = tail[i:]
				break
			}
		}
	}

	if spaceAfter && (len(keep) == 0 || keep[0] != ' ') {
		keep = append([]rune{' '}, keep...)
	}

	return Result{
		Before: len(head) - len(start),
		After:  len(tail) - len(keep),
		Text:   string(start) + value + string(keep),
	}
}

func boundary(runes []rune, offset int) int {
	for i := offset - 1; i >= 0; i-- {
		if IsBoundary(runes[i]) {
			return i
		}
	}
	return -1
}

func clamp(offset, size int) int {
	if offset < 0 {
		return 0
	}
	if offset > size {
		return size
	}
	return offset
}
