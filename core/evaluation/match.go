package evaluation

import (
	"fmt"
	"io"
)

// Match compares two multisets of items. Each guessed item matches at most
// one equal reference item. Missing items are reference items without a
// match; spurious items are guessed items without a match. Both keep their
// input order.
func Match(guessed, reference []string) (c Counts, missing, spurious []string) {
	pool := make(map[string]int, len(reference))
	for _, item := range reference {
		pool[item]++
	}
	for _, item := range guessed {
		if pool[item] > 0 {
			pool[item]--
			c.Matched++
		} else {
			spurious = append(spurious, item)
		}
	}
	for _, item := range reference {
		if pool[item] > 0 {
			pool[item]--
			missing = append(missing, item)
		}
	}
	c.Guessed = len(guessed)
	c.Reference = len(reference)
	return c, missing, spurious
}

// PrintDiff writes the missing and spurious items of one field.
func PrintDiff(w io.Writer, field string, missing, spurious []string) {
	for _, item := range missing {
		fmt.Fprintf(w, "  %s missing:  %s\n", field, item)
	}
	for _, item := range spurious {
		fmt.Fprintf(w, "  %s spurious: %s\n", field, item)
	}
}
