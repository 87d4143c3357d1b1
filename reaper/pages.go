package reaper

import (
	"context"
	"errors"
	"iter"
)

// ErrRepeatedCursor is returned when a listing claims more pages but hands
// back the cursor it was just called with.
var ErrRepeatedCursor = errors.New("listing returned the same cursor twice")

/*
fetchFunc retrieves the page that starts at cursor. The zero cursor means the
first page. more reports whether next points at another page.
*/
type fetchFunc[P any, C comparable] func(ctx context.Context, cursor C) (page P, next C, more bool, err error)

/*
pages turns a fetchFunc into a lazy sequence of pages. Nothing is fetched
until the sequence is ranged over, and ranging again starts from the first
page. The first error ends the sequence.
*/
func pages[P any, C comparable](ctx context.Context, fetch fetchFunc[P, C]) iter.Seq2[P, error] {
	return func(yield func(P, error) bool) {
		var (
			cursor C
			zero   P
		)

		for {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			page, next, more, err := fetch(ctx, cursor)
			if err != nil {
				yield(zero, err)
				return
			}

			if !yield(page, nil) || !more {
				return
			}

			if next == cursor {
				yield(zero, ErrRepeatedCursor)
				return
			}

			cursor = next
		}
	}
}
