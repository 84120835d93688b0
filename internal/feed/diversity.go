package feed

import (
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// DefaultMaxConsecutive is the consecutive same-author cap applied to
// the personalized feed.
const DefaultMaxConsecutive = 3

// LimitConsecutive rewrites a score-sorted list so no author contributes
// more than maxConsecutive items in a row, pulling forward the next
// distinct-author item when a run hits the cap.
//
// Invariants:
//   - No item is ever dropped: len(output) == len(input).
//   - Relative order is preserved except for the pulled-forward items.
//   - When the remaining items are all from the capped author
//     (exhaustion), the cap is exceeded rather than losing items.
//
// The forward search visits each remaining item at most once per output
// position, so the walk always terminates.
func LimitConsecutive(items []*post.Post, maxConsecutive int) []*post.Post {
	if maxConsecutive <= 0 || len(items) <= maxConsecutive {
		out := make([]*post.Post, len(items))
		copy(out, items)
		return out
	}

	remaining := make([]*post.Post, len(items))
	copy(remaining, items)

	out := make([]*post.Post, 0, len(items))
	var runAuthor int64
	runLen := 0

	for len(remaining) > 0 {
		next := remaining[0]

		if len(out) > 0 && next.AuthorID == runAuthor && runLen >= maxConsecutive {
			// Run is capped: pull forward the first item by a
			// different author. Any other author starts a fresh run,
			// so the first mismatch is the right pick.
			alt := -1
			for i := 1; i < len(remaining); i++ {
				if remaining[i].AuthorID != runAuthor {
					alt = i
					break
				}
			}
			if alt >= 0 {
				next = remaining[alt]
				remaining = append(remaining[:alt], remaining[alt+1:]...)
			} else {
				// Exhaustion: only the capped author remains. Keep
				// appending rather than dropping items.
				remaining = remaining[1:]
			}
		} else {
			remaining = remaining[1:]
		}

		if len(out) > 0 && next.AuthorID == runAuthor {
			runLen++
		} else {
			runAuthor = next.AuthorID
			runLen = 1
		}
		out = append(out, next)
	}

	return out
}
