package feed

import (
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// Page is the output contract of every paginated feed variant: the items
// for this page, the offset to request the next page with (nil when
// exhausted), and whether more items remain.
type Page struct {
	Items      []*post.Post `json:"items"`
	NextOffset *int         `json:"nextOffset"`
	HasMore    bool         `json:"hasMore"`
}

// Paginate slices an ordered list by offset and limit. An offset at or
// past the end yields an empty page, not an error. Calling Paginate
// twice with identical arguments yields identical output; walking
// NextOffset until HasMore is false reconstructs the full list exactly
// once per item.
func Paginate(items []*post.Post, limit, offset int) *Page {
	if offset >= len(items) {
		return &Page{Items: []*post.Post{}, NextOffset: nil, HasMore: false}
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	page := &Page{
		Items:   items[offset:end],
		HasMore: offset+limit < len(items),
	}
	if page.HasMore {
		next := offset + limit
		page.NextOffset = &next
	}
	return page
}
