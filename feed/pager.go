package feed

// PageSize is the number of videos revealed per load.
const PageSize = 2

// Reveal returns list[cursor:cursor+PageSize], clamped to the list, and the
// advanced cursor. The returned cursor may exceed len(list); callers decide
// whether more is available with cursor < len(list).
func Reveal(list []ScoredVideo, cursor int) ([]ScoredVideo, int) {
	if cursor < 0 {
		cursor = 0
	}
	next := cursor + PageSize
	if cursor >= len(list) {
		return nil, next
	}
	end := next
	if end > len(list) {
		end = len(list)
	}
	window := make([]ScoredVideo, end-cursor)
	copy(window, list[cursor:end])
	return window, next
}

// Pager tracks how much of each bucket has been revealed.
type Pager struct {
	cursors map[Bucket]int
}

// Cursor returns the cursor of b.
func (p *Pager) Cursor(b Bucket) int {
	return p.cursors[b]
}

// Next reveals the next window of list for bucket b. The stored cursor is
// clamped to len(list).
func (p *Pager) Next(b Bucket, list []ScoredVideo) []ScoredVideo {
	if p.cursors == nil {
		p.cursors = make(map[Bucket]int, len(Buckets))
	}
	window, next := Reveal(list, p.cursors[b])
	if next > len(list) {
		next = len(list)
	}
	p.cursors[b] = next
	return window
}

// Reset rewinds every bucket to the start.
func (p *Pager) Reset() {
	for b := range p.cursors {
		p.cursors[b] = 0
	}
}
