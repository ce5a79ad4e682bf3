package feed

// Bucket names one of the two duration partitions.
type Bucket string

const (
	BucketShort Bucket = "short"
	BucketLong  Bucket = "long"
)

// Buckets lists all buckets in display order.
var Buckets = []Bucket{BucketShort, BucketLong}

// ParseBucket returns the bucket for s; empty selects BucketShort.
func ParseBucket(s string) (Bucket, bool) {
	switch Bucket(s) {
	case "", BucketShort:
		return BucketShort, true
	case BucketLong:
		return BucketLong, true
	}
	return "", false
}

// BucketOf reports which bucket a duration in minutes belongs to. Zero
// (unknown) durations belong to neither.
func BucketOf(minutes int) (Bucket, bool) {
	switch {
	case minutes <= 0:
		return "", false
	case minutes < ShortThresholdMinutes:
		return BucketShort, true
	default:
		return BucketLong, true
	}
}

// Categorized is a scored result set split by duration.
type Categorized struct {
	Short []ScoredVideo `json:"short"`
	Long  []ScoredVideo `json:"long"`
}

// List returns the list for b.
func (c Categorized) List(b Bucket) []ScoredVideo {
	if b == BucketLong {
		return c.Long
	}
	return c.Short
}

// Totals returns the size of each bucket.
func (c Categorized) Totals() map[Bucket]int {
	return map[Bucket]int{BucketShort: len(c.Short), BucketLong: len(c.Long)}
}

// Categorize partitions videos into short and long, preserving order.
// Videos with an unknown duration are dropped from both lists.
func Categorize(videos []ScoredVideo) Categorized {
	var c Categorized
	for _, v := range videos {
		b, ok := BucketOf(v.DurationMinutes)
		if !ok {
			continue
		}
		if b == BucketShort {
			c.Short = append(c.Short, v)
		} else {
			c.Long = append(c.Long, v)
		}
	}
	return c
}
