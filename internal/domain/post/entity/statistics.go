package entity

import (
	"math"
)

// MetricKind selects which engagement counter a statistics query averages.
type MetricKind string

const (
	MetricLikes    MetricKind = "likes"
	MetricComments MetricKind = "comments"
	MetricSaves    MetricKind = "saves"
	MetricShares   MetricKind = "shares"
)

// timeBlocks lists the twelve 2-hour posting blocks in chronological order.
var timeBlocks = []string{
	"12am-2am", "2am-4am", "4am-6am", "6am-8am",
	"8am-10am", "10am-12pm", "12pm-2pm", "2pm-4pm",
	"4pm-6pm", "6pm-8pm", "8pm-10pm", "10pm-12am",
}

var weekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// BucketAverage is one row of an aggregated statistics result.
type BucketAverage struct {
	Bucket  string  `json:"bucket"`
	Average float64 `json:"average"`
	Posts   int     `json:"posts"`
}

// TimeBlock returns the 2-hour block label for a post, or "" when the post
// has no timestamp.
func (p *Post) TimeBlock() string {
	if p.PostedAt == nil {
		return ""
	}
	return timeBlocks[p.PostedAt.Hour()/2]
}

// Weekday returns the weekday label for a post, or "" when the post has no
// timestamp.
func (p *Post) Weekday() string {
	if p.PostedAt == nil {
		return ""
	}
	return weekdays[int(p.PostedAt.Weekday())]
}

func (p *Post) metric(kind MetricKind) int {
	switch kind {
	case MetricLikes:
		return p.LikeCount
	case MetricComments:
		return p.CommentCount
	case MetricSaves:
		return p.SaveCount
	case MetricShares:
		return p.ShareCount
	}
	return 0
}

// ValidMetricKind reports whether kind names a known engagement counter.
func ValidMetricKind(kind MetricKind) bool {
	switch kind {
	case MetricLikes, MetricComments, MetricSaves, MetricShares:
		return true
	}
	return false
}

// AverageByTimeBlock averages the chosen metric across posts grouped by
// their 2-hour posting block. Posts without a timestamp are excluded.
// Results come back in chronological block order; blocks with no posts are
// omitted. The second return value is the number of posts counted.
func AverageByTimeBlock(posts []Post, kind MetricKind) ([]BucketAverage, int) {
	return averageBy(posts, kind, timeBlocks, (*Post).TimeBlock)
}

// AverageByWeekday averages the chosen metric across posts grouped by
// weekday, Sunday first. Posts without a timestamp are excluded.
func AverageByWeekday(posts []Post, kind MetricKind) ([]BucketAverage, int) {
	return averageBy(posts, kind, weekdays, (*Post).Weekday)
}

func averageBy(posts []Post, kind MetricKind, order []string, bucket func(*Post) string) ([]BucketAverage, int) {
	totals := make(map[string]int)
	counts := make(map[string]int)
	counted := 0

	for i := range posts {
		b := bucket(&posts[i])
		if b == "" {
			continue
		}
		counted++
		totals[b] += posts[i].metric(kind)
		counts[b]++
	}

	results := make([]BucketAverage, 0, len(totals))
	for _, b := range order {
		n, ok := counts[b]
		if !ok {
			continue
		}
		avg := float64(totals[b]) / float64(n)
		results = append(results, BucketAverage{
			Bucket:  b,
			Average: math.Round(avg*100) / 100,
			Posts:   n,
		})
	}

	return results, counted
}
