package entity

import (
	"testing"
	"time"
)

func at(t *testing.T, value string) *time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	return &ts
}

func TestTimeBlock(t *testing.T) {
	cases := []struct {
		hour string
		want string
	}{
		{"00:00", "12am-2am"},
		{"01:59", "12am-2am"},
		{"02:00", "2am-4am"},
		{"11:30", "10am-12pm"},
		{"12:00", "12pm-2pm"},
		{"17:45", "4pm-6pm"},
		{"23:59", "10pm-12am"},
	}

	for _, tc := range cases {
		p := Post{PostedAt: at(t, "2025-06-10T"+tc.hour+":00Z")}
		if got := p.TimeBlock(); got != tc.want {
			t.Errorf("hour %s: block = %q, want %q", tc.hour, got, tc.want)
		}
	}

	unposted := Post{}
	if got := unposted.TimeBlock(); got != "" {
		t.Errorf("post without timestamp: block = %q, want empty", got)
	}
}

func TestWeekday(t *testing.T) {
	// 2025-06-08 is a Sunday
	p := Post{PostedAt: at(t, "2025-06-08T10:00:00Z")}
	if got := p.Weekday(); got != "Sunday" {
		t.Errorf("weekday = %q, want Sunday", got)
	}
}

func TestAverageByTimeBlock(t *testing.T) {
	posts := []Post{
		{PostedAt: at(t, "2025-06-10T14:00:00Z"), LikeCount: 10},
		{PostedAt: at(t, "2025-06-11T15:30:00Z"), LikeCount: 15},
		{PostedAt: at(t, "2025-06-12T09:00:00Z"), LikeCount: 4},
		{LikeCount: 1000}, // no timestamp, excluded
	}

	buckets, counted := AverageByTimeBlock(posts, MetricLikes)

	if counted != 3 {
		t.Errorf("counted = %d, want 3", counted)
	}
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	// chronological block order: morning before afternoon
	if buckets[0].Bucket != "8am-10am" || buckets[0].Average != 4 {
		t.Errorf("bucket[0] = %+v", buckets[0])
	}
	if buckets[1].Bucket != "2pm-4pm" || buckets[1].Average != 12.5 || buckets[1].Posts != 2 {
		t.Errorf("bucket[1] = %+v", buckets[1])
	}
}

func TestAverageRoundsToTwoDecimals(t *testing.T) {
	posts := []Post{
		{PostedAt: at(t, "2025-06-10T14:00:00Z"), ShareCount: 1},
		{PostedAt: at(t, "2025-06-10T14:10:00Z"), ShareCount: 1},
		{PostedAt: at(t, "2025-06-10T14:20:00Z"), ShareCount: 0},
	}

	buckets, _ := AverageByTimeBlock(posts, MetricShares)
	if len(buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(buckets))
	}
	if buckets[0].Average != 0.67 {
		t.Errorf("average = %v, want 0.67", buckets[0].Average)
	}
}

func TestAverageByWeekday(t *testing.T) {
	posts := []Post{
		{PostedAt: at(t, "2025-06-08T10:00:00Z"), CommentCount: 6}, // Sunday
		{PostedAt: at(t, "2025-06-15T18:00:00Z"), CommentCount: 2}, // Sunday
		{PostedAt: at(t, "2025-06-09T10:00:00Z"), CommentCount: 9}, // Monday
	}

	buckets, counted := AverageByWeekday(posts, MetricComments)

	if counted != 3 {
		t.Errorf("counted = %d, want 3", counted)
	}
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	if buckets[0].Bucket != "Sunday" || buckets[0].Average != 4 || buckets[0].Posts != 2 {
		t.Errorf("bucket[0] = %+v", buckets[0])
	}
	if buckets[1].Bucket != "Monday" || buckets[1].Average != 9 {
		t.Errorf("bucket[1] = %+v", buckets[1])
	}
}

func TestValidMetricKind(t *testing.T) {
	for _, kind := range []MetricKind{MetricLikes, MetricComments, MetricSaves, MetricShares} {
		if !ValidMetricKind(kind) {
			t.Errorf("%s should be valid", kind)
		}
	}
	if ValidMetricKind("views") {
		t.Error("views should not be a valid metric kind")
	}
}

func TestAverageEmptyInput(t *testing.T) {
	buckets, counted := AverageByTimeBlock(nil, MetricLikes)
	if counted != 0 || len(buckets) != 0 {
		t.Errorf("buckets = %v, counted = %d, want empty", buckets, counted)
	}
}
