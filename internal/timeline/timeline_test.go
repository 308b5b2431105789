package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 19, 8, 0, 0, 0, time.FixedZone("ICT", 7*60*60))

func TestBuild_ThreeEvents(t *testing.T) {
	t1 := t0.Add(90 * time.Minute)
	t2 := t1.Add(26 * time.Hour)
	now := t2.Add(5*time.Hour + 30*time.Minute)

	events := []Event{
		{Timestamp: t0, ToStage: "ประสานงาน", Actor: "สาว"},
		{Timestamp: t1, FromStage: "ประสานงาน", ToStage: "ออกแบบ", Actor: "สาว"},
		{Timestamp: t2, FromStage: "ออกแบบ", ToStage: "กระบวนการพิมพ์", Actor: "ต้น"},
	}

	tl := Build(events, now, Origin{})

	require.Len(t, tl.Entries, 3)
	assert.False(t, tl.Entries[0].HasDuration)
	assert.True(t, tl.Entries[1].HasDuration)
	assert.InDelta(t, 1.5, tl.Entries[1].DurationHours, 1e-9)
	assert.InDelta(t, 26.0, tl.Entries[2].DurationHours, 1e-9)

	var sum float64
	for _, d := range tl.Durations() {
		sum += d
	}
	assert.InDelta(t, sum, tl.Statistics.TotalDurationHours, 1e-9)
	assert.InDelta(t, 27.5, tl.Statistics.TotalDurationHours, 1e-9)

	assert.Equal(t, 3, tl.Statistics.TotalStages)
	assert.InDelta(t, 27.5/3, tl.Statistics.AverageStageDuration, 1e-9)

	assert.Equal(t, "กระบวนการพิมพ์", tl.CurrentStage)
	assert.InDelta(t, now.Sub(t2).Hours(), tl.CurrentStageDurationHours, 1e-9)
}

func TestBuild_SingleEvent(t *testing.T) {
	now := t0.Add(2 * time.Hour)
	tl := Build([]Event{{Timestamp: t0, ToStage: "ประสานงาน"}}, now, Origin{})

	assert.Empty(t, tl.Durations())
	assert.Equal(t, 1, tl.Statistics.TotalStages)
	assert.Zero(t, tl.Statistics.TotalDurationHours)
	assert.Zero(t, tl.Statistics.AverageStageDuration)
	assert.Equal(t, "ประสานงาน", tl.CurrentStage)
	assert.InDelta(t, 2.0, tl.CurrentStageDurationHours, 1e-9)
}

func TestBuild_NoEventsUsesOrigin(t *testing.T) {
	now := t0.Add(49 * time.Hour)
	tl := Build(nil, now, Origin{StageName: "ประสานงาน", CreatedAt: t0})

	assert.Empty(t, tl.Entries)
	assert.Equal(t, "ประสานงาน", tl.CurrentStage)
	assert.InDelta(t, 49.0, tl.CurrentStageDurationHours, 1e-9)
	assert.Equal(t, Statistics{}, tl.Statistics, "average must be 0, not NaN")
}

func TestBuild_SameTimestampEvents(t *testing.T) {
	events := []Event{
		{Timestamp: t0, ToStage: "A"},
		{Timestamp: t0, FromStage: "A", ToStage: "B"},
	}
	tl := Build(events, t0, Origin{})

	assert.Equal(t, []float64{0}, tl.Durations())
	assert.Zero(t, tl.CurrentStageDurationHours)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0 นาที"},
		{0.5, "30 นาที"},
		{0.0361, "2 นาที"},
		{0.999, "60 นาที"},
		{1, "1.0 ชั่วโมง"},
		{5.0, "5.0 ชั่วโมง"},
		{12.4111, "12.4 ชั่วโมง"},
		{23.96, "24.0 ชั่วโมง"},
		{24, "1 วัน"},
		{30, "1 วัน 6 ชั่วโมง"},
		{48.5, "2 วัน"},
		{73.9, "3 วัน 1 ชั่วโมง"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.hours))
		})
	}
}

func TestFormatDuration_ClockSkew(t *testing.T) {
	assert.Equal(t, "0 นาที", FormatDuration(-5.0/60))
	assert.Equal(t, "0 นาที", FormatDuration(-30))
	assert.Equal(t, "0 min", English.FormatDuration(-2))
}

func TestFormatter_English(t *testing.T) {
	assert.Equal(t, "30 min", English.FormatDuration(0.5))
	assert.Equal(t, "5.0 h", English.FormatDuration(5))
	assert.Equal(t, "1 d 6 h", English.FormatDuration(30))
}

func TestFormatterFor(t *testing.T) {
	assert.Equal(t, English, FormatterFor("en"))
	assert.Equal(t, English, FormatterFor("en-US"))
	assert.Equal(t, Thai, FormatterFor("th"))
	assert.Equal(t, Thai, FormatterFor(""))
}

func TestDurationBucket(t *testing.T) {
	tests := []struct {
		hours float64
		want  Bucket
	}{
		{0, BucketFast},
		{3.9, BucketFast},
		{4.0, BucketNormal},
		{23.99, BucketNormal},
		{24, BucketSlow},
		{71.9, BucketSlow},
		{72.0, BucketCritical},
		{500, BucketCritical},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, DurationBucket(tt.hours), "hours=%v", tt.hours)
		})
	}
}

func TestFormatAgo(t *testing.T) {
	now := t0.Add(72 * time.Hour)

	assert.Equal(t, "5 นาทีที่แล้ว", Thai.FormatAgo(now.Add(-5*time.Minute-20*time.Second), now))
	assert.Equal(t, "3 ชั่วโมงที่แล้ว", Thai.FormatAgo(now.Add(-3*time.Hour-59*time.Minute), now))
	assert.Equal(t, "2 วันที่แล้ว", Thai.FormatAgo(now.Add(-50*time.Hour), now))
	assert.Equal(t, "59 min ago", English.FormatAgo(now.Add(-59*time.Minute), now))
	assert.Equal(t, "0 นาทีที่แล้ว", Thai.FormatAgo(now.Add(3*time.Minute), now))
}
