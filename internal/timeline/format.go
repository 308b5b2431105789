package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Bucket is a coarse classification of time spent in a stage.
type Bucket string

// Duration buckets, from quickest to slowest.
const (
	BucketFast     Bucket = "fast"
	BucketNormal   Bucket = "normal"
	BucketSlow     Bucket = "slow"
	BucketCritical Bucket = "critical"
)

// Bucket thresholds in hours. Fixed by shop policy.
const (
	fastBelowHours   = 4
	normalBelowHours = 24
	slowBelowHours   = 72
)

// DurationBucket classifies hours: under 4 is fast, under 24 normal, under 72
// slow, anything longer critical.
func DurationBucket(hours float64) Bucket {
	switch {
	case hours < fastBelowHours:
		return BucketFast
	case hours < normalBelowHours:
		return BucketNormal
	case hours < slowBelowHours:
		return BucketSlow
	default:
		return BucketCritical
	}
}

// Units holds the words a [Formatter] uses.
type Units struct {
	Minutes string
	Hours   string
	Days    string
	Ago     string
}

// Formatter renders durations with a fixed set of unit words.
type Formatter struct {
	units Units
}

// Thai is the default formatter, matching the shop's staff UI.
var Thai = Formatter{units: Units{Minutes: "นาที", Hours: "ชั่วโมง", Days: "วัน", Ago: "ที่แล้ว"}}

// English renders compact English units.
var English = Formatter{units: Units{Minutes: "min", Hours: "h", Days: "d", Ago: " ago"}}

// FormatterFor returns the formatter for a locale tag. Anything that is not
// an English tag gets [Thai].
func FormatterFor(locale string) Formatter {
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return English
	}
	return Thai
}

// FormatDuration renders hours with the [Thai] formatter.
func FormatDuration(hours float64) string {
	return Thai.FormatDuration(hours)
}

// FormatDuration renders an elapsed time:
//   - under one hour: whole minutes, rounded ("30 นาที")
//   - under 24 hours: hours with one decimal ("5.0 ชั่วโมง")
//   - otherwise: whole days and remaining whole hours ("1 วัน 6 ชั่วโมง"),
//     dropping the hours term when it is zero ("2 วัน")
//
// Negative hours, from clock skew between the ERP and this terminal, render
// as zero.
func (f Formatter) FormatDuration(hours float64) string {
	hours = max(hours, 0)
	switch {
	case hours < 1:
		return fmt.Sprintf("%d %s", int(math.Round(hours*60)), f.units.Minutes)
	case hours < 24:
		return fmt.Sprintf("%.1f %s", hours, f.units.Hours)
	}

	days := math.Floor(hours / 24)
	rem := math.Floor(hours - days*24)
	if rem == 0 {
		return fmt.Sprintf("%d %s", int(days), f.units.Days)
	}
	return fmt.Sprintf("%d %s %d %s", int(days), f.units.Days, int(rem), f.units.Hours)
}

// FormatAgo renders how long ago t was, relative to now, in floored minutes,
// hours or days ("5 นาทีที่แล้ว").
func (f Formatter) FormatAgo(t, now time.Time) string {
	diff := max(now.Sub(t), 0)
	mins := int(math.Floor(diff.Minutes()))
	hours := int(math.Floor(diff.Hours()))

	switch {
	case mins < 60:
		return fmt.Sprintf("%d %s%s", mins, f.units.Minutes, f.units.Ago)
	case hours < 24:
		return fmt.Sprintf("%d %s%s", hours, f.units.Hours, f.units.Ago)
	default:
		return fmt.Sprintf("%d %s%s", hours/24, f.units.Days, f.units.Ago)
	}
}
