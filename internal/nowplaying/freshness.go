package nowplaying

import "fmt"

const (
	minuteMs = 60 * 1000
	hourMs   = 60 * minuteMs
	dayMs    = 24 * hourMs
)

// Freshness formats how long ago ts (epoch millis) was, relative to now.
// A nil ts yields "". Clock skew that puts ts in the future reads as "just now".
func Freshness(ts *int64, now int64) string {
	if ts == nil {
		return ""
	}

	elapsed := now - *ts
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < minuteMs:
		return "just now"
	case elapsed < hourMs:
		n := elapsed / minuteMs
		if n == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", n)
	case elapsed < dayMs:
		return fmt.Sprintf("%dh ago", elapsed/hourMs)
	default:
		return fmt.Sprintf("%dd ago", elapsed/dayMs)
	}
}
