package redis

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

func scoreOf(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// maxScore is the inclusive upper bound for trimming expired members.
func maxScore(windowStart time.Time) string {
	return strconv.FormatInt(windowStart.UnixMilli(), 10)
}

// memberOf keeps members unique when two events land on the same millisecond.
func memberOf(now time.Time, nonce string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), nonce)
}

// expirySeconds rounds the window up to whole seconds.
func expirySeconds(ttl time.Duration) time.Duration {
	secs := math.Ceil(ttl.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}
