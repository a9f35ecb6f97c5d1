package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// defaultKeyOrder keeps identifiers first and domain fields right after them.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "update_id", "chat_id", "user_id", "handler",
	"locale", "flow", "step", "action",
	"car_id", "tier_id", "order_id", "listing_id",
	"duration_ms", "err", "err_code",
}

// Status maps error to a unified status string for logs.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}

// Truncate cuts user supplied text for log attributes.
func Truncate(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if limit <= 0 || len(r) <= limit {
		return string(r)
	}
	return string(r[:limit]) + "…"
}

// ratioSampler lets num out of every den calls through. 0/0 disables sampling.
type ratioSampler struct {
	num     atomic.Int64
	den     atomic.Int64
	counter atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

func (s *ratioSampler) Set(num, den int) {
	s.num.Store(int64(num))
	s.den.Store(int64(den))
	s.counter.Store(0)
}

func (s *ratioSampler) Allow() bool {
	num, den := s.num.Load(), s.den.Load()
	if num <= 0 || den <= 0 {
		return false
	}
	if num >= den {
		return true
	}
	n := s.counter.Add(1) - 1
	return int64(n%uint64(den)) < num
}

// parseRatioSpec accepts "1/50" or "off".
func parseRatioSpec(spec string) (int, int) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "off" || spec == "0" {
		return 0, 0
	}
	a, b, ok := strings.Cut(spec, "/")
	if !ok {
		return -1, -1
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(a))
	den, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return -1, -1
	}
	return num, den
}
