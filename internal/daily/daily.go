// internal/daily/daily.go
//
// Word of the day: one pronunciation challenge per UTC date, picked
// deterministically from the challenge bank so every player gets the same word.
// The pick is keyed by HMAC-SHA256(salt, "YYYY-MM-DD"); without the salt the
// schedule cannot be predicted from the bank order.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func daySeed(day time.Time, salt string) uint64 {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(DateKey(day)))
	return binary.BigEndian.Uint64(mac.Sum(nil)[:8])
}

// PickIndex maps a day to an index in [0, n). It returns 0 when n <= 0.
func PickIndex(day time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	return int(daySeed(day, salt) % uint64(n))
}

// Pick returns the item of the day and its index; ok is false for an empty list.
func Pick[T any](day time.Time, salt string, items []T) (item T, idx int, ok bool) {
	if len(items) == 0 {
		return item, 0, false
	}
	idx = PickIndex(day, salt, len(items))
	return items[idx], idx, true
}
