package domain

import (
	"fmt"
	"time"
)

// SuccessRate в процентах; 0 если услуг еще не было.
func SuccessRate(completed, failed uint64) float64 {
	total := completed + failed
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// TimeAgo — относительная давность для UI. Метка из будущего (расхождение
// часов с нодой) показывается как "0s ago".
func TimeAgo(ts, now time.Time) string {
	seconds := max(int64(now.Sub(ts)/time.Second), 0)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	}
	return fmt.Sprintf("%dd ago", seconds/86400)
}

// TruncateAddress сокращает длинный идентификатор до "abcdef...wxyz".
func TruncateAddress(address string, start, end int) string {
	if len(address) <= start+end {
		return address
	}
	return address[:start] + "..." + address[len(address)-end:]
}
