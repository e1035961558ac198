package utility

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber sinh mã đơn dạng ORD-<unixMillis>-<6 chữ số ngẫu nhiên>
func NewOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand gần như không lỗi; fallback bằng nano giây
		n = big.NewInt(int64(now.Nanosecond() % 1000000))
	}
	return fmt.Sprintf("ORD-%d-%06d", now.UnixMilli(), n.Int64())
}

// NewPaymentID sinh mã thanh toán dạng PAY-<unixMillis>-<seq>
func NewPaymentID(now time.Time, seq int64) string {
	return fmt.Sprintf("PAY-%d-%d", now.UnixMilli(), seq)
}

// NewUUID sinh UUID v4 dạng chuỗi
func NewUUID() string {
	return uuid.NewString()
}

var etaPattern = regexp.MustCompile(`^(\d+)\s*(m|min|mins|minute|minutes|phút)?$`)

// ParseETA đọc thời gian giao dự kiến của tài xế: "30min", "45", "1h", "1h30m"
func ParseETA(s string) (time.Duration, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("empty eta")
	}
	if m := etaPattern.FindStringSubmatch(v); m != nil {
		minutes, err := strconv.Atoi(m[1])
		if err != nil || minutes <= 0 {
			return 0, fmt.Errorf("invalid eta %q", s)
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid eta %q", s)
	}
	return d, nil
}
