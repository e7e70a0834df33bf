package utils

import (
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// IST is the operators' local time; travel dates are calendar days there.
var IST = time.FixedZone("IST", 5*3600+1800)

// ParseDate parses YYYY-MM-DD as a calendar day in IST.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), IST)
}

// FormatDate formats time to YYYY-MM-DD in IST.
func FormatDate(t time.Time) string {
	return t.In(IST).Format(layoutDate)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in IST.
func FormatDateTime(t time.Time) string {
	return t.In(IST).Format(layoutDateTime)
}

// IsPastDate reports whether a YYYY-MM-DD travel date is before today in IST.
func IsPastDate(date string, now time.Time) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	return d.Before(time.Date(now.In(IST).Year(), now.In(IST).Month(), now.In(IST).Day(), 0, 0, 0, 0, IST))
}
