package service

import (
	"fmt"
	"time"
)

// lastActiveLabel buckets a station's last activity into a human string. A station
// never used reports "Never". N truncates at each unit boundary (30-day months,
// 365-day years).
func lastActiveLabel(lastUsed *time.Time, now time.Time) string {
	if lastUsed == nil {
		return "Never"
	}

	elapsed := now.Sub(*lastUsed)
	if elapsed < time.Minute {
		return "Just now"
	}

	minutes := int64(elapsed / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}

	hours := int64(elapsed / time.Hour)
	if hours < 24 {
		return fmt.Sprintf("%d hr ago", hours)
	}

	days := int64(elapsed / (24 * time.Hour))
	if days < 30 {
		return fmt.Sprintf("%d days ago", days)
	}

	months := days / 30
	if months < 12 {
		return fmt.Sprintf("%d months ago", months)
	}

	return fmt.Sprintf("%d years ago", days/365)
}
