package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var operatingHoursPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*(AM|PM)\s*-\s*(\d{1,2})\s*(AM|PM)`)

// IsOpen derives whether a station is open at the given time from its
// operating-hours string, e.g. "24 Hours" or "6 AM - 10 PM". An empty or
// unparseable value is treated as always open.
func IsOpen(operatingHours string, now time.Time) bool {
	operatingHours = strings.TrimSpace(operatingHours)
	if operatingHours == "" || strings.EqualFold(operatingHours, "24 Hours") {
		return true
	}

	match := operatingHoursPattern.FindStringSubmatch(operatingHours)
	if match == nil {
		return true
	}

	openHour := to24Hour(mustAtoi(match[1]), match[2])
	closeHour := to24Hour(mustAtoi(match[3]), match[4])
	currentHour := now.Hour()

	switch {
	case closeHour > openHour:
		return currentHour >= openHour && currentHour < closeHour
	case closeHour == openHour:
		return true
	default:
		// Wraps past midnight, e.g. "5 AM - 12 AM" covers 05:00-24:00.
		return currentHour >= openHour || currentHour < closeHour
	}
}

func to24Hour(hour int, period string) int {
	am := strings.EqualFold(period, "AM")
	switch {
	case am && hour == 12:
		return 0
	case am:
		return hour
	case hour == 12:
		return 12
	default:
		return hour + 12
	}
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
