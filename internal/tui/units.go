package tui

import (
	"fmt"

	"reroute/internal/config"
)

const kmPerMile = 1.60934

// Units provides distance and duration formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in kilometers to the user's preferred unit
func (u Units) FormatDistance(km float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mi", km/kmPerMile)
	}
	return fmt.Sprintf("%.1f km", km)
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.cfg.DistanceUnit == "mi" {
		return "mi"
	}
	return "km"
}

// FormatDuration formats a duration in seconds as "1h 23m" or "45m"
func (u Units) FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	mins := seconds / 60
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

// FormatMinutes formats a whole-minute duration like FormatDuration
func (u Units) FormatMinutes(minutes int) string {
	return u.FormatDuration(minutes * 60)
}
