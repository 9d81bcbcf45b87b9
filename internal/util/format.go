// Package util provides utility functions for formatting and common operations.
package util

import (
	"fmt"
	"math"
)

const (
	KiB = 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
)

// FormatBytes formats bytes with appropriate binary units (B, KiB, MiB, GiB).
func FormatBytes(bytes uint64) string {
	bf := float64(bytes)
	switch {
	case bf >= GiB:
		return fmt.Sprintf("%.2f GiB", bf/GiB)
	case bf >= MiB:
		return fmt.Sprintf("%.2f MiB", bf/MiB)
	case bf >= KiB:
		return fmt.Sprintf("%.2f KiB", bf/KiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatDuration formats seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		return "??:??:??"
	}
	return FormatDurationFromSecs(int64(seconds))
}

// FormatDurationFromSecs formats seconds as HH:MM:SS from an int64.
func FormatDurationFromSecs(secs int64) string {
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatMillis formats a playback position as HH:MM:SS.mmm.
func FormatMillis(millis float64) string {
	if millis < 0 || math.IsNaN(millis) {
		return "??:??:??.???"
	}
	total := int64(math.Round(millis))
	return fmt.Sprintf("%s.%03d", FormatDurationFromSecs(total/1000), total%1000)
}

// FormatFrameRate formats a frame rate with up to three decimals.
func FormatFrameRate(fps float64) string {
	if fps <= 0 || math.IsNaN(fps) {
		return "unknown"
	}
	return fmt.Sprintf("%.3g fps", fps)
}
