package providers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ferryhub/internal/domain/models"
	"ferryhub/internal/location"
)

// Clock formats an hour/minute pair as HH:MM.
func Clock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "03:04 PM", "2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339}

// NormalizeClock parses the provider time formats seen in the wild and
// returns HH:MM, or "" when the value cannot be parsed.
func NormalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return Clock(t.Hour(), t.Minute())
		}
	}
	return ""
}

// MinutesOf returns minutes after midnight of an HH:MM clock.
func MinutesOf(clock string) (int, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// DurationMinutes is the trip length between two clocks. An arrival at or
// before departure is treated as an overnight crossing.
func DurationMinutes(departure, arrival string) int {
	d, ok1 := MinutesOf(departure)
	a, ok2 := MinutesOf(arrival)
	if !ok1 || !ok2 {
		return 0
	}
	diff := a - d
	if diff <= 0 {
		diff += 24 * 60
	}
	return diff
}

// FormatDuration renders minutes as "1h 30m", "45m" or "2h".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// BuildSchedule assembles a schedule from raw provider clocks.
func BuildSchedule(date, departure, arrival string) models.Schedule {
	dep, arr := NormalizeClock(departure), NormalizeClock(arrival)
	mins := DurationMinutes(dep, arr)
	return models.Schedule{
		Date:            date,
		Departure:       dep,
		Arrival:         arr,
		DurationMinutes: mins,
		Duration:        FormatDuration(mins),
	}
}

// BuildRoute resolves display names and port codes for canonical codes.
func BuildRoute(r *location.Resolver, from, to string) models.Route {
	return models.Route{
		Origin:      place(r, from),
		Destination: place(r, to),
	}
}

func place(r *location.Resolver, code string) models.Place {
	canonical, ok := r.Canonical(code)
	if !ok {
		canonical = code
	}
	return models.Place{Code: canonical, DisplayName: r.DisplayName(code), PortCode: r.PortCode(code)}
}

var classAmenities = []struct {
	keywords  []string
	amenities []string
}{
	{[]string{"royal", "business", "luxury", "executive", "first"}, []string{"Air Conditioning", "Reclining Seats", "Entertainment", "Refreshments", "Priority Boarding"}},
	{[]string{"premium", "deluxe", "bay view"}, []string{"Air Conditioning", "Reclining Seats", "Entertainment"}},
	{[]string{"economy", "standard", "general"}, []string{"Air Conditioning"}},
}

// AmenitiesFor derives the amenity list from a class display name.
func AmenitiesFor(className string) []string {
	name := strings.ToLower(className)
	for _, c := range classAmenities {
		for _, k := range c.keywords {
			if strings.Contains(name, k) {
				return append([]string(nil), c.amenities...)
			}
		}
	}
	return []string{"Air Conditioning"}
}

// MergeAmenities returns the sorted union of every class's amenities.
func MergeAmenities(classes []models.FerryClass) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range classes {
		for _, a := range c.Amenities {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// SeatTypeFor classifies a 1-based column in a row of cols seats. Outer
// columns are windows; with four or more columns the two centre columns
// flank the aisle.
func SeatTypeFor(col, cols int) models.SeatType {
	if cols <= 1 || col <= 1 || col >= cols {
		return models.SeatWindow
	}
	if cols >= 4 {
		mid := cols / 2
		if col == mid || col == mid+1 {
			return models.SeatAisle
		}
		return models.SeatMiddle
	}
	return models.SeatAisle
}

// SortSeats orders seats by row then column for stable layouts.
func SortSeats(seats []models.Seat) {
	sort.SliceStable(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Column < seats[j].Column
	})
}

// FinishResult stamps availability and normalizes invariants.
func FinishResult(r *models.UnifiedFerryResult, now time.Time) {
	r.Availability.LastUpdated = now
	r.Features.Amenities = MergeAmenities(r.Classes)
	r.Normalize()
}
