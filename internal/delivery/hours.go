package delivery

import (
	"time"
	_ "time/tzdata"

	"github.com/fjod/coffee_cart/internal/domain"
)

// IsOpen reports whether the hours cover now.
//
// Policy: Open == Close means open around the clock. Close earlier than Open
// means the window spans midnight and closes on the following day; the Days
// list is matched against the day the window opened.
func IsOpen(hours domain.OpeningHours, now time.Time) bool {
	local := now
	if hours.Timezone != "" {
		if loc, err := time.LoadLocation(hours.Timezone); err == nil {
			local = now.In(loc)
		}
	}
	tod := domain.TimeOfDayOf(local)
	today := local.Weekday()

	switch {
	case hours.Open == hours.Close:
		return dayAllowed(hours.Days, today)
	case hours.Open < hours.Close:
		return dayAllowed(hours.Days, today) && tod >= hours.Open && tod < hours.Close
	default:
		if tod >= hours.Open {
			return dayAllowed(hours.Days, today)
		}
		if tod < hours.Close {
			return dayAllowed(hours.Days, (today+6)%7)
		}
		return false
	}
}

func dayAllowed(days []time.Weekday, day time.Weekday) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
