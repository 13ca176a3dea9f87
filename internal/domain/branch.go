package domain

import (
	"fmt"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// TimeOfDay is minutes since midnight, written as "HH:MM".
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	var h, m int
	if _, err := fmt.Sscanf(string(text), "%d:%d", &h, &m); err != nil {
		return fmt.Errorf("invalid time of day %q: %w", string(text), err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return fmt.Errorf("invalid time of day %q", string(text))
	}
	*t = NewTimeOfDay(h, m)
	return nil
}

// OpeningHours describes a daily service window. An empty Days list means every day.
// Timezone is an IANA name; empty means the clock's own location.
type OpeningHours struct {
	Open     TimeOfDay      `json:"open" yaml:"open"`
	Close    TimeOfDay      `json:"close" yaml:"close"`
	Days     []time.Weekday `json:"days,omitempty" yaml:"days,omitempty"`
	Timezone string         `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

type Branch struct {
	ID                    string       `json:"id" yaml:"id"`
	Name                  string       `json:"name" yaml:"name"`
	Address               string       `json:"address" yaml:"address"`
	Location              Coordinate   `json:"location" yaml:"location"`
	DeliveryRadiusKm      float64      `json:"delivery_radius_km" yaml:"delivery_radius_km"`
	BaseDeliveryFee       int64        `json:"base_delivery_fee" yaml:"base_delivery_fee"`
	PerKmRate             int64        `json:"per_km_rate" yaml:"per_km_rate"`
	FreeShippingThreshold int64        `json:"free_shipping_threshold" yaml:"free_shipping_threshold"`
	PrepMinutes           int          `json:"prep_minutes" yaml:"prep_minutes"`
	DeliveryMinutes       int          `json:"delivery_minutes" yaml:"delivery_minutes"`
	Hours                 OpeningHours `json:"hours" yaml:"hours"`
	IsActive              bool         `json:"is_active" yaml:"is_active"`
}
