// Package geocode turns free-text addresses into coordinates. The storefront
// ships a static lookup table; a real geocoding client plugs in behind Geocoder.
package geocode

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/fjod/coffee_cart/internal/domain"
)

var ErrUnresolved = errors.New("address could not be resolved")

type Geocoder interface {
	Resolve(ctx context.Context, raw string) (domain.Coordinate, error)
}

// Entry maps an address fragment to a coordinate.
type Entry struct {
	Match      string            `yaml:"match" json:"match"`
	Coordinate domain.Coordinate `yaml:"coordinate" json:"coordinate"`
}

// Static resolves "lat,lng" literals and known address fragments. The first
// entry whose fragment appears in the address wins.
type Static struct {
	entries []Entry
}

func NewStatic(entries []Entry) *Static {
	normalized := make([]Entry, 0, len(entries))
	for _, e := range entries {
		m := normalize(e.Match)
		if m == "" {
			continue
		}
		normalized = append(normalized, Entry{Match: m, Coordinate: e.Coordinate})
	}
	return &Static{entries: normalized}
}

func (s *Static) Resolve(ctx context.Context, raw string) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}
	if c, ok := parseLatLng(raw); ok {
		return c, nil
	}
	addr := normalize(raw)
	if addr == "" {
		return domain.Coordinate{}, ErrUnresolved
	}
	for _, e := range s.entries {
		if strings.Contains(addr, e.Match) {
			return e.Coordinate, nil
		}
	}
	return domain.Coordinate{}, ErrUnresolved
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func parseLatLng(raw string) (domain.Coordinate, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return domain.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: lat, Lng: lng}, true
}
