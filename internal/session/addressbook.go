package session

import (
	"sort"
	"strings"
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/google/uuid"
)

// MaxSavedAddresses bounds the address book; the least recently used entry goes first.
const MaxSavedAddresses = 10

type SavedAddress struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	Raw        string             `json:"raw"`
	Coordinate *domain.Coordinate `json:"coordinate,omitempty"`
	LastUsedAt time.Time          `json:"last_used_at"`
}

type addressBook struct {
	entries []SavedAddress
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// upsert records addr, refreshing an entry with the same text.
func (b *addressBook) upsert(label string, addr domain.DeliveryAddress, now time.Time) SavedAddress {
	for i := range b.entries {
		if sameAddress(b.entries[i].Raw, addr.Raw) {
			if label != "" {
				b.entries[i].Label = label
			}
			if addr.Coordinate != nil {
				c := *addr.Coordinate
				b.entries[i].Coordinate = &c
			}
			b.entries[i].LastUsedAt = now
			return b.entries[i]
		}
	}

	saved := SavedAddress{
		ID:         uuid.New().String(),
		Label:      label,
		Raw:        strings.TrimSpace(addr.Raw),
		LastUsedAt: now,
	}
	if addr.Coordinate != nil {
		c := *addr.Coordinate
		saved.Coordinate = &c
	}
	b.entries = append(b.entries, saved)

	if len(b.entries) > MaxSavedAddresses {
		sort.SliceStable(b.entries, func(i, j int) bool {
			return b.entries[i].LastUsedAt.After(b.entries[j].LastUsedAt)
		})
		b.entries = b.entries[:MaxSavedAddresses]
	}
	return saved
}

func (b *addressBook) get(id string) (SavedAddress, bool) {
	for _, e := range b.entries {
		if e.ID == id {
			return e, true
		}
	}
	return SavedAddress{}, false
}

func (b *addressBook) remove(id string) bool {
	for i, e := range b.entries {
		if e.ID == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// list returns copies, most recently used first.
func (b *addressBook) list() []SavedAddress {
	out := make([]SavedAddress, len(b.entries))
	for i, e := range b.entries {
		out[i] = e
		if e.Coordinate != nil {
			c := *e.Coordinate
			out[i].Coordinate = &c
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})
	return out
}
