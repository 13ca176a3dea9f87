package domain

import "time"

// CartLine is one aggregated cart entry. UnitPrice is captured when the line is
// created and never re-read from the catalog afterwards.
type CartLine struct {
	Key         string           `json:"key"`
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Selection   VariantSelection `json:"selection"`
	Quantity    int              `json:"quantity"`
	UnitPrice   int64            `json:"unit_price"`
	AddedAt     time.Time        `json:"added_at"`
}

func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

func (l CartLine) Clone() CartLine {
	c := l
	c.Selection = l.Selection.Clone()
	return c
}

func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}
