package session

// Part is a bit set naming what a change touched.
type Part uint8

const (
	PartCart Part = 1 << iota
	PartResolution
	PartPromotion
	PartOrders
	PartAddressBook
)

func (p Part) Has(other Part) bool {
	return p&other != 0
}

// Change is delivered to subscribers after every successful mutation.
type Change struct {
	SessionID string
	Parts     Part
}

// Listener is called outside the session lock and may call back into the session.
type Listener func(Change)
