package domain

type FulfillmentMode string

const (
	ModeUnset    FulfillmentMode = ""
	ModePickup   FulfillmentMode = "PICKUP"
	ModeDelivery FulfillmentMode = "DELIVERY"
)

func (m FulfillmentMode) Valid() bool {
	return m == ModePickup || m == ModeDelivery
}

func (m FulfillmentMode) String() string {
	if m == ModeUnset {
		return "UNSET"
	}
	return string(m)
}

// DeliveryAddress is free text plus the coordinate it resolved to, if any.
type DeliveryAddress struct {
	Raw        string      `json:"raw"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// AddressValidationResult is returned for every address update. An invalid
// result is an expected outcome the caller displays, not an error.
type AddressValidationResult struct {
	IsValid    bool    `json:"is_valid"`
	Message    string  `json:"message,omitempty"`
	BranchID   string  `json:"branch_id,omitempty"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// Resolution is a point-in-time copy of the resolver state.
type Resolution struct {
	Mode            FulfillmentMode  `json:"mode"`
	BranchID        string           `json:"branch_id,omitempty"`
	BranchName      string           `json:"branch_name,omitempty"`
	BranchOpen      bool             `json:"branch_open"`
	Address         *DeliveryAddress `json:"address,omitempty"`
	AddressResolved bool             `json:"address_resolved"`
	DistanceKm      float64          `json:"distance_km"`
	DeliveryFee     int64            `json:"delivery_fee"`
	PrepMinutes     int              `json:"prep_minutes"`
	DeliveryMinutes int              `json:"delivery_minutes"`
	ReadyToOrder    bool             `json:"ready_to_order"`
}
