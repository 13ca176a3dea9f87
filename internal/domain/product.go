package domain

// Product is a read-only catalog entry. Prices are in the smallest currency unit.
type Product struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	BasePrice   int64  `json:"base_price" yaml:"base_price"`
	CategoryID  string `json:"category_id" yaml:"category_id"`
	IsAvailable bool   `json:"is_available" yaml:"is_available"`
}

// Topping is an add-on priced per unit.
type Topping struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Price int64  `json:"price" yaml:"price"`
}

type Size string

const (
	SizeSmall  Size = "S"
	SizeMedium Size = "M"
	SizeLarge  Size = "L"
)

type SugarLevel string

const (
	SugarNone   SugarLevel = "0"
	SugarLess   SugarLevel = "30"
	SugarHalf   SugarLevel = "50"
	SugarMore   SugarLevel = "70"
	SugarNormal SugarLevel = "100"
)

func (s SugarLevel) Valid() bool {
	switch s {
	case SugarNone, SugarLess, SugarHalf, SugarMore, SugarNormal:
		return true
	}
	return false
}

type IceLevel string

const (
	IceNone   IceLevel = "none"
	IceLess   IceLevel = "less"
	IceNormal IceLevel = "normal"
	IceExtra  IceLevel = "extra"
)

func (i IceLevel) Valid() bool {
	switch i {
	case IceNone, IceLess, IceNormal, IceExtra:
		return true
	}
	return false
}

// MaxToppingQuantity caps how many units of one topping a single line may carry.
const MaxToppingQuantity = 3

type ToppingSelection struct {
	ToppingID string `json:"topping_id"`
	Quantity  int    `json:"quantity"`
}

// VariantSelection is the full configuration of a drink. Two lines merge only
// when their normalized selections are identical.
type VariantSelection struct {
	Size     Size               `json:"size"`
	Sugar    SugarLevel         `json:"sugar"`
	Ice      IceLevel           `json:"ice"`
	Toppings []ToppingSelection `json:"toppings,omitempty"`
	Note     string             `json:"note,omitempty"`
}

// Clone returns a copy that shares no memory with s.
func (s VariantSelection) Clone() VariantSelection {
	c := s
	if s.Toppings != nil {
		c.Toppings = make([]ToppingSelection, len(s.Toppings))
		copy(c.Toppings, s.Toppings)
	}
	return c
}
