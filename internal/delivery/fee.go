package delivery

import (
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/shopspring/decimal"
)

// includedKm is the distance covered by the base fee.
const includedKm = 1.0

// DeliveryFee applies the tiered schedule of a branch: the base fee covers the
// first kilometre, every further kilometre costs PerKmRate (rounded half-up to
// the currency unit), and the fee is waived once subtotal reaches the
// free-shipping threshold. A zero threshold disables the waiver.
func DeliveryFee(branch domain.Branch, distanceKm float64, subtotal int64) int64 {
	if branch.FreeShippingThreshold > 0 && subtotal >= branch.FreeShippingThreshold {
		return 0
	}
	if distanceKm <= includedKm {
		return branch.BaseDeliveryFee
	}
	overage := decimal.NewFromFloat(distanceKm - includedKm).
		Mul(decimal.NewFromInt(branch.PerKmRate)).
		Round(0).
		IntPart()
	return branch.BaseDeliveryFee + overage
}
