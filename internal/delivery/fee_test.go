package delivery

import (
	"testing"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/stretchr/testify/assert"
)

func feeBranch() domain.Branch {
	return domain.Branch{
		ID:                    "b1",
		BaseDeliveryFee:       15000,
		PerKmRate:             5000,
		FreeShippingThreshold: 150000,
	}
}

func TestDeliveryFee_Scenario(t *testing.T) {
	b := feeBranch()

	assert.Equal(t, int64(25000), DeliveryFee(b, 3, 100000))
	assert.Equal(t, int64(0), DeliveryFee(b, 3, 160000))
}

func TestDeliveryFee_BaseWithinFirstKm(t *testing.T) {
	b := feeBranch()

	assert.Equal(t, int64(15000), DeliveryFee(b, 0, 0))
	assert.Equal(t, int64(15000), DeliveryFee(b, 0.4, 0))
	assert.Equal(t, int64(15000), DeliveryFee(b, 1, 0))
}

func TestDeliveryFee_RoundsOverageHalfUp(t *testing.T) {
	b := feeBranch()
	b.PerKmRate = 5001

	// half a km over the first km at 5001/km = 2500.5 -> 2501
	assert.Equal(t, int64(17501), DeliveryFee(b, 1.5, 0))
}

func TestDeliveryFee_MonotonicInDistance(t *testing.T) {
	b := feeBranch()

	prev := DeliveryFee(b, 1, 0)
	for d := 1.0; d <= 15; d += 0.05 {
		fee := DeliveryFee(b, d, 0)
		assert.GreaterOrEqual(t, fee, prev, "distance %.2f", d)
		prev = fee
	}
}

func TestDeliveryFee_FreeAboveThresholdForAnyDistance(t *testing.T) {
	branches := []domain.Branch{
		feeBranch(),
		{ID: "b2", BaseDeliveryFee: 20000, PerKmRate: 7000, FreeShippingThreshold: 200000},
	}
	for _, b := range branches {
		for d := 0.0; d <= 20; d += 0.5 {
			assert.Equal(t, int64(0), DeliveryFee(b, d, b.FreeShippingThreshold))
			assert.Equal(t, int64(0), DeliveryFee(b, d, b.FreeShippingThreshold+1))
		}
	}
}

func TestDeliveryFee_ZeroThresholdNeverWaives(t *testing.T) {
	b := feeBranch()
	b.FreeShippingThreshold = 0

	assert.Equal(t, int64(25000), DeliveryFee(b, 3, 1_000_000))
}
