package delivery

import (
	"testing"
	"time"

	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kilometres per degree of latitude on the haversine sphere
const kmPerDeg = earthRadiusKm * 3.141592653589793 / 180

func north(km float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: km / kmPerDeg, Lng: 0}
}

func testBranch(id string, lat float64, radius float64) domain.Branch {
	return domain.Branch{
		ID:                    id,
		Name:                  "Branch " + id,
		Location:              domain.Coordinate{Lat: lat, Lng: 0},
		DeliveryRadiusKm:      radius,
		BaseDeliveryFee:       15000,
		PerKmRate:             5000,
		FreeShippingThreshold: 150000,
		PrepMinutes:           10,
		DeliveryMinutes:       25,
		Hours:                 domain.OpeningHours{Open: domain.NewTimeOfDay(7, 0), Close: domain.NewTimeOfDay(22, 0)},
		IsActive:              true,
	}
}

func setupResolver(t *testing.T, branches ...domain.Branch) (*Resolver, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	if len(branches) == 0 {
		inactive := testBranch("c-inactive", 0.001, 50)
		inactive.IsActive = false
		branches = []domain.Branch{
			testBranch("a-center", 0, 5),
			testBranch("b-north", 0.1, 4),
			inactive,
		}
	}
	return NewResolver(branches, clk), clk
}

func TestSetDeliveryAddress_PicksNearestEligible(t *testing.T) {
	r, _ := setupResolver(t)
	require.NoError(t, r.SetMode(domain.ModeDelivery))

	result := r.SetDeliveryAddress("12 Nguyen Hue", north(3))

	require.True(t, result.IsValid)
	assert.Equal(t, "a-center", result.BranchID)
	assert.InDelta(t, 3.0, result.DistanceKm, 1e-6)
	assert.InDelta(t, 3.0, r.DistanceKm(), 1e-6)
	assert.Equal(t, int64(25000), r.DeliveryFee())
	assert.True(t, r.AddressResolved())
	assert.True(t, r.ReadyToOrder())
}

func TestSetDeliveryAddress_SkipsInactiveAndOutOfRadius(t *testing.T) {
	r, _ := setupResolver(t)

	// 9 km north: outside a-center's 5 km, inside b-north's 4 km (b-north sits at ~11.1 km).
	result := r.SetDeliveryAddress("far street", north(9))

	require.True(t, result.IsValid)
	assert.Equal(t, "b-north", result.BranchID)
}

func TestSetDeliveryAddress_TieBrokenByBranchID(t *testing.T) {
	r, _ := setupResolver(t,
		testBranch("z-south", -0.01, 5),
		testBranch("m-north", 0.01, 5),
	)

	result := r.SetDeliveryAddress("equator", &domain.Coordinate{Lat: 0, Lng: 0})

	require.True(t, result.IsValid)
	assert.Equal(t, "m-north", result.BranchID)
}

func TestSetDeliveryAddress_NoEligibleKeepsPriorState(t *testing.T) {
	r, _ := setupResolver(t)
	require.NoError(t, r.SetMode(domain.ModeDelivery))
	require.True(t, r.SetDeliveryAddress("near", north(2)).IsValid)
	before := r.Snapshot()

	result := r.SetDeliveryAddress("moon base", north(500))

	assert.False(t, result.IsValid)
	assert.Equal(t, msgNoBranchInRange, result.Message)
	assert.Equal(t, before, r.Snapshot())
	last, ok := r.LastValidation()
	require.True(t, ok)
	assert.False(t, last.IsValid)
}

func TestSetDeliveryAddress_Unresolvable(t *testing.T) {
	r, _ := setupResolver(t)

	result := r.SetDeliveryAddress("somewhere", nil)
	assert.False(t, result.IsValid)
	assert.Equal(t, msgAddressNotLocated, result.Message)

	result = r.SetDeliveryAddress("   ", north(1))
	assert.False(t, result.IsValid)
	assert.Equal(t, msgAddressRequired, result.Message)
	assert.Nil(t, r.State().Address)
}

func TestSelectBranch_Errors(t *testing.T) {
	r, _ := setupResolver(t)

	assert.ErrorIs(t, r.SelectBranch("nope"), domain.ErrBranchNotFound)
	assert.ErrorIs(t, r.SelectBranch("c-inactive"), domain.ErrBranchInactive)
	assert.NoError(t, r.SelectBranch("a-center"))
}

func TestSetMode_Invalid(t *testing.T) {
	r, _ := setupResolver(t)

	assert.ErrorIs(t, r.SetMode(domain.ModeUnset), domain.ErrInvalidMode)
	assert.ErrorIs(t, r.SetMode("DRONE"), domain.ErrInvalidMode)
	assert.Equal(t, domain.ModeUnset, r.Mode())
}

func TestReadyToOrder(t *testing.T) {
	r, clk := setupResolver(t)

	assert.False(t, r.ReadyToOrder(), "no branch, no mode")

	require.NoError(t, r.SelectBranch("a-center"))
	assert.False(t, r.ReadyToOrder(), "mode unset")

	require.NoError(t, r.SetMode(domain.ModePickup))
	assert.True(t, r.ReadyToOrder())

	require.NoError(t, r.SetMode(domain.ModeDelivery))
	assert.False(t, r.ReadyToOrder(), "delivery without address")

	require.True(t, r.SetDeliveryAddress("near", north(1)).IsValid)
	assert.True(t, r.ReadyToOrder())

	clk.Set(time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC))
	assert.False(t, r.BranchOpen())
	assert.False(t, r.ReadyToOrder(), "branch closed")
}

func TestSelectBranch_OutOfRadiusAddressIsUnresolved(t *testing.T) {
	r, _ := setupResolver(t)
	require.NoError(t, r.SetMode(domain.ModeDelivery))
	require.True(t, r.SetDeliveryAddress("near center", north(1)).IsValid)

	require.NoError(t, r.SelectBranch("b-north"))

	assert.False(t, r.AddressResolved())
	assert.False(t, r.ReadyToOrder())
	assert.Equal(t, int64(0), r.DeliveryFee())
}

func TestDeliveryFee_RecomputedOnSubtotalAndMode(t *testing.T) {
	r, _ := setupResolver(t)
	require.NoError(t, r.SetMode(domain.ModeDelivery))
	require.True(t, r.SetDeliveryAddress("near", north(3)).IsValid)
	assert.Equal(t, int64(25000), r.DeliveryFee())

	r.UpdateSubtotal(160000)
	assert.Equal(t, int64(0), r.DeliveryFee())

	r.UpdateSubtotal(100000)
	assert.Equal(t, int64(25000), r.DeliveryFee())

	require.NoError(t, r.SetMode(domain.ModePickup))
	assert.Equal(t, int64(0), r.DeliveryFee())
	assert.Equal(t, 0, r.Snapshot().DeliveryMinutes)
}

func TestRestore(t *testing.T) {
	r, _ := setupResolver(t)
	require.NoError(t, r.SetMode(domain.ModeDelivery))
	require.True(t, r.SetDeliveryAddress("near", north(3)).IsValid)
	state := r.State()

	restored, _ := setupResolver(t)
	restored.Restore(state)
	assert.Equal(t, r.Snapshot(), restored.Snapshot())

	restored.Restore(State{Mode: "BOGUS", BranchID: "gone"})
	assert.Equal(t, domain.ModeUnset, restored.Mode())
	assert.False(t, restored.ReadyToOrder())
}
