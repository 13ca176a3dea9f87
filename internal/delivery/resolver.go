package delivery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fjod/coffee_cart/internal/clock"
	"github.com/fjod/coffee_cart/internal/domain"
)

const (
	msgAddressRequired   = "address required"
	msgAddressNotLocated = "address could not be located"
	msgNoBranchInRange   = "no branch delivers to this address"
)

// State is the persisted part of the resolver. Distance, fee and readiness are
// always derived from it.
type State struct {
	Mode     domain.FulfillmentMode  `json:"mode"`
	BranchID string                  `json:"branch_id,omitempty"`
	Address  *domain.DeliveryAddress `json:"address,omitempty"`
}

// Resolver tracks the fulfillment mode, the chosen branch and the delivery
// address of one session. Distance and fee are recomputed at every mutation
// point: mode, branch, address and subtotal.
type Resolver struct {
	branches []domain.Branch
	clock    clock.Clock

	state      State
	subtotal   int64
	distanceKm float64
	fee        int64
	lastResult *domain.AddressValidationResult
}

func NewResolver(branches []domain.Branch, clk clock.Clock) *Resolver {
	sorted := make([]domain.Branch, len(branches))
	copy(sorted, branches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Resolver{
		branches: sorted,
		clock:    clk,
	}
}

func (r *Resolver) Branches() []domain.Branch {
	out := make([]domain.Branch, len(r.branches))
	copy(out, r.branches)
	return out
}

func (r *Resolver) Branch(id string) (domain.Branch, bool) {
	for _, b := range r.branches {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Branch{}, false
}

func (r *Resolver) Mode() domain.FulfillmentMode {
	return r.state.Mode
}

// SetMode switches between pickup and delivery. The cart is never touched.
func (r *Resolver) SetMode(mode domain.FulfillmentMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	r.state.Mode = mode
	r.recompute()
	return nil
}

func (r *Resolver) SelectBranch(id string) error {
	b, ok := r.Branch(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrBranchNotFound, id)
	}
	if !b.IsActive {
		return fmt.Errorf("%w: %s", domain.ErrBranchInactive, id)
	}
	r.state.BranchID = id
	r.recompute()
	return nil
}

// SetDeliveryAddress validates the address and, when it can be served, stores
// it together with the nearest eligible branch. An invalid result leaves the
// previous address and branch untouched.
func (r *Resolver) SetDeliveryAddress(raw string, coordinate *domain.Coordinate) domain.AddressValidationResult {
	raw = strings.TrimSpace(raw)
	var result domain.AddressValidationResult

	switch {
	case raw == "":
		result = domain.AddressValidationResult{Message: msgAddressRequired}
	case coordinate == nil:
		result = domain.AddressValidationResult{Message: msgAddressNotLocated}
	default:
		branch, distance, ok := r.nearestEligible(*coordinate)
		if !ok {
			result = domain.AddressValidationResult{Message: msgNoBranchInRange}
			break
		}
		coord := *coordinate
		r.state.Address = &domain.DeliveryAddress{Raw: raw, Coordinate: &coord}
		r.state.BranchID = branch.ID
		r.recompute()
		result = domain.AddressValidationResult{
			IsValid:    true,
			BranchID:   branch.ID,
			DistanceKm: distance,
		}
	}

	r.lastResult = &result
	return result
}

// LastValidation returns the result of the most recent address update, if any.
func (r *Resolver) LastValidation() (domain.AddressValidationResult, bool) {
	if r.lastResult == nil {
		return domain.AddressValidationResult{}, false
	}
	return *r.lastResult, true
}

// UpdateSubtotal feeds the cart subtotal in for the free-shipping check.
func (r *Resolver) UpdateSubtotal(subtotal int64) {
	r.subtotal = subtotal
	r.recompute()
}

func (r *Resolver) DistanceKm() float64 {
	return r.distanceKm
}

func (r *Resolver) DeliveryFee() int64 {
	return r.fee
}

// AddressResolved is true when the stored address lies inside the service
// radius of the selected branch.
func (r *Resolver) AddressResolved() bool {
	b, ok := r.selected()
	if !ok || r.state.Address == nil || r.state.Address.Coordinate == nil {
		return false
	}
	return r.distanceKm <= b.DeliveryRadiusKm
}

func (r *Resolver) BranchOpen() bool {
	b, ok := r.selected()
	if !ok {
		return false
	}
	return b.IsActive && IsOpen(b.Hours, r.clock.Now())
}

// ReadyToOrder is derived only: branch selected, branch open, and pickup mode
// or a resolved address.
func (r *Resolver) ReadyToOrder() bool {
	if _, ok := r.selected(); !ok {
		return false
	}
	if !r.BranchOpen() {
		return false
	}
	switch r.state.Mode {
	case domain.ModePickup:
		return true
	case domain.ModeDelivery:
		return r.AddressResolved()
	}
	return false
}

func (r *Resolver) Snapshot() domain.Resolution {
	res := domain.Resolution{
		Mode:            r.state.Mode,
		AddressResolved: r.AddressResolved(),
		DistanceKm:      r.distanceKm,
		DeliveryFee:     r.fee,
		BranchOpen:      r.BranchOpen(),
		ReadyToOrder:    r.ReadyToOrder(),
	}
	if b, ok := r.selected(); ok {
		res.BranchID = b.ID
		res.BranchName = b.Name
		res.PrepMinutes = b.PrepMinutes
		if r.state.Mode == domain.ModeDelivery {
			res.DeliveryMinutes = b.DeliveryMinutes
		}
	}
	if r.state.Address != nil {
		res.Address = cloneAddress(r.state.Address)
	}
	return res
}

func (r *Resolver) State() State {
	s := r.state
	s.Address = cloneAddress(r.state.Address)
	return s
}

// Restore loads persisted state. Unknown branches and invalid modes are dropped.
func (r *Resolver) Restore(s State) {
	r.state = State{}
	if s.Mode.Valid() {
		r.state.Mode = s.Mode
	}
	if _, ok := r.Branch(s.BranchID); ok {
		r.state.BranchID = s.BranchID
	}
	r.state.Address = cloneAddress(s.Address)
	r.recompute()
}

func (r *Resolver) selected() (domain.Branch, bool) {
	if r.state.BranchID == "" {
		return domain.Branch{}, false
	}
	return r.Branch(r.state.BranchID)
}

func (r *Resolver) nearestEligible(coord domain.Coordinate) (domain.Branch, float64, bool) {
	var (
		best     domain.Branch
		bestDist float64
		found    bool
	)
	// branches are sorted by id, so a strict comparison breaks ties by id.
	for _, b := range r.branches {
		if !b.IsActive {
			continue
		}
		d := DistanceKm(b.Location, coord)
		if d > b.DeliveryRadiusKm {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = b, d, true
		}
	}
	return best, bestDist, found
}

func (r *Resolver) recompute() {
	r.distanceKm = 0
	r.fee = 0

	b, ok := r.selected()
	if !ok {
		return
	}
	if r.state.Address != nil && r.state.Address.Coordinate != nil {
		r.distanceKm = DistanceKm(b.Location, *r.state.Address.Coordinate)
	}
	if r.state.Mode == domain.ModeDelivery && r.AddressResolved() {
		r.fee = DeliveryFee(b, r.distanceKm, r.subtotal)
	}
}

func cloneAddress(a *domain.DeliveryAddress) *domain.DeliveryAddress {
	if a == nil {
		return nil
	}
	c := *a
	if a.Coordinate != nil {
		coord := *a.Coordinate
		c.Coordinate = &coord
	}
	return &c
}
